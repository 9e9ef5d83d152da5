package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingSleeper struct{ delays []time.Duration }

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	rs := &recordingSleeper{}
	calls := 0
	err := Do(context.Background(), Default, rs.sleep, func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return Transient(errors.New("connection refused"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(rs.delays) != 2 || rs.delays[0] != time.Second || rs.delays[1] != 2*time.Second {
		t.Errorf("expected backoff [1s 2s], got %v", rs.delays)
	}
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	rs := &recordingSleeper{}
	calls := 0
	base := errors.New("timeout")
	err := Do(context.Background(), Default, rs.sleep, func(context.Context, int) error {
		calls++
		return Transient(base)
	})
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	if !IsTransient(err) {
		t.Error("expected exhausted error to stay transient")
	}
	if calls != 3 || len(rs.delays) != 2 {
		t.Errorf("calls=%d delays=%v", calls, rs.delays)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	rs := &recordingSleeper{}
	calls := 0
	perm := errors.New("invalid credentials")
	err := Do(context.Background(), Default, rs.sleep, func(context.Context, int) error {
		calls++
		return perm
	})
	if err != perm {
		t.Fatalf("expected permanent error unchanged, got %v", err)
	}
	if calls != 1 || len(rs.delays) != 0 {
		t.Errorf("calls=%d delays=%v", calls, rs.delays)
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, Default, nil, func(context.Context, int) error {
		calls++
		return Transient(errors.New("down"))
	})
	if err == nil || calls != 1 {
		t.Errorf("expected one call and an error, got calls=%d err=%v", calls, err)
	}
}

func TestLinear(t *testing.T) {
	b := Linear(500 * time.Millisecond)
	if b(1) != 500*time.Millisecond || b(3) != 1500*time.Millisecond {
		t.Errorf("unexpected linear backoff %v %v", b(1), b(3))
	}
}
