package singleinstance

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTestPorts(t *testing.T) {
	t.Setenv(PortStartEnvVar, "49631")
	t.Setenv(PortEndEnvVar, "49633")
}

func startServer(t *testing.T, ctx context.Context) Server {
	t.Helper()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			t.Skipf("loopback listener unavailable in this environment: %v", err)
		}
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestTranslateRoundTrip(t *testing.T) {
	useTestPorts(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)
	assert.Equal(t, 49631, srv.Port())

	type reply struct {
		delegated bool
		text      string
		err       error
	}
	done := make(chan reply, 1)
	go func() {
		delegated, text, err := NewClient().Translate(ctx, Request{Text: "hello\nworld", From: "en", To: "zh"})
		done <- reply{delegated, text, err}
	}()

	conn, err := srv.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, Request{Text: "hello\nworld", From: "en", To: "zh"}, conn.Request())
	require.NoError(t, conn.RespondSuccess("你好 世界"))
	require.NoError(t, conn.Close())

	r := <-done
	require.NoError(t, r.err)
	assert.True(t, r.delegated)
	assert.Equal(t, "你好 世界", r.text)
}

func TestTranslateErrorResponse(t *testing.T) {
	useTestPorts(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	done := make(chan error, 1)
	go func() {
		_, _, err := NewClient().Translate(ctx, Request{Text: "x"})
		done <- err
	}()

	conn, err := srv.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.RespondError("Configuration error: missing key"))
	require.NoError(t, conn.Close())

	err = <-done
	require.Error(t, err)
	assert.Equal(t, "Configuration error: missing key", err.Error())
}

func TestSecondServerReportsAlreadyRunning(t *testing.T) {
	useTestPorts(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	startServer(t, ctx)

	err := NewServer().Start(ctx)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	port, ok := DetectResidentPort(ctx)
	assert.True(t, ok)
	assert.Equal(t, 49631, port)
}

func TestClientWithoutResident(t *testing.T) {
	t.Setenv(PortStartEnvVar, "49641")
	t.Setenv(PortEndEnvVar, "49642")
	delegated, _, err := NewClient().Translate(context.Background(), Request{Text: "x"})
	assert.NoError(t, err)
	assert.False(t, delegated)
}

func TestPortRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantStart  int
		wantEnd    int
	}{
		{"defaults", "", "", defaultPortStart, defaultPortEnd},
		{"custom", "50000", "50010", 50000, 50010},
		{"swapped", "50010", "50000", 50000, 50010},
		{"clamped", "80", "70000", 1024, 65535},
		{"invalid falls back", "abc", "", defaultPortStart, defaultPortEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(PortStartEnvVar, tt.start)
			t.Setenv(PortEndEnvVar, tt.end)
			s, e := portRange()
			assert.Equal(t, tt.wantStart, s)
			assert.Equal(t, tt.wantEnd, e)
		})
	}
}
