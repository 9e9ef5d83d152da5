package display

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-translate/src/dpi"
)

func TestPlace(t *testing.T) {
	work := dpi.LogicalRect{Left: 0, Top: 0, Width: 1920, Height: 1040}
	tests := []struct {
		name     string
		anchor   dpi.LogicalRect
		w, h     float64
		wantLeft float64
		wantTop  float64
	}{
		{"fits to the right", dpi.LogicalRect{Left: 100, Top: 100, Width: 200, Height: 150}, 360, 60, 310, 100},
		{"overflows right edge", dpi.LogicalRect{Left: 1600, Top: 100, Width: 200, Height: 50}, 360, 60, 1550, 100},
		{"overflows bottom edge", dpi.LogicalRect{Left: 100, Top: 1000, Width: 100, Height: 30}, 360, 100, 210, 930},
		{"wider than work area", dpi.LogicalRect{Left: 10, Top: 10, Width: 10, Height: 10}, 2000, 60, 0, 10},
		{"taller than work area", dpi.LogicalRect{Left: 10, Top: 500, Width: 10, Height: 10}, 100, 1200, 30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, top := Place(tt.anchor, tt.w, tt.h, work)
			assert.Equal(t, tt.wantLeft, left)
			assert.Equal(t, tt.wantTop, top)
		})
	}
}

func TestPlaceOffsetWorkArea(t *testing.T) {
	work := dpi.LogicalRect{Left: 1920, Top: 40, Width: 1280, Height: 984}
	left, top := Place(dpi.LogicalRect{Left: 1925, Top: 20, Width: 20, Height: 20}, 360, 60, work)
	assert.Equal(t, 1955.0, left)
	assert.Equal(t, 40.0, top)
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool { t.stopped = true; return true }

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) afterFunc(d time.Duration, f func()) stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

func newTestAutoHide() (*AutoHide, *fakeClock, *int) {
	hides := 0
	clock := &fakeClock{}
	a := NewAutoHide(AutoHideAfter, func() { hides++ })
	a.afterFunc = clock.afterFunc
	return a, clock, &hides
}

func TestAutoHideFiresAfterDuration(t *testing.T) {
	a, clock, hides := newTestAutoHide()
	a.Start()
	tm := clock.last()
	require.NotNil(t, tm)
	assert.Equal(t, 5*time.Second, tm.d)

	tm.f()
	assert.Equal(t, 1, *hides)

	tm.f()
	assert.Equal(t, 1, *hides, "a fired countdown must not hide twice")
}

func TestAutoHidePausesWhileHovered(t *testing.T) {
	a, clock, hides := newTestAutoHide()
	a.Start()
	first := clock.last()

	a.PointerEntered()
	assert.True(t, first.stopped)
	first.f()
	assert.Equal(t, 0, *hides, "stale timer must not hide")

	a.PointerLeft()
	second := clock.last()
	require.NotSame(t, first, second)
	second.f()
	assert.Equal(t, 1, *hides)
}

func TestAutoHideStartWhileHoveredWaitsForLeave(t *testing.T) {
	a, clock, hides := newTestAutoHide()
	a.PointerEntered()
	a.Start()
	assert.Nil(t, clock.last())

	a.PointerLeft()
	require.NotNil(t, clock.last())
	clock.last().f()
	assert.Equal(t, 1, *hides)
}

func TestAutoHideRestartResetsCountdown(t *testing.T) {
	a, clock, hides := newTestAutoHide()
	a.Start()
	first := clock.last()
	a.Start()
	first.f()
	assert.Equal(t, 0, *hides)
	clock.last().f()
	assert.Equal(t, 1, *hides)
}

func TestAutoHideCancel(t *testing.T) {
	a, clock, hides := newTestAutoHide()
	a.Start()
	a.Cancel()
	clock.last().f()
	a.PointerEntered()
	a.PointerLeft()
	assert.Equal(t, 0, *hides)
	assert.Len(t, clock.timers, 1, "leaving a disarmed surface must not start a countdown")
}

func TestLogSurface(t *testing.T) {
	s := NewLogSurface()
	s.SetPosition(10, 20)
	s.SetResultText("bonjour")
	s.ShowAndAutoHide()
	assert.True(t, s.Visible())
	assert.Equal(t, "bonjour", s.Text())
	s.Hide()
	assert.False(t, s.Visible())
}
