package display

import (
	"sync"
	"time"
)

type stopper interface{ Stop() bool }

// AutoHide runs hide after a quiet period. The countdown pauses while the pointer is over
// the surface and restarts in full when it leaves.
type AutoHide struct {
	d         time.Duration
	hide      func()
	afterFunc func(time.Duration, func()) stopper

	mu      sync.Mutex
	timer   stopper
	armed   bool
	hovered bool
	gen     uint64
}

func NewAutoHide(d time.Duration, hide func()) *AutoHide {
	return &AutoHide{
		d:    d,
		hide: hide,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Start arms the countdown, replacing any previous one.
func (a *AutoHide) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.armed = true
	a.restartLocked()
}

// Cancel disarms the countdown without hiding.
func (a *AutoHide) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.armed = false
	a.stopLocked()
}

func (a *AutoHide) PointerEntered() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hovered = true
	a.stopLocked()
}

func (a *AutoHide) PointerLeft() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hovered = false
	if a.armed {
		a.restartLocked()
	}
}

func (a *AutoHide) stopLocked() {
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *AutoHide) restartLocked() {
	a.stopLocked()
	if a.hovered {
		return
	}
	gen := a.gen
	a.timer = a.afterFunc(a.d, func() { a.fire(gen) })
}

func (a *AutoHide) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || !a.armed {
		a.mu.Unlock()
		return
	}
	a.armed = false
	a.timer = nil
	a.mu.Unlock()
	a.hide()
}
