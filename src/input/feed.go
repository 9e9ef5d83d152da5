package input

import "sync/atomic"

// Feed is a Source driven by synthetic events, used in tests and replay tooling.
type Feed struct {
	subscribers
	installed atomic.Bool
}

// NewFeed returns an uninstalled Feed.
func NewFeed() *Feed { return &Feed{} }

func (f *Feed) Install() error {
	if !f.installed.CompareAndSwap(false, true) {
		return ErrAlreadyInstalled
	}
	return nil
}

func (f *Feed) Uninstall() { f.installed.Store(false) }

func (f *Feed) Subscribe(h Handler) func() { return f.add(h) }

// Emit delivers ev to every subscriber when the feed is installed.
func (f *Feed) Emit(ev PointerEvent) {
	if !f.installed.Load() {
		return
	}
	f.emit(ev)
}
