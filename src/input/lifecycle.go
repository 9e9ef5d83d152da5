package input

import (
	"fmt"
	"log"
	"sync"
)

// Lifecycle owns the single installed Source for the process lifetime.
// Nothing else installs or removes the hook.
type Lifecycle struct {
	src  Source
	once sync.Once
}

// NewLifecycle wraps src; call Acquire at startup.
func NewLifecycle(src Source) *Lifecycle { return &Lifecycle{src: src} }

// Acquire installs the source and returns the release func to defer at shutdown.
func (l *Lifecycle) Acquire() (release func(), err error) {
	if err := l.src.Install(); err != nil {
		return nil, fmt.Errorf("install pointer hook: %w", err)
	}
	return func() {
		l.once.Do(func() {
			l.src.Uninstall()
			log.Printf("Input: lifecycle released")
		})
	}, nil
}

// Source returns the owned source for subscription.
func (l *Lifecycle) Source() Source { return l.src }
