// Package clipboard copies finished translations to the system clipboard.
package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// Clipboard initializes the platform clipboard on first use and serializes writes.
type Clipboard struct {
	once    sync.Once
	initErr error
	init    func() error
	write   func(text string)

	mu sync.Mutex
}

func New() *Clipboard {
	return &Clipboard{
		init:  clipboard.Init,
		write: func(text string) { clipboard.Write(clipboard.FmtText, []byte(text)) },
	}
}

func (c *Clipboard) Write(text string) error {
	c.once.Do(func() { c.initErr = c.init() })
	if c.initErr != nil {
		return fmt.Errorf("clipboard unavailable: %w", c.initErr)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(text)
	return nil
}
