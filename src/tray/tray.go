// Package tray shows the resident's notification-area icon and menu.
package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"
)

type Config struct {
	Title          string
	Tooltip        string
	OnClearCache   func()
	OnClearHistory func()
	// OnQuit runs after the menu's Quit item is clicked, before the tray exits.
	OnQuit func()
}

type Tray struct {
	cfg     Config
	readyCh chan struct{}
	quitCh  chan struct{}

	mu      sync.Mutex
	ready   bool
	tooltip string
}

func New(cfg Config) *Tray {
	if cfg.Title == "" {
		cfg.Title = "Screen Translate"
	}
	if cfg.Tooltip == "" {
		cfg.Tooltip = cfg.Title
	}
	return &Tray{
		cfg:     cfg,
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
		tooltip: cfg.Tooltip,
	}
}

// Run blocks until Quit. On macOS it must be called from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Ready is closed once the icon is visible.
func (t *Tray) Ready() <-chan struct{} { return t.readyCh }

// SetTooltip is safe before Run; the last value is applied when the tray becomes ready.
func (t *Tray) SetTooltip(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tooltip = text
	if t.ready {
		systray.SetTooltip(text)
	}
}

func (t *Tray) Quit() { systray.Quit() }

func (t *Tray) onReady() {
	icon, err := Icon()
	if err != nil {
		log.Printf("Tray: failed to render icon: %v", err)
	} else {
		systray.SetIcon(icon)
	}
	systray.SetTitle(t.cfg.Title)

	t.mu.Lock()
	t.ready = true
	systray.SetTooltip(t.tooltip)
	t.mu.Unlock()

	mCache := systray.AddMenuItem("Clear cache", "Forget cached translations")
	mHistory := systray.AddMenuItem("Clear history", "Delete all saved translations")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit Screen Translate")

	go func() {
		for {
			select {
			case <-mCache.ClickedCh:
				log.Printf("Tray: clear cache")
				call(t.cfg.OnClearCache)
			case <-mHistory.ClickedCh:
				log.Printf("Tray: clear history")
				call(t.cfg.OnClearHistory)
			case <-mQuit.ClickedCh:
				log.Printf("Tray: quit")
				call(t.cfg.OnQuit)
				systray.Quit()
				return
			case <-t.quitCh:
				return
			}
		}
	}()
	close(t.readyCh)
}

func (t *Tray) onExit() {
	close(t.quitCh)
}

func call(f func()) {
	if f != nil {
		f()
	}
}
