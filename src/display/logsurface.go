package display

import (
	"log"
	"sync"

	"screen-translate/src/logutil"
)

// LogSurface is a headless Surface that writes results to the log. It backs platforms
// without a native popup and the CLI.
type LogSurface struct {
	mu       sync.Mutex
	text     string
	left     float64
	top      float64
	visible  bool
	autoHide *AutoHide
}

func NewLogSurface() *LogSurface {
	s := &LogSurface{}
	s.autoHide = NewAutoHide(AutoHideAfter, s.hideNow)
	return s
}

func (s *LogSurface) SetResultText(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

func (s *LogSurface) ShowAndAutoHide() {
	s.mu.Lock()
	s.visible = true
	log.Printf("Result at (%.0f,%.0f): %s", s.left, s.top, logutil.Sanitize(s.text, 200))
	s.mu.Unlock()
	s.autoHide.Start()
}

func (s *LogSurface) Hide() {
	s.autoHide.Cancel()
	s.hideNow()
}

func (s *LogSurface) hideNow() {
	s.mu.Lock()
	s.visible = false
	s.mu.Unlock()
}

func (s *LogSurface) SetPosition(left, top float64) {
	s.mu.Lock()
	s.left, s.top = left, top
	s.mu.Unlock()
}

// Size reports the nominal popup size.
func (s *LogSurface) Size() (float64, float64) { return PopupWidth, PopupMinHeight }

// Visible reports whether a result is currently shown.
func (s *LogSurface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Text returns the last result text.
func (s *LogSurface) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}
