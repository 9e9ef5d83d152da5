// Package selection turns pointer events into capture regions.
package selection

import (
	"image"
	"log"
	"sync"

	"screen-translate/src/config"
	"screen-translate/src/dpi"
	"screen-translate/src/input"
)

// MinSpan is the minimum width and height, in physical pixels, of a capture.
const MinSpan = 10

// State of the machine.
type State int

const (
	Idle State = iota
	Selecting
)

func (s State) String() string {
	if s == Selecting {
		return "Selecting"
	}
	return "Idle"
}

// CaptureRequest is an immutable snapshot of a finalized selection.
type CaptureRequest struct {
	// Physical is in device pixels, for screen capture.
	Physical image.Rectangle
	// Logical positions the result overlay.
	Logical dpi.LogicalRect
	// Scale is the factor resolved when the selection started.
	Scale          dpi.Scale
	SourceLanguage string
	TargetLanguage string
}

// Session is the selection in progress.
type Session struct {
	Start   image.Point
	Current image.Rectangle
	Scale   dpi.Scale
	Active  bool
	button  input.Button
}

// ScaleResolver resolves the DPI scale at a screen point.
type ScaleResolver interface {
	ScaleForPoint(p image.Point) dpi.Scale
}

// Hider hides the visible result surface when a new selection starts.
type Hider interface {
	Hide()
}

// Listener observes the machine's transitions. Callbacks run on the caller's goroutine.
type Listener interface {
	SelectionStarted(start image.Point)
	RectChanged(r dpi.LogicalRect)
	Cancelled()
	Captured(req CaptureRequest)
}

// Machine is the two-state selection state machine. It is driven from one goroutine;
// the mutex only guards trigger/language updates from config reloads.
type Machine struct {
	resolver ScaleResolver
	hider    Hider
	listener Listener

	mu      sync.Mutex
	trigger config.TriggerMode
	srcLang string
	tgtLang string

	session Session
}

// New builds a Machine in the Idle state.
func New(trigger config.TriggerMode, srcLang, tgtLang string, resolver ScaleResolver, hider Hider, listener Listener) *Machine {
	return &Machine{
		resolver: resolver,
		hider:    hider,
		listener: listener,
		trigger:  trigger,
		srcLang:  srcLang,
		tgtLang:  tgtLang,
	}
}

// SetTrigger takes effect for the next session.
func (m *Machine) SetTrigger(t config.TriggerMode) {
	m.mu.Lock()
	m.trigger = t
	m.mu.Unlock()
}

// SetLanguages takes effect for the next capture.
func (m *Machine) SetLanguages(src, tgt string) {
	m.mu.Lock()
	m.srcLang, m.tgtLang = src, tgt
	m.mu.Unlock()
}

// State reports the current state.
func (m *Machine) State() State {
	if m.session.Active {
		return Selecting
	}
	return Idle
}

// Session returns a copy of the current session.
func (m *Machine) Session() Session { return m.session }

// Handle advances the machine by one event.
func (m *Machine) Handle(ev input.PointerEvent) {
	switch ev.Kind {
	case input.ButtonDown:
		m.onDown(ev)
	case input.Move:
		m.onMove(ev)
	case input.ButtonUp:
		m.onUp(ev)
	}
}

func (m *Machine) onDown(ev input.PointerEvent) {
	if m.session.Active {
		return
	}
	m.mu.Lock()
	trigger := m.trigger
	m.mu.Unlock()
	if !Matches(trigger, ev.Button, ev.Modifiers) {
		return
	}

	scale := m.resolver.ScaleForPoint(ev.Point)
	if m.hider != nil {
		m.hider.Hide()
	}
	m.session = Session{
		Start:   ev.Point,
		Current: image.Rectangle{Min: ev.Point, Max: ev.Point},
		Scale:   scale,
		Active:  true,
		button:  ev.Button,
	}
	m.listener.SelectionStarted(ev.Point)
}

func (m *Machine) onMove(ev input.PointerEvent) {
	if !m.session.Active || !m.session.Scale.Valid() {
		return
	}
	m.session.Current = Normalize(m.session.Start, ev.Point)
	m.listener.RectChanged(m.session.Scale.ToLogical(m.session.Current))
}

func (m *Machine) onUp(ev input.PointerEvent) {
	if !m.session.Active || ev.Button != m.session.button {
		return
	}
	rect := Normalize(m.session.Start, ev.Point)
	scale := m.session.Scale
	m.session = Session{}

	if !scale.Valid() {
		log.Printf("Selection: invalid DPI scale %+v, cancelling selection", scale)
		m.listener.Cancelled()
		return
	}

	if rect.Dx() < MinSpan || rect.Dy() < MinSpan {
		log.Printf("Selection: discarded %dx%d selection", rect.Dx(), rect.Dy())
		m.listener.Cancelled()
		return
	}

	m.mu.Lock()
	req := CaptureRequest{
		Physical:       rect,
		Logical:        scale.ToLogical(rect),
		Scale:          scale,
		SourceLanguage: m.srcLang,
		TargetLanguage: m.tgtLang,
	}
	m.mu.Unlock()
	m.listener.Captured(req)
}

// Normalize returns the bounding box of two corner points.
func Normalize(a, b image.Point) image.Rectangle {
	return image.Rect(a.X, a.Y, b.X, b.Y)
}

// Matches reports whether a button press with the given modifiers starts a selection.
func Matches(t config.TriggerMode, b input.Button, mods input.Modifiers) bool {
	switch t {
	case config.MiddleMouse:
		return b == input.Middle && mods == input.ModNone
	case config.RightMouse:
		return b == input.Right && mods == input.ModNone
	case config.AltAndLeftMouse:
		return b == input.Left && mods.Has(input.ModAlt)
	default:
		return false
	}
}
