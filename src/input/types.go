// Package input taps the global pointer event stream and re-emits it as
// PointerEvents, independent of which window has focus.
package input

import (
	"fmt"
	"image"
	"strings"
)

// Kind is the type of a pointer event.
type Kind uint8

const (
	ButtonDown Kind = iota + 1
	ButtonUp
	Move
	Wheel
)

func (k Kind) String() string {
	switch k {
	case ButtonDown:
		return "ButtonDown"
	case ButtonUp:
		return "ButtonUp"
	case Move:
		return "Move"
	case Wheel:
		return "Wheel"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Button identifies a pointer button.
type Button uint8

const (
	NoButton Button = iota
	Left
	Middle
	Right
)

func (b Button) String() string {
	switch b {
	case Left:
		return "Left"
	case Middle:
		return "Middle"
	case Right:
		return "Right"
	default:
		return "None"
	}
}

// Modifiers is a bitset of held modifier keys.
type Modifiers uint8

const (
	ModNone  Modifiers = 0
	ModAlt   Modifiers = 1 << 0
	ModCtrl  Modifiers = 1 << 1
	ModShift Modifiers = 1 << 2
)

// Has reports whether every bit in m2 is set in m.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }

func (m Modifiers) String() string {
	if m == ModNone {
		return "None"
	}
	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	return strings.Join(parts, "+")
}

// PointerEvent is one OS pointer callback, normalized. Point is in physical pixels.
type PointerEvent struct {
	Kind       Kind
	Point      image.Point
	Button     Button
	Modifiers  Modifiers
	WheelDelta int
}

func (e PointerEvent) String() string {
	return fmt.Sprintf("%s(%s,%s)@%d,%d", e.Kind, e.Button, e.Modifiers, e.Point.X, e.Point.Y)
}

// Handler receives pointer events. It runs on the hook's dispatch path and must return quickly.
type Handler func(PointerEvent)

// Source is a pointer event stream that can be installed once and fanned out to subscribers.
type Source interface {
	Install() error
	Uninstall()
	Subscribe(h Handler) (unsubscribe func())
}
