package input

import (
	"errors"
	"image"
	"log"
	"sync"
	"sync/atomic"

	gohook "github.com/robotn/gohook"
)

// ErrAlreadyInstalled is returned when a second hook is installed in the same process.
var ErrAlreadyInstalled = errors.New("pointer hook already installed")

// hookOwned guards the process-wide gohook registration.
var hookOwned atomic.Bool

// libuiohook modifier mask bits as reported in gohook.Event.Mask.
const (
	maskShiftL = 1 << 0
	maskCtrlL  = 1 << 1
	maskAltL   = 1 << 3
	maskShiftR = 1 << 4
	maskCtrlR  = 1 << 5
	maskAltR   = 1 << 7
)

// libuiohook button codes.
const (
	hookButtonLeft   = 1
	hookButtonRight  = 2
	hookButtonMiddle = 3
)

// Monitor is the production Source backed by the global gohook event stream.
type Monitor struct {
	subscribers

	mu        sync.Mutex
	installed bool
	done      chan struct{}
}

// NewMonitor returns an uninstalled Monitor.
func NewMonitor() *Monitor { return &Monitor{} }

// Install registers the global hook and starts pumping events to subscribers.
func (m *Monitor) Install() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.installed {
		return nil
	}
	if !hookOwned.CompareAndSwap(false, true) {
		return ErrAlreadyInstalled
	}

	evChan := gohook.Start()
	if evChan == nil {
		hookOwned.Store(false)
		return errors.New("gohook.Start returned nil channel")
	}
	m.installed = true
	m.done = make(chan struct{})
	log.Printf("Input: global pointer hook installed")

	go m.pump(evChan, m.done)
	return nil
}

func (m *Monitor) pump(evChan chan gohook.Event, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in pointer hook goroutine: %v", r)
		}
	}()
	for ev := range evChan {
		pe, ok := convert(ev)
		if !ok {
			continue
		}
		m.emit(pe)
	}
	log.Printf("Input: event channel closed")
}

// Uninstall removes the hook. Safe to call more than once.
func (m *Monitor) Uninstall() {
	m.mu.Lock()
	if !m.installed {
		m.mu.Unlock()
		return
	}
	m.installed = false
	done := m.done
	m.mu.Unlock()

	gohook.End()
	<-done
	hookOwned.Store(false)
	log.Printf("Input: global pointer hook removed")
}

func (m *Monitor) Subscribe(h Handler) func() { return m.add(h) }

// convert maps a gohook event to a PointerEvent. Keyboard and synthetic events are skipped.
// gohook names libuiohook's pressed and released events MouseHold and MouseDown respectively.
func convert(ev gohook.Event) (PointerEvent, bool) {
	pe := PointerEvent{
		Point:     image.Pt(int(ev.X), int(ev.Y)),
		Modifiers: modifiersFromMask(ev.Mask),
	}
	switch ev.Kind {
	case gohook.MouseHold:
		pe.Kind = ButtonDown
		pe.Button = buttonFromCode(ev.Button)
	case gohook.MouseDown:
		pe.Kind = ButtonUp
		pe.Button = buttonFromCode(ev.Button)
	case gohook.MouseMove, gohook.MouseDrag:
		pe.Kind = Move
	case gohook.MouseWheel:
		pe.Kind = Wheel
		pe.WheelDelta = int(ev.Rotation)
	default:
		return PointerEvent{}, false
	}
	if (pe.Kind == ButtonDown || pe.Kind == ButtonUp) && pe.Button == NoButton {
		return PointerEvent{}, false
	}
	return pe, true
}

func buttonFromCode(code uint16) Button {
	switch code {
	case hookButtonLeft:
		return Left
	case hookButtonRight:
		return Right
	case hookButtonMiddle:
		return Middle
	default:
		return NoButton
	}
}

func modifiersFromMask(mask uint16) Modifiers {
	var m Modifiers
	if mask&(maskAltL|maskAltR) != 0 {
		m |= ModAlt
	}
	if mask&(maskCtrlL|maskCtrlR) != 0 {
		m |= ModCtrl
	}
	if mask&(maskShiftL|maskShiftR) != 0 {
		m |= ModShift
	}
	return m
}
