package config

import (
	"fmt"
	"strings"
)

// TriggerMode selects the pointer gesture that starts a selection.
type TriggerMode int

const (
	MiddleMouse TriggerMode = iota
	RightMouse
	AltAndLeftMouse
)

func (t TriggerMode) String() string {
	switch t {
	case RightMouse:
		return "right"
	case AltAndLeftMouse:
		return "alt+left"
	default:
		return "middle"
	}
}

// ParseTriggerMode accepts "middle", "right" and "alt+left" in any case.
func ParseTriggerMode(s string) (TriggerMode, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "", "middle", "middlemouse":
		return MiddleMouse, nil
	case "right", "rightmouse":
		return RightMouse, nil
	case "alt+left", "altandleftmouse", "alt+leftmouse":
		return AltAndLeftMouse, nil
	default:
		return MiddleMouse, fmt.Errorf("unknown trigger mode %q", s)
	}
}

func (t TriggerMode) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TriggerMode) UnmarshalText(b []byte) error {
	m, err := ParseTriggerMode(string(b))
	if err != nil {
		return err
	}
	*t = m
	return nil
}
