//go:build !windows

package dpi

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

type platformLookup struct{}

// DPIForPoint confirms the point lies on an active display. There is no portable
// per-monitor DPI source, so the baseline is reported.
func (platformLookup) DPIForPoint(p image.Point) (uint32, uint32, error) {
	n := screenshot.NumActiveDisplays()
	for i := 0; i < n; i++ {
		if p.In(screenshot.GetDisplayBounds(i)) {
			return BaselineDPI, BaselineDPI, nil
		}
	}
	return 0, 0, fmt.Errorf("no display contains point (%d,%d)", p.X, p.Y)
}

// EnableAwareness is a no-op outside Windows.
func EnableAwareness() {}
