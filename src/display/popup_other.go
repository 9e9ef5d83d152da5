//go:build !windows

package display

import (
	"image"

	"screen-translate/src/screenshot"
)

// WorkArea returns the bounds of the display containing p.
func WorkArea(p image.Point) (image.Rectangle, error) {
	return screenshot.BoundsAt(p)
}

// NewSurface returns a LogSurface; there is no native popup on this platform.
func NewSurface(string) Surface {
	return NewLogSurface()
}
