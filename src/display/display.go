// Package display shows translation results next to the selection.
package display

import (
	"time"

	"screen-translate/src/dpi"
)

const (
	// AutoHideAfter is how long a result stays visible once the pointer is off the surface.
	AutoHideAfter = 5 * time.Second
	// Gap separates the surface from the selection and from work-area edges.
	Gap = 10.0

	// PopupWidth and PopupMinHeight are the result window's nominal logical size.
	PopupWidth     = 360.0
	PopupMinHeight = 60.0

	NoTextFound      = "No text found. Try selecting a larger area or increasing contrast."
	ProcessingFailed = "Processing failed. See the log for details."
)

// Surface is the result window. Coordinates are logical units.
type Surface interface {
	SetResultText(text string)
	ShowAndAutoHide()
	Hide()
	SetPosition(left, top float64)
	Size() (width, height float64)
}

// Scaled is implemented by surfaces that need the selection's scale to map logical
// positions back to device pixels.
type Scaled interface {
	SetScale(s dpi.Scale)
}

// Place puts a width×height surface to the right of anchor and keeps it inside work: overflow
// on the right or bottom shifts it back with a Gap margin, but never past the left or top edge.
func Place(anchor dpi.LogicalRect, width, height float64, work dpi.LogicalRect) (left, top float64) {
	left = anchor.Right() + Gap
	top = anchor.Top

	if right := left + width; right > work.Right() {
		left -= right - work.Right() + Gap
	}
	if bottom := top + height; bottom > work.Bottom() {
		top -= bottom - work.Bottom() + Gap
	}
	if left < work.Left {
		left = work.Left
	}
	if top < work.Top {
		top = work.Top
	}
	return left, top
}
