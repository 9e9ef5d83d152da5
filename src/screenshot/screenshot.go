package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
)

// CaptureRect captures a rectangle in physical virtual-screen pixels.
func CaptureRect(rect image.Rectangle) (*image.RGBA, error) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("invalid region dimensions: width=%d, height=%d", rect.Dx(), rect.Dy())
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img for upload to a vision model.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// DisplayBounds lists the bounds of every active display, primary first.
func DisplayBounds() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}

// BoundsAt returns the display containing p, or the primary display when none does.
func BoundsAt(p image.Point) (image.Rectangle, error) {
	displays := DisplayBounds()
	if len(displays) == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	return containing(displays, p), nil
}

func containing(displays []image.Rectangle, p image.Point) image.Rectangle {
	for _, b := range displays {
		if p.In(b) {
			return b
		}
	}
	return displays[0]
}
