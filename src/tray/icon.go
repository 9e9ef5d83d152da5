package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

var (
	iconFrame = color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	iconGlyph = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// renderIcon draws a dashed selection frame with a "T" inside.
func renderIcon() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	last := iconSize - 1
	for i := 0; i < iconSize; i++ {
		if (i/3)%2 == 1 {
			continue
		}
		for _, w := range []int{0, 1} {
			img.Set(i, w, iconFrame)
			img.Set(i, last-w, iconFrame)
			img.Set(w, i, iconFrame)
			img.Set(last-w, i, iconFrame)
		}
	}
	for y := 6; y < 26; y++ {
		for x := 6; x < 26; x++ {
			img.Set(x, y, iconFrame)
		}
	}
	for x := 10; x < 22; x++ {
		for y := 9; y < 12; y++ {
			img.Set(x, y, iconGlyph)
		}
	}
	for x := 14; x < 18; x++ {
		for y := 12; y < 23; y++ {
			img.Set(x, y, iconGlyph)
		}
	}
	return img
}

// Icon returns the tray icon: a PNG, wrapped in an ICO container on Windows.
func Icon() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, renderIcon()); err != nil {
		return nil, err
	}
	if runtime.GOOS == "windows" {
		return wrapICO(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// wrapICO builds a single-image ICO whose payload is a PNG (supported since Windows Vista).
func wrapICO(pngData []byte) []byte {
	const headerLen = 6 + 16
	out := make([]byte, headerLen, headerLen+len(pngData))
	binary.LittleEndian.PutUint16(out[2:], 1) // type: icon
	binary.LittleEndian.PutUint16(out[4:], 1) // count
	out[6] = iconSize
	out[7] = iconSize
	binary.LittleEndian.PutUint16(out[10:], 1)  // planes
	binary.LittleEndian.PutUint16(out[12:], 32) // bpp
	binary.LittleEndian.PutUint32(out[14:], uint32(len(pngData)))
	binary.LittleEndian.PutUint32(out[18:], headerLen)
	return append(out, pngData...)
}
