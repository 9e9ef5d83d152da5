//go:build !cgo

package ocr

import (
	"errors"
	"image"
)

func tesseractText(image.Image, []string) (string, error) {
	return "", errors.New("tesseract support requires a cgo build; set ocr_engine = \"llm\"")
}
