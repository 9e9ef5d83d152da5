package ocr

import (
	"context"
	"image"
	"log"
	"strings"
	"time"

	"screen-translate/src/logutil"
)

// DefaultTesseractLanguages is used when the source language is auto-detect.
const DefaultTesseractLanguages = "chi_sim+eng"

// TesseractEngine runs local Tesseract OCR on the captured, preprocessed region.
type TesseractEngine struct {
	languages string
	capture   CaptureFunc
	deadline  time.Duration
	recognize func(img image.Image, languages []string) (string, error)
}

func NewTesseractEngine(languages string, capture CaptureFunc, deadline time.Duration) *TesseractEngine {
	if languages == "" {
		languages = DefaultTesseractLanguages
	}
	if capture == nil {
		capture = captureScreen
	}
	return &TesseractEngine{languages: languages, capture: capture, deadline: deadline, recognize: tesseractText}
}

func (e *TesseractEngine) RecognizeText(ctx context.Context, rect image.Rectangle, languageHint string) string {
	ctx, cancel := withDeadline(ctx, e.deadline)
	defer cancel()

	img, err := e.capture(rect)
	if err != nil {
		log.Printf("OCR: capture failed: %v", err)
		return ""
	}
	langs := strings.Split(TesseractLanguages(languageHint, e.languages), "+")

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := e.recognize(Preprocess(img), langs)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			log.Printf("OCR: tesseract failed: %v", r.err)
			return ""
		}
		text := strings.TrimSpace(r.text)
		log.Printf("OCR: recognized %d chars: %s", len(text), logutil.Sanitize(text, 80))
		return text
	case <-ctx.Done():
		log.Printf("OCR: tesseract abandoned: %v", ctx.Err())
		return ""
	}
}
