// Package ocr recognizes text inside a physical screen rectangle. Engines never return errors
// across their boundary: failures are logged and yield "".
package ocr

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"strings"
	"time"

	"screen-translate/src/config"
	"screen-translate/src/llm"
	"screen-translate/src/logutil"
	"screen-translate/src/screenshot"
)

// Engine is the OCR collaborator used by the pipeline.
type Engine interface {
	RecognizeText(ctx context.Context, rect image.Rectangle, languageHint string) string
}

// CaptureFunc grabs the pixels of a physical rectangle.
type CaptureFunc func(rect image.Rectangle) (image.Image, error)

func captureScreen(rect image.Rectangle) (image.Image, error) {
	return screenshot.CaptureRect(rect)
}

// New builds the engine selected by cfg.OCREngine, capturing from the screen.
func New(cfg *config.Config) Engine { return NewWithCapture(cfg, nil) }

// NewWithCapture is New with a custom pixel source; nil captures from the screen.
func NewWithCapture(cfg *config.Config, capture CaptureFunc) Engine {
	deadline := time.Duration(cfg.OCRDeadlineSec) * time.Second
	switch strings.ToLower(cfg.OCREngine) {
	case config.OCREngineLLM:
		client := llm.New(llm.Config{
			APIKey:    cfg.OpenRouter.APIKey,
			Model:     cfg.OpenRouter.Model,
			Providers: cfg.OpenRouter.Providers,
		})
		return NewLLMEngine(client, capture, deadline)
	default:
		return NewTesseractEngine(cfg.OCRLanguage, capture, deadline)
	}
}

func withDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// VisionClient is the part of llm.Client the LLM engine uses.
type VisionClient interface {
	QueryVision(ctx context.Context, png []byte) (string, error)
}

// LLMEngine sends the captured region to an OpenRouter vision model.
type LLMEngine struct {
	client   VisionClient
	capture  CaptureFunc
	deadline time.Duration
}

func NewLLMEngine(client VisionClient, capture CaptureFunc, deadline time.Duration) *LLMEngine {
	if capture == nil {
		capture = captureScreen
	}
	return &LLMEngine{client: client, capture: capture, deadline: deadline}
}

func (e *LLMEngine) RecognizeText(ctx context.Context, rect image.Rectangle, languageHint string) string {
	ctx, cancel := withDeadline(ctx, e.deadline)
	defer cancel()

	log.Printf("OCR: capturing region %v", rect)
	img, err := e.capture(rect)
	if err != nil {
		log.Printf("OCR: capture failed: %v", err)
		return ""
	}
	data, err := screenshot.EncodePNG(img)
	if err != nil {
		log.Printf("OCR: %v", err)
		return ""
	}
	saveDebugImage(data, rect)

	text, err := e.client.QueryVision(ctx, data)
	if err != nil {
		log.Printf("OCR: vision query failed: %v", err)
		return ""
	}
	log.Printf("OCR: recognized %d chars: %s", len(text), logutil.Sanitize(text, 80))
	return text
}

// saveDebugImage writes the captured PNG to the working directory when OCR_DEBUG_SAVE_IMAGES=true.
func saveDebugImage(data []byte, rect image.Rectangle) {
	if os.Getenv("OCR_DEBUG_SAVE_IMAGES") != "true" {
		return
	}
	name := fmt.Sprintf("debug_captured_region_%dx%d.png", rect.Dx(), rect.Dy())
	if err := os.WriteFile(name, data, 0o600); err != nil {
		log.Printf("OCR: could not save debug image: %v", err)
		return
	}
	log.Printf("OCR: saved captured region to %s (%d bytes)", name, len(data))
}
