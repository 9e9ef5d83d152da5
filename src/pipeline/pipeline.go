// Package pipeline runs one capture through OCR, translation, display, history and clipboard.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"screen-translate/src/display"
	"screen-translate/src/dpi"
	"screen-translate/src/history"
	"screen-translate/src/logutil"
	"screen-translate/src/selection"
	"screen-translate/src/translate"
)

// Recognizer extracts text from a physical screen rectangle. It returns "" when nothing is found.
type Recognizer interface {
	RecognizeText(ctx context.Context, rect image.Rectangle, languageHint string) string
}

// Translator resolves every call to an Outcome.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) translate.Outcome
	ProviderName() string
}

type HistoryWriter interface {
	AddRecord(ctx context.Context, r history.Record) error
}

type Clipboard interface {
	Write(text string) error
}

// WorkAreaFunc returns the usable desktop area, in physical pixels, of the monitor containing p.
type WorkAreaFunc func(p image.Point) (image.Rectangle, error)

type Options struct {
	Recognizer Recognizer
	Translator Translator
	Surface    display.Surface
	// History and Clipboard are optional.
	History   HistoryWriter
	Clipboard Clipboard
	WorkArea  WorkAreaFunc
	// CopyToClipboard copies successful translations when Clipboard is set.
	CopyToClipboard bool
	Now             func() time.Time
}

// Status is how a pipeline run ended.
type Status int

const (
	StatusTranslated Status = iota
	StatusNoText
	StatusFailed
	StatusPanicked
)

func (s Status) String() string {
	switch s {
	case StatusTranslated:
		return "translated"
	case StatusNoText:
		return "no-text"
	case StatusFailed:
		return "failed"
	default:
		return "panicked"
	}
}

// Result describes a finished run, mainly for logging and tests.
type Result struct {
	Status     Status
	Recognized string
	Outcome    translate.Outcome
	Shown      string
}

// Orchestrator is safe for concurrent use; the last run to finish owns the surface.
type Orchestrator struct {
	opts    Options
	copyOn  atomic.Bool
	showMu  sync.Mutex
	surface display.Surface
}

func New(opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	o := &Orchestrator{opts: opts, surface: opts.Surface}
	o.copyOn.Store(opts.CopyToClipboard)
	return o
}

// SetCopyToClipboard applies to runs that finish after the call.
func (o *Orchestrator) SetCopyToClipboard(on bool) { o.copyOn.Store(on) }

// Handle never panics; failures end up on the surface as text.
func (o *Orchestrator) Handle(ctx context.Context, req selection.CaptureRequest) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Pipeline: recovered panic: %v\n%s", r, debug.Stack())
			res = Result{Status: StatusPanicked, Shown: display.ProcessingFailed}
			o.showSafe(req, display.ProcessingFailed)
		}
	}()

	start := time.Now()
	text := o.opts.Recognizer.RecognizeText(ctx, req.Physical, req.SourceLanguage)
	if strings.TrimSpace(text) == "" {
		log.Printf("Pipeline: no text recognized in %v", req.Physical)
		o.show(req, display.NoTextFound)
		return Result{Status: StatusNoText, Shown: display.NoTextFound}
	}
	log.Printf("Pipeline: recognized %q in %v", logutil.Sanitize(text, 80), time.Since(start).Round(time.Millisecond))

	out := o.opts.Translator.Translate(ctx, text, req.SourceLanguage, req.TargetLanguage)
	shown := out.DisplayText()
	o.show(req, shown)
	if !out.OK() {
		log.Printf("Pipeline: translation failed (%s): %s", out.Kind, logutil.Sanitize(shown, 200))
		return Result{Status: StatusFailed, Recognized: text, Outcome: out, Shown: shown}
	}

	o.record(ctx, req, text, out.Text)
	o.copy(out.Text)
	log.Printf("Pipeline: done in %v", time.Since(start).Round(time.Millisecond))
	return Result{Status: StatusTranslated, Recognized: text, Outcome: out, Shown: shown}
}

func (o *Orchestrator) record(ctx context.Context, req selection.CaptureRequest, original, translated string) {
	if o.opts.History == nil {
		return
	}
	rec := history.Record{
		Original:   original,
		Translated: translated,
		Provider:   o.opts.Translator.ProviderName(),
		SourceLang: req.SourceLanguage,
		TargetLang: req.TargetLanguage,
		Timestamp:  o.opts.Now(),
	}
	if err := o.opts.History.AddRecord(ctx, rec); err != nil {
		log.Printf("Pipeline: failed to save history: %v", err)
	}
}

func (o *Orchestrator) copy(text string) {
	if o.opts.Clipboard == nil || !o.copyOn.Load() {
		return
	}
	if err := o.opts.Clipboard.Write(text); err != nil {
		log.Printf("Pipeline: clipboard write failed: %v", err)
	}
}

// showSafe is used from the recover path, where show itself may be what panicked.
func (o *Orchestrator) showSafe(req selection.CaptureRequest, text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Pipeline: failed to show error: %v", r)
		}
	}()
	o.show(req, text)
}

func (o *Orchestrator) show(req selection.CaptureRequest, text string) {
	o.showMu.Lock()
	defer o.showMu.Unlock()

	s := o.surface
	s.SetResultText(text)
	scale := req.Scale
	if !scale.Valid() {
		scale = dpi.Identity
	}
	if sc, ok := s.(display.Scaled); ok {
		sc.SetScale(scale)
	}
	w, h := s.Size()
	left, top := display.Place(req.Logical, w, h, o.workArea(req, scale))
	s.SetPosition(left, top)
	s.ShowAndAutoHide()
}

func (o *Orchestrator) workArea(req selection.CaptureRequest, scale dpi.Scale) dpi.LogicalRect {
	if o.opts.WorkArea != nil {
		if r, err := o.opts.WorkArea(req.Physical.Min); err == nil && !r.Empty() {
			return scale.ToLogical(r)
		} else if err != nil {
			log.Printf("Pipeline: work area lookup failed: %v", err)
		}
	}
	// Unbounded area: only the left/top clamps apply.
	return dpi.LogicalRect{Width: 1 << 20, Height: 1 << 20}
}

// String is used in log lines.
func (r Result) String() string {
	return fmt.Sprintf("%s (%d chars shown)", r.Status, len(r.Shown))
}
