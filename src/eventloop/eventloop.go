// Package eventloop is the single goroutine that owns the selection state machine. Pointer
// events, finished pipelines, CLI requests and settings reloads are all serialized through it.
package eventloop

import (
	"context"
	"image"
	"log"
	"sync"
	"time"

	"screen-translate/src/config"
	"screen-translate/src/dpi"
	"screen-translate/src/input"
	"screen-translate/src/pipeline"
	"screen-translate/src/selection"
	"screen-translate/src/singleinstance"
	"screen-translate/src/translate"
	"screen-translate/src/worker"
)

const (
	eventBuffer       = 64
	defaultJobTimeout = 60 * time.Second
	idleTooltip       = "Screen Translate"
)

// Overlay draws the rubber band while selecting.
type Overlay interface {
	Show(r dpi.LogicalRect)
	Hide()
}

// LogOverlay only logs; it stands in where no band is drawn.
type LogOverlay struct{}

func (LogOverlay) Show(r dpi.LogicalRect) {
	log.Printf("Overlay: %.0fx%.0f at (%.0f,%.0f)", r.Width, r.Height, r.Left, r.Top)
}

func (LogOverlay) Hide() {}

// Handler runs one capture to completion.
type Handler interface {
	Handle(ctx context.Context, req selection.CaptureRequest) pipeline.Result
}

// Translator answers delegated CLI requests.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) translate.Outcome
}

type Options struct {
	Config   *config.Config
	Resolver selection.ScaleResolver
	// Hider is usually the result surface.
	Hider   selection.Hider
	Overlay Overlay
	Handler Handler
	Pool    *worker.Pool
	// Server and Translator are optional; without them no CLI requests are served.
	Server     singleinstance.Server
	Translator Translator
	// OnReload runs on the loop goroutine after trigger and languages are updated.
	OnReload func(*config.Config)
	// Tooltip updates the tray; nil disables.
	Tooltip    func(string)
	JobTimeout time.Duration
}

// Loop serializes all state changes onto the goroutine running Run.
type Loop struct {
	opts    Options
	machine *selection.Machine

	events   chan input.PointerEvent
	finished chan pipeline.Result
	reloads  chan *config.Config
	stop     chan struct{}
	stopOnce sync.Once

	// Owned by the Run goroutine.
	ctx      context.Context
	inFlight int
	srcLang  string
	tgtLang  string
}

func New(opts Options) *Loop {
	if opts.Overlay == nil {
		opts.Overlay = LogOverlay{}
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = defaultJobTimeout
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	l := &Loop{
		opts:     opts,
		events:   make(chan input.PointerEvent, eventBuffer),
		finished: make(chan pipeline.Result, 8),
		reloads:  make(chan *config.Config, 1),
		stop:     make(chan struct{}),
		srcLang:  cfg.SourceLanguage,
		tgtLang:  cfg.TargetLanguage,
	}
	l.machine = selection.New(cfg.Trigger, cfg.SourceLanguage, cfg.TargetLanguage, opts.Resolver, opts.Hider, l)
	return l
}

// Post is the input subscriber. Moves are dropped when the loop falls behind; button events wait.
func (l *Loop) Post(ev input.PointerEvent) {
	if ev.Kind == input.Move || ev.Kind == input.Wheel {
		select {
		case l.events <- ev:
		default:
		}
		return
	}
	select {
	case l.events <- ev:
	case <-l.stop:
	}
}

// Reload hands new settings to the loop. A pending, unapplied reload is replaced.
func (l *Loop) Reload(cfg *config.Config) {
	for {
		select {
		case l.reloads <- cfg:
			return
		case <-l.stop:
			return
		default:
		}
		select {
		case <-l.reloads:
		default:
		}
	}
}

// Machine exposes the state machine for inspection.
func (l *Loop) Machine() *selection.Machine { return l.machine }

// Run blocks until ctx is cancelled. The server, when set, must already be started.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.stop) })
	l.ctx = ctx
	l.setTooltip()

	var conns chan singleinstance.Conn
	if l.opts.Server != nil && l.opts.Translator != nil {
		conns = make(chan singleinstance.Conn, 4)
		go l.accept(ctx, conns)
	}

	for {
		select {
		case <-ctx.Done():
			l.opts.Overlay.Hide()
			return ctx.Err()
		case ev := <-l.events:
			l.machine.Handle(ev)
		case res := <-l.finished:
			l.inFlight--
			log.Printf("EventLoop: pipeline finished: %s", res)
			l.setTooltip()
		case cfg := <-l.reloads:
			l.applyConfig(cfg)
		case conn, ok := <-conns:
			if !ok {
				conns = nil
				continue
			}
			l.serve(ctx, conn)
		}
	}
}

func (l *Loop) accept(ctx context.Context, out chan<- singleinstance.Conn) {
	defer close(out)
	for {
		conn, err := l.opts.Server.Next(ctx)
		if err != nil {
			return
		}
		select {
		case out <- conn:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

func (l *Loop) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	log.Printf("EventLoop: applying settings (trigger=%s, %s -> %s)", cfg.Trigger, cfg.SourceLanguage, cfg.TargetLanguage)
	l.machine.SetTrigger(cfg.Trigger)
	l.machine.SetLanguages(cfg.SourceLanguage, cfg.TargetLanguage)
	l.srcLang, l.tgtLang = cfg.SourceLanguage, cfg.TargetLanguage
	if l.opts.OnReload != nil {
		l.opts.OnReload(cfg)
	}
}

// serve translates a CLI request on the pool so the loop stays responsive.
func (l *Loop) serve(ctx context.Context, conn singleinstance.Conn) {
	req := conn.Request()
	from, to := req.From, req.To
	if from == "" {
		from = l.srcLang
	}
	if to == "" {
		to = l.tgtLang
	}
	jobCtx, cancel := context.WithTimeout(ctx, l.opts.JobTimeout)
	ok := l.opts.Pool.Submit(jobCtx, func(ctx context.Context) {
		defer cancel()
		defer conn.Close()
		out := l.opts.Translator.Translate(ctx, req.Text, from, to)
		var err error
		if out.OK() {
			err = conn.RespondSuccess(out.Text)
		} else {
			err = conn.RespondError(out.DisplayText())
		}
		if err != nil {
			log.Printf("EventLoop: failed to answer CLI request: %v", err)
		}
	})
	if !ok {
		cancel()
		_ = conn.RespondError("Busy, please retry")
		_ = conn.Close()
	}
}

func (l *Loop) setTooltip() {
	if l.opts.Tooltip == nil {
		return
	}
	if l.inFlight > 0 {
		l.opts.Tooltip("Screen Translate: translating...")
		return
	}
	l.opts.Tooltip(idleTooltip)
}

// selection.Listener, called on the Run goroutine.

func (l *Loop) SelectionStarted(start image.Point) {
	log.Printf("EventLoop: selection started at (%d,%d)", start.X, start.Y)
}

func (l *Loop) RectChanged(r dpi.LogicalRect) { l.opts.Overlay.Show(r) }

func (l *Loop) Cancelled() { l.opts.Overlay.Hide() }

func (l *Loop) Captured(req selection.CaptureRequest) {
	l.opts.Overlay.Hide()
	log.Printf("EventLoop: captured %v (%s -> %s)", req.Physical, req.SourceLanguage, req.TargetLanguage)

	ctx := l.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	jobCtx, cancel := context.WithTimeout(ctx, l.opts.JobTimeout)
	job := func(ctx context.Context) {
		defer cancel()
		res := l.handle(ctx, req)
		select {
		case l.finished <- res:
		case <-l.stop:
		}
	}
	if !l.opts.Pool.Submit(jobCtx, job) {
		log.Printf("EventLoop: worker queue full, running capture on its own goroutine")
		go job(jobCtx)
	}
	l.inFlight++
	l.setTooltip()
}

// handle always yields a result so inFlight is decremented even when the handler panics.
func (l *Loop) handle(ctx context.Context, req selection.CaptureRequest) (res pipeline.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("EventLoop: capture handler panicked: %v", r)
			res = pipeline.Result{Status: pipeline.StatusPanicked}
		}
	}()
	return l.opts.Handler.Handle(ctx, req)
}
