package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"screen-translate/src/cache"
	"screen-translate/src/clipboard"
	"screen-translate/src/config"
	"screen-translate/src/display"
	"screen-translate/src/dpi"
	"screen-translate/src/eventloop"
	"screen-translate/src/history"
	"screen-translate/src/input"
	"screen-translate/src/logutil"
	"screen-translate/src/notification"
	"screen-translate/src/ocr"
	"screen-translate/src/pipeline"
	"screen-translate/src/singleinstance"
	"screen-translate/src/translate"
	"screen-translate/src/tray"
	"screen-translate/src/worker"
)

const appTitle = "Screen Translate"

type mainOptions struct {
	settingsPath string
	verbose      bool
}

func main() {
	// The tray's message loop must own the main thread.
	runtime.LockOSThread()

	opts := &mainOptions{}
	cmd := newRootCmd(opts, runResident)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions, run func(*mainOptions) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-translate",
		Short:         "Drag over any text on screen to translate it",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVar(&opts.settingsPath, "settings", "", "Path to settings.toml")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Mirror logs to stderr")
	return cmd
}

func runResident(opts *mainOptions) error {
	dpi.EnableAwareness()

	loadOpts := config.LoadOptions{SettingsPathOverride: opts.settingsPath}
	cfg, err := config.LoadWithOptions(loadOpts)
	if err != nil {
		notification.ShowBlockingError(appTitle, fmt.Sprintf("Failed to load settings: %v", err))
		return err
	}
	logutil.Setup(filepath.Dir(cfg.SettingsPath), cfg.EnableFileLogging, opts.verbose)
	log.Printf("%s starting: engine=%s ocr=%s trigger=%s %s -> %s", appTitle,
		cfg.Engine, cfg.OCREngine, cfg.Trigger, cfg.SourceLanguage, cfg.TargetLanguage)
	log.Printf("Credentials: baidu=%s tencent=%s openrouter=%s", logutil.RedactKey(cfg.Baidu.AppID),
		logutil.RedactKey(cfg.Tencent.SecretID), logutil.RedactKey(cfg.OpenRouter.APIKey))
	if err := cfg.Validate(); err != nil {
		// Not fatal: each capture reports the problem until the settings are fixed.
		log.Printf("Settings incomplete: %v", err)
		notification.ShowBlockingError(appTitle, fmt.Sprintf("Settings are incomplete:\n\n%v\n\nEdit %s; changes apply without a restart.", err, cfg.SettingsPath))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := singleinstance.NewServer()
	if err := srv.Start(ctx); err != nil {
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			notification.ShowBlockingError(appTitle, "Screen Translate is already running.")
		}
		return err
	}
	defer srv.Close()

	provider, err := translate.ProviderFor(cfg, nil)
	if err != nil {
		log.Printf("Translation engine unavailable: %v; falling back to %s", err, config.EngineBaidu)
		provider = translate.NewBaidu(cfg.Baidu, nil)
	}
	results := cache.New(cache.Options{})
	dispatcher := translate.NewDispatcher(provider, translate.Options{Cache: results, DefaultTarget: cfg.TargetLanguage})

	surface := display.NewSurface(cfg.Theme)
	store := openHistory(cfg.HistoryDB)
	if store != nil {
		defer store.Close()
	}

	orch := pipeline.New(pipeline.Options{
		Recognizer:      ocr.New(cfg),
		Translator:      dispatcher,
		Surface:         surface,
		History:         historyWriter(store),
		Clipboard:       clipboard.New(),
		WorkArea:        display.WorkArea,
		CopyToClipboard: cfg.CopyToClipboard,
	})
	pool := worker.New(0, 0)
	defer pool.Close()

	trayIcon := tray.New(tray.Config{
		Title:        appTitle,
		Tooltip:      appTitle,
		OnClearCache: dispatcher.ClearCache,
		OnClearHistory: func() {
			if store == nil {
				return
			}
			if err := store.ClearHistory(ctx); err != nil {
				log.Printf("Failed to clear history: %v", err)
			}
		},
		OnQuit: cancel,
	})

	loop := eventloop.New(eventloop.Options{
		Config:     cfg,
		Resolver:   dpi.NewResolver(nil),
		Hider:      surface,
		Overlay:    eventloop.LogOverlay{},
		Handler:    orch,
		Pool:       pool,
		Server:     srv,
		Translator: dispatcher,
		Tooltip:    trayIcon.SetTooltip,
		OnReload: func(c *config.Config) {
			applySettings(c, dispatcher, orch, surface)
		},
	})

	lifecycle := input.NewLifecycle(input.NewMonitor())
	release, err := lifecycle.Acquire()
	if err != nil {
		notification.ShowBlockingError(appTitle, fmt.Sprintf("Failed to install the pointer hook: %v", err))
		return err
	}
	defer release()
	unsubscribe := lifecycle.Source().Subscribe(loop.Post)
	defer unsubscribe()

	go func() {
		if err := config.Watch(ctx, loadOpts, loop.Reload); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Settings hot reload disabled: %v", err)
		}
	}()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Run(ctx)
		trayIcon.Quit()
	}()

	log.Printf("%s ready on 127.0.0.1:%d", appTitle, srv.Port())
	trayIcon.Run()
	cancel()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("%s stopped", appTitle)
	return nil
}

func openHistory(path string) *history.SQLiteStore {
	store, err := history.Open(path)
	if err != nil {
		log.Printf("History disabled: %v", err)
		return nil
	}
	return store
}

// historyWriter keeps a nil store from becoming a non-nil interface.
func historyWriter(store *history.SQLiteStore) pipeline.HistoryWriter {
	if store == nil {
		return nil
	}
	return store
}

type themed interface {
	SetTheme(theme string)
}

// applySettings pushes reloaded settings into the long-lived components. The OCR engine
// and history location are fixed for the process lifetime.
func applySettings(cfg *config.Config, d *translate.Dispatcher, orch *pipeline.Orchestrator, surface display.Surface) {
	// Rebuilt even for the same engine since credentials may have changed.
	if p, err := translate.ProviderFor(cfg, nil); err != nil {
		log.Printf("Reload: keeping %s: %v", d.ProviderName(), err)
	} else {
		d.SetProvider(p)
	}
	d.SetDefaultTarget(cfg.TargetLanguage)
	orch.SetCopyToClipboard(cfg.CopyToClipboard)
	if t, ok := surface.(themed); ok {
		t.SetTheme(cfg.Theme)
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("Reload: settings incomplete: %v", err)
	}
}
