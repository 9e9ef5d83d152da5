package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-translate/src/cache"
	"screen-translate/src/config"
	"screen-translate/src/history"
	"screen-translate/src/logutil"
	"screen-translate/src/ocr"
	"screen-translate/src/singleinstance"
	"screen-translate/src/translate"
)

const (
	maxFileSizeMB   = 10
	maxFileSize     = maxFileSizeMB * 1024 * 1024
	delegateTimeout = 30 * time.Second
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// app carries the CLI's I/O and collaborators so tests can replace them.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	settingsPath string
	verbose      bool

	newClient func() singleinstance.Client
	transport http.RoundTripper
}

func main() {
	a := &app{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		newClient: singleinstance.NewClient,
	}
	if err := a.run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(args []string) error {
	cmd := a.newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	return cmd.Execute()
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "screen-translate-cli",
		Short:         "Translate text, OCR images and manage translation history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				log.SetOutput(a.stderr)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output to stderr")
	root.PersistentFlags().StringVar(&a.settingsPath, "settings", "", "Path to settings.toml")

	root.AddCommand(a.newTranslateCmd(), a.newOCRCmd(), a.newHistoryCmd())
	return root
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{SettingsPathOverride: a.settingsPath})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func (a *app) verbosef(format string, args ...any) {
	if a.verbose {
		fmt.Fprintf(a.stderr, "[verbose] "+format+"\n", args...)
	}
}

type translateOptions struct {
	from       string
	to         string
	engine     string
	jsonOutput bool
	noDelegate bool
}

// TranslationResult is the --json output of translate and ocr.
type TranslationResult struct {
	Text        string  `json:"text"`
	Translation string  `json:"translation,omitempty"`
	Source      string  `json:"source,omitempty"`
	Target      string  `json:"target,omitempty"`
	Provider    string  `json:"provider,omitempty"`
	Delegated   bool    `json:"delegated"`
	Timestamp   string  `json:"timestamp"`
	Duration    float64 `json:"duration_seconds"`
}

func (a *app) newTranslateCmd() *cobra.Command {
	opts := &translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text given as arguments or on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("failed to read from stdin: %w", err)
				}
				text = string(data)
			}
			return a.translate(cmd.Context(), text, *opts)
		},
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "Source language (default from settings)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Target language (default from settings)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "Translation engine: baidu, tencent or openrouter (skips the resident)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.noDelegate, "no-delegate", false, "Never hand the request to a running resident")
	return cmd
}

func (a *app) translate(ctx context.Context, text string, opts translateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("nothing to translate")
	}
	start := time.Now()

	if opts.engine == "" && !opts.noDelegate {
		dctx, cancel := context.WithTimeout(ctx, delegateTimeout)
		delegated, translated, err := a.newClient().Translate(dctx, singleinstance.Request{Text: text, From: opts.from, To: opts.to})
		cancel()
		if delegated {
			if err != nil {
				return err
			}
			a.verbosef("Translated by resident in %v", time.Since(start))
			return a.output(opts.jsonOutput, TranslationResult{
				Text: text, Translation: translated, Source: opts.from, Target: opts.to,
				Delegated: true, Duration: time.Since(start).Seconds(),
			})
		}
		a.verbosef("No resident detected, translating standalone")
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if opts.engine != "" {
		cfg.Engine = strings.ToLower(opts.engine)
	}
	source, target := firstNonEmpty(opts.from, cfg.SourceLanguage), firstNonEmpty(opts.to, cfg.TargetLanguage)

	d, err := a.dispatcher(cfg)
	if err != nil {
		return err
	}
	a.verbosef("Engine=%s, %s -> %s", d.ProviderName(), source, target)
	a.verbosef("Effective API key path: %s (key %s)", cfg.APIKeyPath, logutil.RedactKey(cfg.OpenRouter.APIKey))
	out := d.Translate(ctx, text, source, target)
	if !out.OK() {
		return fmt.Errorf("%s", out.DisplayText())
	}
	return a.output(opts.jsonOutput, TranslationResult{
		Text: text, Translation: out.Text, Source: source, Target: target,
		Provider: d.ProviderName(), Duration: time.Since(start).Seconds(),
	})
}

func (a *app) dispatcher(cfg *config.Config) (*translate.Dispatcher, error) {
	provider, err := translate.ProviderFor(cfg, a.transport)
	if err != nil {
		return nil, err
	}
	return translate.NewDispatcher(provider, translate.Options{
		Cache:         cache.New(cache.Options{}),
		DefaultTarget: cfg.TargetLanguage,
	}), nil
}

func (a *app) output(jsonOutput bool, res TranslationResult) error {
	if !jsonOutput {
		out := res.Translation
		if out == "" {
			out = res.Text
		}
		_, err := fmt.Fprintln(a.stdout, out)
		return err
	}
	res.Timestamp = time.Now().UTC().Format(time.RFC3339)
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

type ocrOptions struct {
	filePath   string
	translate  bool
	to         string
	jsonOutput bool
}

func (a *app) newOCRCmd() *cobra.Command {
	opts := &ocrOptions{}
	cmd := &cobra.Command{
		Use:   "ocr",
		Short: "Recognize text in a PNG image with the configured OCR engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ocr(cmd.Context(), *opts)
		},
	}
	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.translate, "translate", false, "Translate the recognized text")
	cmd.Flags().StringVar(&opts.to, "to", "", "Target language when translating")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) ocr(ctx context.Context, opts ocrOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	img, err := a.readPNG(opts.filePath)
	if err != nil {
		return err
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	start := time.Now()
	engine := ocr.NewWithCapture(cfg, func(image.Rectangle) (image.Image, error) { return img, nil })
	text := engine.RecognizeText(ctx, img.Bounds(), cfg.SourceLanguage)
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text found in %s", opts.filePath)
	}
	a.verbosef("OCR (%s) extracted %d characters in %v", cfg.OCREngine, len(text), time.Since(start))

	res := TranslationResult{Text: text, Source: cfg.SourceLanguage}
	if opts.translate {
		target := firstNonEmpty(opts.to, cfg.TargetLanguage)
		d, err := a.dispatcher(cfg)
		if err != nil {
			return err
		}
		out := d.Translate(ctx, text, cfg.SourceLanguage, target)
		if !out.OK() {
			return fmt.Errorf("%s", out.DisplayText())
		}
		res.Translation, res.Target, res.Provider = out.Text, target, d.ProviderName()
	}
	res.Duration = time.Since(start).Seconds()
	return a.output(opts.jsonOutput, res)
}

func (a *app) readPNG(filePath string) (image.Image, error) {
	var (
		data []byte
		err  error
	)
	if filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(a.stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return nil, fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}
	return img, nil
}

func (a *app) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or edit saved translations",
	}

	var limit int
	var jsonOutput bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved translations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *history.SQLiteStore) error {
				records, err := s.GetHistory(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					enc := json.NewEncoder(a.stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(records)
				}
				for _, r := range records {
					fmt.Fprintf(a.stdout, "%d\t%s\t%s\t%s\n", r.ID, r.Timestamp.Local().Format("2006-01-02 15:04:05"),
						logutil.Sanitize(r.Original, 60), logutil.Sanitize(r.Translated, 60))
				}
				return nil
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum number of records (0 for all)")
	list.Flags().BoolVar(&jsonOutput, "json", false, "Output records as JSON")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one saved translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return a.withStore(func(s *history.SQLiteStore) error {
				return s.DeleteRecord(cmd.Context(), id)
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *history.SQLiteStore) error {
				if err := s.ClearHistory(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, "History cleared")
				return nil
			})
		},
	}

	cmd.AddCommand(list, del, clearCmd)
	return cmd
}

func (a *app) withStore(fn func(*history.SQLiteStore) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.verbosef("History database: %s", cfg.HistoryDB)
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
