// Package translate turns recognized text into a translation through one of a closed set of
// providers, with caching and retry of transport failures.
package translate

import (
	"context"
	"errors"
	"html"
	"log"
	"strings"
	"sync"

	"screen-translate/src/cache"
	"screen-translate/src/retry"
)

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// CollapseNewlines replaces every line break with a single space.
func CollapseNewlines(s string) string {
	return newlineReplacer.Replace(s)
}

type Options struct {
	// Cache may be shared between dispatchers; nil disables caching.
	Cache *cache.Cache
	// Policy defaults to retry.Default.
	Policy retry.Policy
	// Sleep defaults to retry.Sleep.
	Sleep retry.Sleeper
	// DefaultTarget is used when a requested target is not recognized.
	DefaultTarget string
}

type Dispatcher struct {
	mu       sync.RWMutex
	provider Provider
	opts     Options
}

func NewDispatcher(p Provider, opts Options) *Dispatcher {
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = retry.Default
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Sleep
	}
	return &Dispatcher{provider: p, opts: opts}
}

// SetProvider swaps the active provider; in-flight calls keep the one they started with.
func (d *Dispatcher) SetProvider(p Provider) {
	d.mu.Lock()
	d.provider = p
	d.mu.Unlock()
}

func (d *Dispatcher) SetDefaultTarget(code string) {
	d.mu.Lock()
	d.opts.DefaultTarget = code
	d.mu.Unlock()
}

func (d *Dispatcher) Provider() Provider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.provider
}

// ProviderName is the active provider's name, or "" when none is set.
func (d *Dispatcher) ProviderName() string {
	if p := d.Provider(); p != nil {
		return p.Name()
	}
	return ""
}

// ClearCache empties the shared result cache, if any.
func (d *Dispatcher) ClearCache() {
	if d.opts.Cache != nil {
		d.opts.Cache.Clear()
	}
}

// Translate never returns an error; every failure is described by the Outcome.
func (d *Dispatcher) Translate(ctx context.Context, text, source, target string) Outcome {
	if strings.TrimSpace(text) == "" {
		return Outcome{Kind: KindConfigError, Message: "text to translate is empty"}
	}

	d.mu.RLock()
	p := d.provider
	defaultTarget := d.opts.DefaultTarget
	d.mu.RUnlock()
	if p == nil {
		return Outcome{Kind: KindConfigError, Message: "no translation engine configured"}
	}

	langs := p.Languages()
	q := Query{
		Text:   CollapseNewlines(text),
		Source: langs.Normalize(source, langs.Auto),
		Target: langs.Normalize(target, langs.Normalize(defaultTarget, langs.DefaultTarget)),
	}
	if q.Target == langs.Auto {
		return Outcome{Kind: KindConfigError, Message: "target language cannot be auto-detect"}
	}
	if err := p.CheckCredentials(); err != nil {
		return outcomeFromError(err)
	}

	key := cache.NewKey(p.Name(), q.Text, q.Source, q.Target)
	if d.opts.Cache != nil {
		if hit, ok := d.opts.Cache.Lookup(key); ok {
			log.Printf("Dispatcher: cache hit (%s %s->%s)", p.Name(), q.Source, q.Target)
			return Outcome{Kind: KindOK, Text: hit}
		}
	}

	var result string
	err := retry.Do(ctx, d.opts.Policy, d.opts.Sleep, func(ctx context.Context, attempt int) error {
		out, err := TranslateVia(ctx, p, q)
		if err != nil {
			if retry.IsTransient(err) {
				log.Printf("Dispatcher: %s attempt %d failed: %v", p.Name(), attempt, err)
			}
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		log.Printf("Dispatcher: %s translation failed: %v", p.Name(), err)
		return outcomeFromError(err)
	}

	result = html.UnescapeString(result)
	if d.opts.Cache != nil {
		d.opts.Cache.Insert(key, result)
	}
	return Outcome{Kind: KindOK, Text: result}
}

func outcomeFromError(err error) Outcome {
	var pe *ProviderError
	switch {
	case errors.As(err, &pe):
		return Outcome{Kind: KindProviderError, Code: pe.Code, Message: pe.Message, Hint: pe.Hint}
	case errors.Is(err, ErrConfig):
		return Outcome{Kind: KindConfigError, Message: strings.TrimPrefix(err.Error(), ErrConfig.Error()+": ")}
	default:
		return Outcome{Kind: KindNetworkError, Message: err.Error()}
	}
}
