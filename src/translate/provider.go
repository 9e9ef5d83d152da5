package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"screen-translate/src/config"
	"screen-translate/src/retry"
)

const requestTimeout = 15 * time.Second

// Query is a normalized request: single-line text and native language codes.
type Query struct {
	Text   string
	Source string
	Target string
}

// Provider is one translation backend. Translate returns *ProviderError for application
// failures, an error wrapping ErrConfig for bad settings, and retry.Transient errors for
// transport failures.
type Provider interface {
	Name() string
	Languages() *LanguageTable
	CheckCredentials() error
	Translate(ctx context.Context, q Query) (string, error)
}

// ProviderFor builds the provider selected by cfg.Engine. transport may be nil.
func ProviderFor(cfg *config.Config, transport http.RoundTripper) (Provider, error) {
	switch strings.ToLower(cfg.Engine) {
	case config.EngineBaidu, "":
		return NewBaidu(cfg.Baidu, transport), nil
	case config.EngineTencent:
		return NewTencent(cfg.Tencent, transport), nil
	case config.EngineOpenRouter:
		return NewOpenRouter(cfg.OpenRouter, transport), nil
	default:
		return nil, configErrorf("unknown translation engine %q", cfg.Engine)
	}
}

// TranslateVia runs one provider request after checking its credentials.
func TranslateVia(ctx context.Context, p Provider, q Query) (string, error) {
	if err := p.CheckCredentials(); err != nil {
		return "", err
	}
	return p.Translate(ctx, q)
}

func newHTTPClient(transport http.RoundTripper) *resty.Client {
	c := resty.New().SetTimeout(requestTimeout)
	if transport != nil {
		c.SetTransport(transport)
	}
	return c
}

// classifyStatus handles an error status that carried no provider error body: 5xx is transient.
func classifyStatus(provider string, resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusInternalServerError {
		return retry.Transient(fmt.Errorf("%s returned status %d", provider, resp.StatusCode()))
	}
	return &ProviderError{
		Provider: provider,
		Code:     fmt.Sprintf("http_%d", resp.StatusCode()),
		Message:  http.StatusText(resp.StatusCode()),
	}
}
