package translate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"screen-translate/src/config"
	"screen-translate/src/llm"
	"screen-translate/src/retry"
)

var openRouterLanguages = newLanguageTable("auto", "zh",
	[]string{
		"auto", "zh", "zh-TW", "en", "ja", "ko", "fr", "es", "it", "de", "ru", "pt", "vi", "th", "ar", "nl",
		"pl", "tr", "uk", "id", "hi",
	},
	map[string]string{
		"zh-cn":   "zh",
		"zh_cn":   "zh",
		"cn":      "zh",
		"zh-hans": "zh",
		"zh_tw":   "zh-TW",
		"tw":      "zh-TW",
		"zh-hant": "zh-TW",
		"cht":     "zh-TW",
		"jp":      "ja",
		"kor":     "ko",
		"fra":     "fr",
		"spa":     "es",
		"ara":     "ar",
		"vie":     "vi",
	},
)

var languageNames = map[string]string{
	"zh":    "Simplified Chinese",
	"zh-TW": "Traditional Chinese",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// OpenRouter translates through a chat-completions model authenticated with a bearer key.
type OpenRouter struct {
	creds  config.OpenRouterCredentials
	client *llm.Client
}

func NewOpenRouter(creds config.OpenRouterCredentials, transport http.RoundTripper) *OpenRouter {
	return &OpenRouter{
		creds: creds,
		client: llm.New(llm.Config{
			APIKey:    creds.APIKey,
			Model:     creds.Model,
			Providers: creds.Providers,
			Transport: transport,
		}),
	}
}

func (o *OpenRouter) Name() string              { return config.EngineOpenRouter }
func (o *OpenRouter) Languages() *LanguageTable { return openRouterLanguages }

func (o *OpenRouter) CheckCredentials() error {
	if err := o.client.Ready(); err != nil {
		return configErrorf("OpenRouter %v", err)
	}
	return nil
}

func (o *OpenRouter) Translate(ctx context.Context, q Query) (string, error) {
	system := "You are a translation engine. Translate the user's text into " + languageName(q.Target)
	if q.Source != openRouterLanguages.Auto {
		system += " from " + languageName(q.Source)
	}
	system += ". Reply with the translation only, without quotes, notes or explanations."

	out, err := o.client.Chat(ctx, system, q.Text)
	if err != nil {
		var apiErr *llm.APIError
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: config.EngineOpenRouter, Code: apiErr.CodeString(), Message: apiErr.Message}
		}
		if retry.IsTransient(err) {
			return "", err
		}
		return "", &ProviderError{Provider: config.EngineOpenRouter, Code: "invalid_response", Message: err.Error()}
	}
	if strings.TrimSpace(out) == "" {
		return "", &ProviderError{Provider: config.EngineOpenRouter, Code: "empty_result", Message: "model returned no content"}
	}
	return out, nil
}
