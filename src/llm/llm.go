// Package llm is a small OpenRouter chat-completions client used for vision OCR and
// for LLM-backed translation.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"screen-translate/src/retry"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	requestTimeout = 45 * time.Second
	noTextMarker   = "NO_TEXT_FOUND"
)

// ErrNoText is returned by QueryVision when the model reports an empty image.
var ErrNoText = errors.New("no text detected in image")

type Config struct {
	APIKey    string
	Model     string
	Providers []string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Transport replaces the HTTP transport; tests use it to fake the network.
	Transport http.RoundTripper
}

// OpenRouter API structures
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ProviderPreferences struct {
	Order          []string `json:"order,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type ChatRequest struct {
	Model       string               `json:"model"`
	Messages    []Message            `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Provider    *ProviderPreferences `json:"provider,omitempty"`
}

type ChatResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Message ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Content string `json:"content"`
}

// APIError is the error object OpenRouter returns in the response body.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"` // string or number
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (type: %s, code: %v)", e.Message, e.Type, e.Code)
}

// CodeString renders Code regardless of its JSON type.
func (e *APIError) CodeString() string {
	switch c := e.Code.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.0f", c)
	default:
		return fmt.Sprint(c)
	}
}

type Client struct {
	cfg  Config
	http *resty.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	c := resty.New().SetTimeout(requestTimeout)
	if cfg.Transport != nil {
		c.SetTransport(cfg.Transport)
	}
	return &Client{cfg: cfg, http: c}
}

// Ready reports whether the client has the settings it needs to make calls.
func (c *Client) Ready() error {
	if c.cfg.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.cfg.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

func (c *Client) providerPreferences() *ProviderPreferences {
	if len(c.cfg.Providers) == 0 {
		return nil
	}
	allowFallbacks := false
	return &ProviderPreferences{Order: c.cfg.Providers, AllowFallbacks: &allowFallbacks}
}

// Complete sends one chat-completions request. Transport failures and 5xx responses without an
// error body are marked retry.Transient; an error body is returned as *APIError.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.cfg.Model
	}
	if req.Provider == nil {
		req.Provider = c.providerPreferences()
	}

	var out ChatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://github.com/screen-translate/screen-translate").
		SetHeader("X-Title", "Screen Translate").
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post(strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions")
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("API request failed: %w", err))
	}
	if out.Error != nil {
		return nil, out.Error
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return nil, retry.Transient(fmt.Errorf("API returned status %d", resp.StatusCode()))
	}
	if resp.IsError() {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode())
	}
	return &out, nil
}

// QueryVision sends a PNG image to the vision model and returns the recognized text.
func (c *Client) QueryVision(ctx context.Context, png []byte) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}

	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	req := ChatRequest{
		Messages: []Message{{
			Role: "user",
			Content: []Content{
				{
					Type: "text",
					Text: "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
						"- No formatting\n" +
						"- No XML/HTML tags\n" +
						"- No markdown\n" +
						"- No explanations\n" +
						"- Preserve line breaks accurately from the visual layout.\n" +
						"If no text found, return '" + noTextMarker + "'",
				},
				{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
			},
		}},
		Temperature: 0.1,
		MaxTokens:   2000,
	}

	var text string
	err := retry.Do(ctx, retry.Default, nil, func(ctx context.Context, attempt int) error {
		resp, err := c.Complete(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return retry.Transient(fmt.Errorf("no choices in API response"))
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}

	text = cleanExtractedText(text)
	if strings.TrimSpace(text) == "" || strings.TrimSpace(text) == noTextMarker {
		return "", ErrNoText
	}
	return text, nil
}

// Chat sends a system/user prompt pair and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	req := ChatRequest{
		Messages: []Message{
			{Role: "system", Content: []Content{{Type: "text", Text: system}}},
			{Role: "user", Content: []Content{{Type: "text", Text: user}}},
		},
		Temperature: 0.2,
		MaxTokens:   2000,
	}
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in API response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func cleanExtractedText(text string) string {
	text = strings.TrimSpace(text)
	if text == "</image>" {
		return ""
	}
	return strings.TrimSuffix(text, "</image>")
}
