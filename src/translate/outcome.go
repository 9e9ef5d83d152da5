package translate

import (
	"errors"
	"fmt"
)

// Kind classifies a translation outcome.
type Kind int

const (
	KindOK Kind = iota
	KindProviderError
	KindNetworkError
	KindConfigError
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindProviderError:
		return "provider_error"
	case KindNetworkError:
		return "network_error"
	case KindConfigError:
		return "config_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of one Translate call. Text is set only for KindOK; Code only for
// KindProviderError.
type Outcome struct {
	Kind    Kind
	Text    string
	Code    string
	Message string
	Hint    string
}

func (o Outcome) OK() bool { return o.Kind == KindOK }

// DisplayText is what the result surface shows for this outcome.
func (o Outcome) DisplayText() string {
	switch o.Kind {
	case KindOK:
		return o.Text
	case KindProviderError:
		msg := fmt.Sprintf("Translation error (code: %s): %s", o.Code, o.Message)
		if o.Hint != "" {
			msg += "\n\n" + o.Hint
		}
		return msg
	case KindNetworkError:
		return "Network request failed: " + o.Message
	default:
		return "Configuration error: " + o.Message
	}
}

// ErrConfig marks failures caused by settings rather than the network or the provider.
var ErrConfig = errors.New("configuration error")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// ProviderError is a well-formed response in which the provider reported a failure.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	// Hint is optional guidance appended to the user-facing message.
	Hint string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error %s: %s", e.Provider, e.Code, e.Message)
}
