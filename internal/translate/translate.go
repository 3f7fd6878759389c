package translate

import (
	"context"
	"errors"
	"net"
	"net/http"

	"golang.org/x/text/language"
	"google.golang.org/genai"
)

// ErrUnavailable is returned once the retry budget for a transient
// translation failure is exhausted.
var ErrUnavailable = errors.New("translation service unavailable")

// Translator translates text into the target language.
type Translator interface {
	Translate(ctx context.Context, text string, target language.Tag) (string, error)
}

// Func adapts a function to the Translator interface.
type Func func(ctx context.Context, text string, target language.Tag) (string, error)

func (f Func) Translate(ctx context.Context, text string, target language.Tag) (string, error) {
	return f(ctx, text, target)
}

// Identity returns text unchanged. Used when translation is disabled.
type Identity struct{}

func (Identity) Translate(_ context.Context, text string, _ language.Tag) (string, error) {
	return text, nil
}

// TransientError marks an error as worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a temporary failure of the remote service.
// Cancellation of the caller's context is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
