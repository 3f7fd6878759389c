package translate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/spigell/profile-featurizer/internal/utils"
)

const defaultBackoff = 5 * time.Second

// RetryPolicy controls how transient translation failures are retried.
type RetryPolicy struct {
	// MaxRetries caps the number of retries after the first attempt.
	// Zero retries forever.
	MaxRetries int
	// Backoff is the fixed pause between attempts.
	Backoff time.Duration
}

// Retrying retries the wrapped translator on transient failures.
type Retrying struct {
	next   Translator
	policy RetryPolicy
	logger *zap.Logger
	wait   func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next with policy. A non-positive backoff falls back to 5s.
func NewRetrying(next Translator, policy RetryPolicy, logger *zap.Logger) *Retrying {
	if policy.Backoff <= 0 {
		policy.Backoff = defaultBackoff
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Retrying{
		next:   next,
		policy: policy,
		logger: logger,
		wait:   utils.WaitFor,
	}
}

func (r *Retrying) Translate(ctx context.Context, text string, target language.Tag) (string, error) {
	for attempt := 1; ; attempt++ {
		out, err := r.next.Translate(ctx, text, target)
		if err == nil {
			return out, nil
		}

		if !IsTransient(err) {
			return "", err
		}

		if r.policy.MaxRetries > 0 && attempt > r.policy.MaxRetries {
			return "", fmt.Errorf("%w after %d attempts: %v", ErrUnavailable, attempt, err)
		}

		r.logger.Warn("translation failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", r.policy.MaxRetries),
			zap.Duration("backoff", r.policy.Backoff),
			zap.Error(err),
		)

		if err := r.wait(ctx, r.policy.Backoff); err != nil {
			return "", err
		}
	}
}
