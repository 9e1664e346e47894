package ai

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// RetryPolicy bounds the attempts made against a single model. Delay grows
// as base×2^attempt plus random jitter up to base. Only transient-looking
// failures are retried.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) base() time.Duration {
	if p.BackoffBase <= 0 {
		return 500 * time.Millisecond
	}
	return p.BackoffBase
}

// IsTransient reports whether err looks like a temporary upstream condition
// (rate limiting or resource exhaustion) worth retrying. Missing credentials
// and malformed requests are not transient.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500 {
			return true
		}
		body := strings.ToUpper(apiErr.Body)
		return strings.Contains(body, "RESOURCE_EXHAUSTED") || strings.Contains(body, "RATE LIMIT")
	}
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "RATE LIMIT") ||
		strings.Contains(msg, "TIMEOUT") ||
		strings.Contains(msg, "CONNECTION RESET")
}

// GenerateWithRetry runs req under the policy, per-attempt. The context
// deadline still bounds each individual call through the client.
func GenerateWithRetry(ctx context.Context, client Client, req Request, policy RetryPolicy, log *slog.Logger) (string, error) {
	if log == nil {
		log = slog.Default()
	}
	var lastErr error
	for attempt := 0; attempt < policy.attempts(); attempt++ {
		if attempt > 0 {
			delay := policy.base()*(1<<uint(attempt-1)) + time.Duration(rand.Int63n(int64(policy.base())))
			log.Warn("model call retrying",
				"model", req.Model, "attempt", attempt+1, "delay_ms", delay.Milliseconds())
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
		out, err := client.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return "", err
		}
	}
	return "", lastErr
}
