package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/alarmhound/internal/logging"
)

// FailoverClient tries a chain of providers in order, moving on only when an
// error looks transient.
type FailoverClient struct {
	clients []Client
	log     *logging.Logger
}

// NewFailoverClient creates a client that tries primary first, then each
// fallback on retryable errors (401, 429, 5xx).
func NewFailoverClient(log *logging.Logger, primary Client, fallbacks ...Client) *FailoverClient {
	return &FailoverClient{
		clients: append([]Client{primary}, fallbacks...),
		log:     log.Sub("failover"),
	}
}

// Name returns the primary provider's name.
func (f *FailoverClient) Name() string { return f.clients[0].Name() }

// Converse tries each provider, falling back on retryable errors.
func (f *FailoverClient) Converse(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for i, client := range f.clients {
		resp, err := client.Converse(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if isRetryable(err) && i < len(f.clients)-1 {
			f.log.Warn().
				Str("provider", client.Name()).
				Err(err).
				Msg("retryable error, trying next provider")
			continue
		}
		return nil, err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured")
	}
	return nil, lastErr
}

// isRetryable checks if the error suggests trying another provider.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, context.Canceled) {
		return false
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case 401, 403, 429, 500, 502, 503, 529:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "throttl") ||
		strings.Contains(msg, "capacity") ||
		strings.Contains(msg, "timeout")
}
