package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Backoff controls retry behaviour for transient failures.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used when a provider does not configure retries.
var DefaultBackoff = Backoff{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     10 * time.Second,
}

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
)

// DoWithResilience executes an HTTP request with bounded retries,
// exponential backoff, and a circuit breaker. Transient conditions
// (connection errors, timeouts, 429, 5xx) are retried up to
// backoff.MaxRetries and then surface as *TransientError; 401/403
// surface as *AuthError, other non-2xx statuses as *PermanentError.
// The caller owns the response body on success.
func DoWithResilience(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	backoff Backoff,
	op string,
	providerName string,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if backoff.MaxRetries < 0 || backoff.InitialInterval <= 0 {
		backoff = DefaultBackoff
	}

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, &TransientError{Op: op, Err: ctx.Err()}
		}

		req, err := buildRequest()
		if err != nil {
			return nil, &PermanentError{Op: op, Err: err}
		}
		req = req.WithContext(ctx)

		// Only transport failures, rate limiting, and 5xx count against
		// the breaker; a 404 is a healthy archive saying no.
		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				resp.Body.Close()
				return nil, errServerError
			}
			return resp, nil
		})
		if err == nil {
			resp := result.(*http.Response)
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return resp, nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				resp.Body.Close()
				return nil, &AuthError{Provider: providerName,
					Err: fmt.Errorf("status code %d", resp.StatusCode)}
			default:
				resp.Body.Close()
				return nil, &PermanentError{Op: op,
					Err: fmt.Errorf("unexpected status code %d", resp.StatusCode)}
			}
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransientError{Op: op, Err: err}
		}

		lastErr = err
		if attempt >= backoff.MaxRetries {
			return nil, &TransientError{Op: op, Err: lastErr}
		}

		delay := backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if backoff.MaxInterval > 0 && delay > backoff.MaxInterval {
			delay = backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &TransientError{Op: op, Err: ctx.Err()}
		case <-timer.C:
		}
		attempt++
	}
}

// NewBreaker builds a circuit breaker with settings suited to archive
// endpoints: trip after five consecutive failures, probe again after
// thirty seconds.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}
