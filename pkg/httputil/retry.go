// Package httputil provides shared HTTP plumbing for talking to device
// introspection endpoints: transient-failure classification, retry with
// exponential backoff, and a small JSON GET helper.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	pgerrors "github.com/lwiedman/portgraph/pkg/errors"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this
// type so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff is a convenience wrapper around [Retry] with sensible
// defaults: 3 attempts with 1 second initial delay (doubling each retry).
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// GetJSON fetches url and decodes the response body into v.
//
// Failures are classified into coded errors: network errors and 5xx
// responses come back retryable and carry DEVICE_UNAVAILABLE (or
// DEVICE_TIMEOUT when the context deadline expired), 404 maps to
// NOT_FOUND, other non-2xx statuses to INVALID_INPUT. A nil client uses
// http.DefaultClient.
func GetJSON(ctx context.Context, client *http.Client, url string, v any) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return pgerrors.Wrap(pgerrors.ErrCodeInvalidInput, err, "build request %s", url)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		code := pgerrors.ErrCodeDeviceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			code = pgerrors.ErrCodeDeviceTimeout
		}
		return Retryable(pgerrors.Wrap(code, err, "get %s", url))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return Retryable(pgerrors.New(pgerrors.ErrCodeDeviceUnavailable,
			"get %s: status %d", url, resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return pgerrors.New(pgerrors.ErrCodeNotFound, "get %s: not found", url)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return pgerrors.New(pgerrors.ErrCodeInvalidInput,
			"get %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Retryable(pgerrors.Wrap(pgerrors.ErrCodeDeviceUnavailable, err, "read %s", url))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return pgerrors.Wrap(pgerrors.ErrCodeInvalidSnapshot, err, "decode %s", url)
	}
	return nil
}
