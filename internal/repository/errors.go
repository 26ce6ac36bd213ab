package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/fakhrymubarak/weather-gateway/internal/model"
)

// Custom error types
var (
	ErrAPIKeyMissing = errors.New("API key missing")
)

// ErrorKind classifies provider failures. It is used for logs and metrics only;
// callers of the service never see it.
type ErrorKind string

const (
	KindTimeout        ErrorKind = "timeout"
	KindConnection     ErrorKind = "connection"
	KindRateLimit      ErrorKind = "rate_limit"
	KindAuthentication ErrorKind = "authentication"
	KindNotFound       ErrorKind = "not_found"
	KindServerError    ErrorKind = "server_error"
	KindBadResponse    ErrorKind = "bad_response"
	KindAPIKeyMissing  ErrorKind = "api_key_missing"
)

// weatherstack error codes, see https://weatherstack.com/documentation#api_error_codes
const (
	codeMissingAccessKey  = 101
	codeInvalidAccessKey  = 102
	codeUsageLimitReached = 104
	codeRequestFailed     = 615
)

// ProviderError describes one failed provider call.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or "" when err is not a provider failure.
func KindOf(err error) ErrorKind {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

// StatusCodeOf returns the provider HTTP status behind err, or 0 when no response
// was received.
func StatusCodeOf(err error) int {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.StatusCode
	}
	return 0
}

func transportError(err error) *ProviderError {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = redactURL(uerr.URL)
	}

	kind := KindConnection
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		kind = KindTimeout
	}
	return &ProviderError{Kind: kind, Err: fmt.Errorf("weather provider request failed: %w", err)}
}

func statusError(resp *http.Response) *ProviderError {
	kind := KindBadResponse
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		kind = KindRateLimit
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		kind = KindAuthentication
	case resp.StatusCode == http.StatusNotFound:
		kind = KindNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		kind = KindServerError
	}
	return &ProviderError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("weather provider returned status %s", resp.Status),
	}
}

func envelopeError(statusCode int, env model.WeatherstackError) *ProviderError {
	if env.Error == nil {
		return &ProviderError{
			Kind:       KindBadResponse,
			StatusCode: statusCode,
			Err:        errors.New("weather provider reported an unsuccessful request"),
		}
	}

	kind := KindBadResponse
	switch env.Error.Code {
	case codeMissingAccessKey, codeInvalidAccessKey:
		kind = KindAuthentication
	case codeUsageLimitReached:
		kind = KindRateLimit
	case codeRequestFailed:
		kind = KindNotFound
	}
	return &ProviderError{
		Kind:       kind,
		StatusCode: statusCode,
		Err: fmt.Errorf("weather provider error %d (%s): %s",
			env.Error.Code, env.Error.Type, env.Error.Info),
	}
}
