package service

import (
	"errors"
)

// FailureKind tells the two caller-visible failure outcomes apart.
type FailureKind int

const (
	KindInvalidInput FailureKind = iota + 1
	KindLookupFailed
)

func (k FailureKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindLookupFailed:
		return "lookup_failed"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against a *LookupError.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrLookupFailed = errors.New("lookup failed")
)

// LookupError is the only error GetWeather returns. Every provider failure,
// whatever its cause, becomes KindLookupFailed; Message always carries the cause.
type LookupError struct {
	Kind     FailureKind
	City     string
	Attempts int
	Message  string
	Err      error
}

func (e *LookupError) Error() string {
	return e.Message
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func (e *LookupError) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrLookupFailed:
		return e.Kind == KindLookupFailed
	}
	return false
}

func invalidInput(city string) *LookupError {
	return &LookupError{
		Kind:    KindInvalidInput,
		City:    city,
		Message: "City must be a non-empty string.",
	}
}

func lookupFailed(city string, attempts int, cause error) *LookupError {
	return &LookupError{
		Kind:     KindLookupFailed,
		City:     city,
		Attempts: attempts,
		Message:  "An error occurred: " + cause.Error(),
		Err:      cause,
	}
}
