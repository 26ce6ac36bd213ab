package repository

import "net/http"

// RoundTripperFunc allows us to easily mock http.Client responses in tests.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// NewMockHTTPClient returns an *http.Client whose transport is fn.
func NewMockHTTPClient(fn RoundTripperFunc) *http.Client {
	return &http.Client{Transport: fn}
}
