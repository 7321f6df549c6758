package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers branch on with errors.Is.
var (
	// ErrMissingCredential indicates the active provider has no API key.
	ErrMissingCredential = errors.New("missing API key for active provider")

	// ErrEmptyResponse indicates the provider returned no text at all.
	ErrEmptyResponse = errors.New("provider returned empty response")

	// ErrUnsupportedProvider indicates the active provider identifier has no
	// registered adapter.
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// MalformedResponseError indicates the provider returned text that could not
// be coerced into JSON even after both repair passes. It carries the offending
// text for diagnostics; the engine never guesses partial data instead.
type MalformedResponseError struct {
	Raw   string
	Cause error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed provider response: %v", e.Cause)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// ProviderHTTPError is a non-2xx response from a provider API, surfaced with
// the status and raw body for diagnosis.
type ProviderHTTPError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.Status, e.Body)
}

// Retryable reports whether a single bounded retry is worthwhile. Client-side
// errors (4xx) are configuration problems, not transient ones.
func (e *ProviderHTTPError) Retryable() bool {
	return e.Status >= 500
}

// TransportError is a network-level failure (connectivity, DNS, timeout)
// before any HTTP status was obtained. Hint carries provider-specific
// remediation guidance, e.g. that a provider cannot be called directly from a
// browser context.
type TransportError struct {
	Provider string
	Hint     string
	Cause    error
}

func (e *TransportError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s transport failure: %v (%s)", e.Provider, e.Cause, e.Hint)
	}
	return fmt.Sprintf("%s transport failure: %v", e.Provider, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
