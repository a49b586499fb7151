package llm

import (
	"context"
	"errors"
	"fmt"
)

// ProviderError reports a failed provider call: transport failure, non-2xx
// status, empty response or timeout.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call failed because its deadline passed
func (e *ProviderError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// newProviderError wraps err unless it already is a *ProviderError
func newProviderError(provider string, err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}

// ParseError reports a provider response that does not contain the
// expected JSON document
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse response: %s: %v", e.Reason, e.Err)
	}
	return "parse response: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
