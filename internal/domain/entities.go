// Package domain holds the provider-neutral types and the error taxonomy
// shared by the LLM dispatch core and its callers.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProviderKind enumerates the supported LLM backends.
type ProviderKind string

const (
	// ProviderLocal is a self-hosted backend (Ollama-style chat endpoint, no auth).
	ProviderLocal ProviderKind = "local"
	// ProviderRemote is a hosted OpenAI-compatible API requiring a Bearer key.
	ProviderRemote ProviderKind = "remote"
)

// FailureReason classifies a failed provider attempt.
type FailureReason string

const (
	FailureNetwork    FailureReason = "network"
	FailureTimeout    FailureReason = "timeout"
	FailureHTTPStatus FailureReason = "http_status"
	FailureMalformed  FailureReason = "malformed_response"
	FailureConfig     FailureReason = "config_invalid"
)

// Failure is the error produced by a single provider attempt.
type Failure struct {
	Reason FailureReason
	Detail string
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %s", f.Reason, f.Detail) }

// NewFailure constructs a Failure with a formatted diagnostic detail.
func NewFailure(reason FailureReason, format string, args ...any) *Failure {
	return &Failure{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf returns the FailureReason carried by err, or "" when err does not
// wrap a Failure.
func ReasonOf(err error) FailureReason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}

// ProviderConfig describes one configured provider. Built once at startup and
// never mutated; safe to share across concurrent dispatches.
type ProviderConfig struct {
	Kind        ProviderKind
	EndpointURL string
	Model       string
	APIKey      string // required for ProviderRemote
	Timeout     time.Duration
}

// Validate checks the invariants that must hold before any request is attempted.
func (p ProviderConfig) Validate() error {
	switch p.Kind {
	case ProviderLocal, ProviderRemote:
	default:
		return NewFailure(FailureConfig, "unknown provider kind %q", p.Kind)
	}
	if p.EndpointURL == "" {
		return NewFailure(FailureConfig, "%s provider endpoint URL missing", p.Kind)
	}
	if p.Kind == ProviderRemote && p.APIKey == "" {
		return NewFailure(FailureConfig, "remote provider requires an API key")
	}
	return nil
}

// ChatRequest is one generation request, built per dispatch and discarded
// after the HTTP body is serialized.
type ChatRequest struct {
	SystemPrompt string // may be empty
	UserText     string
	Temperature  float64
	MaxTokens    int
}

// ChatResult is the outcome of exactly one provider attempt: Text on success
// (possibly empty), Err otherwise.
type ChatResult struct {
	Text string
	Err  *Failure
}

// OK reports whether the attempt succeeded.
func (r ChatResult) OK() bool { return r.Err == nil }

// Dispatcher (port)

// Dispatcher runs one end-to-end dispatch for one user message: a primary
// provider attempt plus at most one fallback hop.
type Dispatcher interface {
	Dispatch(ctx Context, userText string) (string, error)
}

// Context is an alias so the domain stays decoupled from adapter imports;
// adapters and usecases pass context.Context through.
type Context = context.Context
