// Package llm is the text-completion collaborator used by the analyzers.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnconfigured is returned by the Unconfigured completer.
	ErrUnconfigured = errors.New("AI model is not configured")
	// ErrMalformedOutput is returned when a schema-constrained response does not decode.
	ErrMalformedOutput = errors.New("AI model returned malformed output")
)

// Schema is a named JSON schema used for schema-constrained generation.
type Schema struct {
	Name       string
	Definition map[string]any
}

type Request struct {
	System string
	User   string
	// Schema, when set, asks the model for strict JSON matching it.
	Schema *Schema
	// MaxTokens caps the response length; zero leaves it to the provider.
	MaxTokens int
}

// Completer turns a prompt into model output text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Unconfigured is the completer selected when no API key is set. Every call
// fails with ErrUnconfigured so callers take their fallback path.
type Unconfigured struct{}

func (Unconfigured) Complete(context.Context, Request) (string, error) {
	return "", ErrUnconfigured
}

// IsConfigured reports whether c can reach a model.
func IsConfigured(c Completer) bool {
	if c == nil {
		return false
	}
	_, unconfigured := c.(Unconfigured)
	return !unconfigured
}
