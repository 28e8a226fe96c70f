// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"context"
	"iter"
)

// Model represents a generative AI model.
type Model interface {
	// Name returns the name of the LLM model.
	//
	// e.g. gemini-2.0-flash or claude-3-7-sonnet-20250219.
	Name() string

	// SupportedModels returns a list of supported models for the registry.
	SupportedModels() []string

	// GenerateContent generates one content from the given contents.
	GenerateContent(ctx context.Context, request *LLMRequest) (*LLMResponse, error)

	// StreamGenerateContent generates one content from the given contents
	// with a streaming call. The sequence ends at natural end-of-stream;
	// cancelling ctx stops further fragment delivery.
	StreamGenerateContent(ctx context.Context, request *LLMRequest) iter.Seq2[*LLMResponse, error]
}
