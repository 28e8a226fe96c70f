// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"
	"strings"

	json "github.com/go-json-experiment/json"
	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/internal/pool"
)

// LLMRequest represents a LLM request that carries conversation contents,
// generation config and output schema.
type LLMRequest struct {
	// The model name.
	Model string `json:"model,omitempty"`

	// The contents to send to the model.
	Contents []*genai.Content `json:"contents"`

	// Additional config for the generate content request.
	Config *genai.GenerateContentConfig `json:"config,omitempty"`
}

type LLMRequestOption func(*LLMRequest)

// WithModelName sets the model name.
func WithModelName(name string) LLMRequestOption {
	return func(r *LLMRequest) {
		r.Model = name
	}
}

// WithGenerationConfig sets the [*genai.GenerateContentConfig] for the [LLMRequest].
func WithGenerationConfig(config *genai.GenerateContentConfig) LLMRequestOption {
	return func(r *LLMRequest) {
		r.Config = config
	}
}

// WithSafetySettings sets the [*genai.SafetySetting] for the [LLMRequest].
func WithSafetySettings(settings ...*genai.SafetySetting) LLMRequestOption {
	return func(r *LLMRequest) {
		if r.Config == nil {
			r.Config = &genai.GenerateContentConfig{}
		}
		r.Config.SafetySettings = append(r.Config.SafetySettings, settings...)
	}
}

// NewLLMRequest creates a new [LLMRequest].
func NewLLMRequest(contents []*genai.Content, opts ...LLMRequestOption) *LLMRequest {
	r := &LLMRequest{
		Contents: contents,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// AppendInstructions appends instructions to the system instruction.
func (r *LLMRequest) AppendInstructions(instructions ...string) {
	if r.Config == nil {
		r.Config = &genai.GenerateContentConfig{}
	}

	if r.Config.SystemInstruction == nil {
		r.Config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{
					Text: strings.Join(instructions, "\n\n"),
				},
			},
		}
		return
	}

	r.Config.SystemInstruction.Parts = append(r.Config.SystemInstruction.Parts, &genai.Part{
		Text: "\n\n" + strings.Join(instructions, "\n\n"),
	})
}

// SetOutputSchema configures the expected response format.
func (r *LLMRequest) SetOutputSchema(schema *genai.Schema) *LLMRequest {
	if r.Config == nil {
		r.Config = &genai.GenerateContentConfig{}
	}

	r.Config.ResponseSchema = schema
	r.Config.ResponseMIMEType = "application/json"

	return r
}

// ToJSON converts the request to a JSON string.
func (r *LLMRequest) ToJSON() (string, error) {
	sb := pool.String.Get()
	sb.Reset()
	if err := json.MarshalWrite(sb, r); err != nil {
		return "", fmt.Errorf("failed to marshal LLMRequest to JSON: %w", err)
	}
	out := sb.String()
	pool.String.Put(sb)
	return out, nil
}
