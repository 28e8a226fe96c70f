// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/types"
)

// BaseLLM represents a base LLM implementation.
type BaseLLM struct {
	Config

	// modelName represents the specific LLM model name.
	modelName string
}

var _ types.Model = (*BaseLLM)(nil)

// NewBaseLLM returns the new [BaseLLM] with the specified model name.
func NewBaseLLM(modelName string, opts ...Option) *BaseLLM {
	llm := &BaseLLM{
		Config:    newConfig(),
		modelName: modelName,
	}

	for _, opt := range opts {
		llm.Config = opt.apply(llm.Config)
	}

	return llm
}

// Name implements [types.Model].
func (m *BaseLLM) Name() string {
	return m.modelName
}

// SupportedModels implements [types.Model].
func (m *BaseLLM) SupportedModels() []string {
	return nil
}

// GenerateContent implements [types.Model].
func (m *BaseLLM) GenerateContent(ctx context.Context, request *types.LLMRequest) (*types.LLMResponse, error) {
	return nil, types.NotImplementedError(fmt.Sprintf("BaseLLM: generation is not supported for %s", m.modelName))
}

// StreamGenerateContent implements [types.Model].
func (m *BaseLLM) StreamGenerateContent(ctx context.Context, request *types.LLMRequest) iter.Seq2[*types.LLMResponse, error] {
	return func(yield func(*types.LLMResponse, error) bool) {
		yield(nil, types.NotImplementedError(fmt.Sprintf("BaseLLM: streaming generation is not supported for %s", m.modelName)))
	}
}

// logRequest debug-logs the outgoing request as JSON.
func (m *BaseLLM) logRequest(ctx context.Context, request *types.LLMRequest) {
	if !m.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	reqJSON, err := request.ToJSON()
	if err != nil {
		m.logger.WarnContext(ctx, "failed to marshal request", "err", err)
		return
	}
	m.logger.DebugContext(ctx, "request", slog.String("request", reqJSON))
}

// mergeConfig overlays the request config on the model defaults.
func (m *BaseLLM) mergeConfig(request *types.LLMRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if defaults := m.generationConfig; defaults != nil {
		*config = *defaults
	}

	if request.Config != nil {
		rc := request.Config
		if rc.Temperature != nil {
			config.Temperature = rc.Temperature
		}
		if rc.MaxOutputTokens > 0 {
			config.MaxOutputTokens = rc.MaxOutputTokens
		}
		if rc.TopP != nil {
			config.TopP = rc.TopP
		}
		if rc.TopK != nil {
			config.TopK = rc.TopK
		}
		if rc.SystemInstruction != nil {
			config.SystemInstruction = rc.SystemInstruction
		}
		if rc.ResponseSchema != nil {
			config.ResponseSchema = rc.ResponseSchema
			config.ResponseMIMEType = rc.ResponseMIMEType
		}
		if len(rc.SafetySettings) > 0 {
			config.SafetySettings = rc.SafetySettings
		}
	}

	if config.SafetySettings == nil && len(m.safetySettings) > 0 {
		config.SafetySettings = m.safetySettings
	}

	return config
}

// appendUserContent checks if the last message is from the user and if not, appends an empty user message.
func (m *BaseLLM) appendUserContent(contents []*genai.Content) []*genai.Content {
	switch {
	case len(contents) == 0:
		return append(contents, &genai.Content{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromText(`Handle the requests as specified in the System Instruction.`),
			},
		})

	case strings.ToLower(contents[len(contents)-1].Role) != genai.RoleUser:
		return append(contents, &genai.Content{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromText(`Continue processing previous requests as instructed. Exit or provide a summary if no more outputs are needed.`),
			},
		})

	default:
		return contents
	}
}
