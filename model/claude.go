// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"os"
	"slices"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/types"
)

const (
	// ClaudeDefaultModel is the default model name for [Claude].
	ClaudeDefaultModel = "claude-3-7-sonnet-20250219"

	// EnvAnthropicAPIKey is the environment variable name for the Anthropic API key.
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"

	// claudeDefaultMaxTokens is used when the request does not set a limit;
	// the messages API requires one.
	claudeDefaultMaxTokens = 4096
)

// Claude represents a Claude Large Language Model.
type Claude struct {
	*BaseLLM

	anthropicClient anthropic.Client
}

var _ types.Model = (*Claude)(nil)

// NewClaude creates a new Claude LLM instance.
func NewClaude(ctx context.Context, apiKey, modelName string, opts ...Option) (*Claude, error) {
	// Use default model if none provided
	if modelName == "" {
		modelName = ClaudeDefaultModel
	}

	base := NewBaseLLM(modelName, opts...)

	// Fall back to the [WithAPIKey] option, then the [EnvAnthropicAPIKey]
	// environment variable
	if apiKey == "" {
		apiKey = base.apiKey
	}
	if apiKey == "" {
		apiKey = os.Getenv(EnvAnthropicAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("either apiKey arg, WithAPIKey option, or %q environment variable must be set", EnvAnthropicAPIKey)
	}

	anthropicClient := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Claude{
		BaseLLM:         base,
		anthropicClient: anthropicClient,
	}, nil
}

// SupportedModels returns a list of supported Claude models.
func (m *Claude) SupportedModels() []string {
	return []string{
		// Anthropic API
		string(anthropic.ModelClaude3_7SonnetLatest),
		string(anthropic.ModelClaude3_7Sonnet20250219),
		string(anthropic.ModelClaude3_5HaikuLatest),
		string(anthropic.ModelClaude3_5Haiku20241022),
		string(anthropic.ModelClaude3_5SonnetLatest),
		string(anthropic.ModelClaude3_5Sonnet20241022),
		string(anthropic.ModelClaude_3_5_Sonnet_20240620),
		string(anthropic.ModelClaude3OpusLatest),
		string(anthropic.ModelClaude_3_Opus_20240229),

		// GCP Vertex AI
		"claude-3-7-sonnet@20250219",
		"claude-3-5-haiku@20241022",
		"claude-3-5-sonnet-v2@20241022",
		"claude-3-opus@20240229",

		// AWS Bedrock
		"anthropic.claude-3-7-sonnet-20250219-v1:0",
		"anthropic.claude-3-5-haiku-20241022-v1:0",
		"anthropic.claude-3-5-sonnet-20241022-v2:0",
	}
}

// buildParams converts the request into Anthropic message parameters.
func (m *Claude) buildParams(request *types.LLMRequest) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(request.Contents))
	for _, content := range request.Contents {
		messages = append(messages, contentToClaudeMessageParam(content))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.modelName),
		Messages:  messages,
		MaxTokens: claudeDefaultMaxTokens,
	}

	config := m.mergeConfig(request)

	if config.MaxOutputTokens > 0 {
		params.MaxTokens = int64(config.MaxOutputTokens)
	}
	if config.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*config.Temperature))
	}
	if config.TopK != nil {
		params.TopK = anthropic.Int(int64(*config.TopK))
	}
	if config.TopP != nil {
		params.TopP = anthropic.Float(float64(*config.TopP))
	}

	// The system prompt travels out-of-band in the messages API.
	if systemText := systemInstructionText(config); systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	return params
}

// GenerateContent implements [types.Model].
func (m *Claude) GenerateContent(ctx context.Context, request *types.LLMRequest) (*types.LLMResponse, error) {
	m.logRequest(ctx, request)

	params := m.buildParams(request)

	message, err := m.anthropicClient.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude API error: %w", err)
	}

	return claudeMessageToLLMResponse(*message), nil
}

// StreamGenerateContent implements [types.Model].
func (m *Claude) StreamGenerateContent(ctx context.Context, request *types.LLMRequest) iter.Seq2[*types.LLMResponse, error] {
	return func(yield func(*types.LLMResponse, error) bool) {
		m.logRequest(ctx, request)

		params := m.buildParams(request)

		stream := m.anthropicClient.Messages.NewStreaming(ctx, params)

		var message anthropic.Message
		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				m.logger.WarnContext(ctx, "failed to accumulate message", "err", err)
			}

			switch event.Type {
			case "content_block_delta":
				blockDeltaEvent := event.AsContentBlockDelta()
				if blockDeltaEvent.Delta.Type == "text_delta" && blockDeltaEvent.Delta.Text != "" {
					resp := &types.LLMResponse{
						Content: &genai.Content{
							Role:  genai.RoleModel,
							Parts: []*genai.Part{genai.NewPartFromText(blockDeltaEvent.Delta.Text)},
						},
						Partial: true,
					}
					if !yield(resp, nil) {
						return
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			yield(nil, err)
			return
		}

		yield(claudeMessageToLLMResponse(message).WithTurnComplete(true), nil)
	}
}

// systemInstructionText flattens the system instruction content to text.
func systemInstructionText(config *genai.GenerateContentConfig) string {
	if config == nil || config.SystemInstruction == nil {
		return ""
	}

	systemText := ""
	for _, part := range config.SystemInstruction.Parts {
		if part != nil && part.Text != "" {
			systemText += part.Text
		}
	}
	return systemText
}

var genAIModelRoles = []string{
	genai.RoleModel,
	"assistant",
}

func asClaudeRole(role string) anthropic.MessageParamRole {
	if slices.Contains(genAIModelRoles, role) {
		return anthropic.MessageParamRoleAssistant
	}
	return anthropic.MessageParamRoleUser
}

// partToClaudeMessageBlock converts a genai part to an Anthropic content
// block. Inline data becomes a base64 image block, which is how the messages
// API takes image bytes.
func partToClaudeMessageBlock(part *genai.Part) (anthropic.ContentBlockParamUnion, bool) {
	switch {
	case part.Text != "":
		return anthropic.NewTextBlock(part.Text), true

	case part.InlineData != nil:
		encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
		return anthropic.NewImageBlockBase64(part.InlineData.MIMEType, encoded), true
	}

	return anthropic.ContentBlockParamUnion{}, false
}

// contentToClaudeMessageParam converts [*genai.Content] to [anthropic.MessageParam].
func contentToClaudeMessageParam(content *genai.Content) (msgParam anthropic.MessageParam) {
	msgParam.Role = asClaudeRole(content.Role)

	msgParam.Content = make([]anthropic.ContentBlockParamUnion, 0, len(content.Parts))
	for _, part := range content.Parts {
		msgBlock, ok := partToClaudeMessageBlock(part)
		if !ok {
			continue
		}
		msgParam.Content = append(msgParam.Content, msgBlock)
	}

	return msgParam
}

// claudeMessageToLLMResponse converts an accumulated Anthropic message to an
// [*types.LLMResponse].
func claudeMessageToLLMResponse(message anthropic.Message) *types.LLMResponse {
	parts := make([]*genai.Part, 0, len(message.Content))
	for _, block := range message.Content {
		if block.Type == "text" {
			parts = append(parts, genai.NewPartFromText(block.Text))
		}
	}

	return &types.LLMResponse{
		Content: &genai.Content{
			Role:  genai.RoleModel,
			Parts: parts,
		},
	}
}
