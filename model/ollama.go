// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/types"
)

const (
	// OllamaDefaultModel is the default model name for [Ollama].
	OllamaDefaultModel = "llama3.2"

	// EnvOllamaHost is the environment variable name for the Ollama server URL.
	EnvOllamaHost = "OLLAMA_HOST"

	// ollamaDefaultHost is the local Ollama server address.
	ollamaDefaultHost = "http://localhost:11434"

	// ollamaTimeout bounds a single chat call end to end; local generations
	// can be slow.
	ollamaTimeout = 5 * time.Minute
)

// errStreamStopped aborts the chat callback when the consumer stops iterating.
var errStreamStopped = errors.New("stream consumer stopped")

// Ollama represents a local Large Language Model served by Ollama.
type Ollama struct {
	*BaseLLM

	client *api.Client
}

var _ types.Model = (*Ollama)(nil)

// NewOllama creates a new [Ollama] instance talking to the given host.
func NewOllama(ctx context.Context, host, modelName string, opts ...Option) (*Ollama, error) {
	// Use default model if none provided
	if modelName == "" {
		modelName = OllamaDefaultModel
	}

	base := NewBaseLLM(modelName, opts...)

	if host == "" {
		host = base.baseURL
	}
	if host == "" {
		host = os.Getenv(EnvOllamaHost)
	}
	if host == "" {
		host = ollamaDefaultHost
	}

	ollamaURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host URL %q: %w", host, err)
	}

	httpClient := &http.Client{
		Timeout: ollamaTimeout,
	}

	return &Ollama{
		BaseLLM: base,
		client:  api.NewClient(ollamaURL, httpClient),
	}, nil
}

// SupportedModels returns common local model families.
//
// Ollama serves whatever is pulled locally, so this list is indicative.
func (m *Ollama) SupportedModels() []string {
	return []string{
		"llama3.2",
		"llama3.1",
		"mistral",
		"qwen2.5",
		"gemma3",
		"phi4",
		"deepseek-r1",
		"llava",
	}
}

// buildChatRequest converts the request into an Ollama chat request.
func (m *Ollama) buildChatRequest(request *types.LLMRequest, stream bool) *api.ChatRequest {
	config := m.mergeConfig(request)

	messages := make([]api.Message, 0, len(request.Contents)+1)
	if systemText := systemInstructionText(config); systemText != "" {
		messages = append(messages, api.Message{Role: "system", Content: systemText})
	}
	for _, content := range request.Contents {
		messages = append(messages, contentToOllamaMessage(content))
	}

	options := make(map[string]any)
	if config.Temperature != nil {
		options["temperature"] = float64(*config.Temperature)
	}
	if config.TopP != nil {
		options["top_p"] = float64(*config.TopP)
	}
	if config.TopK != nil {
		options["top_k"] = int(*config.TopK)
	}
	if config.MaxOutputTokens > 0 {
		options["num_predict"] = int(config.MaxOutputTokens)
	}

	req := &api.ChatRequest{
		Model:    m.modelName,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}

	// Ollama knows constrained JSON output, not full schemas.
	if config.ResponseMIMEType == "application/json" {
		req.Format = json.RawMessage(`"json"`)
	}

	return req
}

// GenerateContent implements [types.Model].
func (m *Ollama) GenerateContent(ctx context.Context, request *types.LLMRequest) (*types.LLMResponse, error) {
	m.logRequest(ctx, request)

	req := m.buildChatRequest(request, false)

	var content strings.Builder
	err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	return &types.LLMResponse{
		Content: &genai.Content{
			Role:  genai.RoleModel,
			Parts: []*genai.Part{genai.NewPartFromText(content.String())},
		},
	}, nil
}

// StreamGenerateContent implements [types.Model].
func (m *Ollama) StreamGenerateContent(ctx context.Context, request *types.LLMRequest) iter.Seq2[*types.LLMResponse, error] {
	return func(yield func(*types.LLMResponse, error) bool) {
		m.logRequest(ctx, request)

		req := m.buildChatRequest(request, true)

		var content strings.Builder
		err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				content.WriteString(resp.Message.Content)
				chunk := &types.LLMResponse{
					Content: &genai.Content{
						Role:  genai.RoleModel,
						Parts: []*genai.Part{genai.NewPartFromText(resp.Message.Content)},
					},
					Partial: true,
				}
				if !yield(chunk, nil) {
					return errStreamStopped
				}
			}
			return nil
		})
		if err != nil {
			if !errors.Is(err, errStreamStopped) {
				yield(nil, err)
			}
			return
		}

		yield(newAggregateText(content.String()), nil)
	}
}

// contentToOllamaMessage converts [*genai.Content] to [api.Message].
// Text parts concatenate; inline data rides along as raw image bytes.
func contentToOllamaMessage(content *genai.Content) api.Message {
	role := "user"
	if content.Role == genai.RoleModel || content.Role == "assistant" {
		role = "assistant"
	}

	var (
		text   strings.Builder
		images []api.ImageData
	)
	for _, part := range content.Parts {
		switch {
		case part.Text != "":
			text.WriteString(part.Text)
		case part.InlineData != nil:
			images = append(images, api.ImageData(part.InlineData.Data))
		}
	}

	return api.Message{
		Role:    role,
		Content: text.String(),
		Images:  images,
	}
}
