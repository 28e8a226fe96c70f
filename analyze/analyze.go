// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/internal/jsonx"
	"github.com/go-medkit/medkit-go/types"
)

// config carries the ambient settings shared by all analyzers.
type config struct {
	logger *slog.Logger
}

func newConfig(opts ...Option) config {
	cfg := config{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures an analyzer.
type Option func(*config)

// WithLogger sets the logger for the analyzer.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// record is the contract of every structured analysis record.
type record interface {
	Validate() error
}

// decodeRecord decodes a model reply into a record of type T, strictly: the
// reply either yields a record that passes Validate wholesale or a
// [*types.ParseError] carrying the raw reply. There is no partially-trusted
// middle ground.
func decodeRecord[T any, PT interface {
	record
	*T
}](raw string) (PT, error) {
	rec := PT(new(T))
	if err := jsonx.Unmarshal(raw, rec); err != nil {
		return nil, &types.ParseError{Raw: raw, Err: err}
	}
	if err := rec.Validate(); err != nil {
		return nil, &types.ParseError{Raw: raw, Err: err}
	}
	return rec, nil
}

// generate issues one unary analysis call and returns the reply text.
// A nil schema asks for free text instead of strict JSON.
func generate(ctx context.Context, model types.Model, input types.Input, instruction string, schema *genai.Schema) (string, error) {
	req := types.NewLLMRequest(
		[]*genai.Content{input.Content()},
		types.WithModelName(model.Name()),
	)
	req.AppendInstructions(instruction)
	if schema != nil {
		req.SetOutputSchema(schema)
	}

	resp, err := model.GenerateContent(ctx, req)
	if err != nil {
		return "", fmt.Errorf("analysis call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("analysis call: %s: %s", resp.ErrorCode, resp.ErrorMessage)
	}

	text := resp.GetText()
	if text == "" {
		return "", fmt.Errorf("analysis call: empty reply")
	}
	return text, nil
}
