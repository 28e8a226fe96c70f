// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/internal/jsonx"
	"github.com/go-medkit/medkit-go/types"
)

// validationSchema is the strict JSON shape every validity reply must take.
var validationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isValid": {
			Type:        genai.TypeBoolean,
			Description: "Whether the input satisfies the domain predicate.",
		},
		"message": {
			Type:        genai.TypeString,
			Description: "A short user-readable explanation of the verdict.",
		},
	},
	Required: []string{"isValid", "message"},
}

// Gate classifies whether an input belongs to one accepted domain before
// expensive analysis work proceeds.
//
// The gate runs twice per analysis: once as a cheap pre-check when the input
// is captured, and once as the final checkpoint immediately before the
// analysis call. The two runs are intentional, not redundant; the input may
// change between them, so no verdict is ever cached across submissions.
type Gate struct {
	model  types.Model
	domain Domain
	logger *slog.Logger
}

// Option configures a [Gate].
type Option func(*Gate)

// WithLogger sets the logger for the gate.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// New creates a [Gate] for the given domain.
func New(model types.Model, domain Domain, opts ...Option) *Gate {
	g := &Gate{
		model:  model,
		domain: domain,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Domain returns the domain the gate guards.
func (g *Gate) Domain() Domain {
	return g.domain
}

// Validate asks the model whether the input satisfies the domain predicate.
//
// Transport failures and malformed replies surface as errors; the policy of
// what to do with them belongs to [Gate.Precheck] and [Gate.Checkpoint].
func (g *Gate) Validate(ctx context.Context, input types.Input) (*types.ValidationResult, error) {
	if input.IsZero() {
		return nil, types.ErrEmptyMessage
	}

	req := types.NewLLMRequest(
		[]*genai.Content{input.Content()},
		types.WithModelName(g.model.Name()),
	)
	req.AppendInstructions(g.domain.Instruction)
	req.SetOutputSchema(validationSchema)

	resp, err := g.model.GenerateContent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", g.domain.Name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("validate against %s: %s: %s", g.domain.Name, resp.ErrorCode, resp.ErrorMessage)
	}

	raw := resp.GetText()
	var result types.ValidationResult
	if err := jsonx.Unmarshal(raw, &result); err != nil {
		return nil, &types.ParseError{Raw: raw, Err: err}
	}

	return &result, nil
}

// Precheck is the first, fail-open validity run.
//
// When the validity call itself fails, the input is treated as tentatively
// valid and the failure is logged: inability to validate must not block a
// flow whose terminal check happens at [Gate.Checkpoint] anyway. A negative
// verdict from the model passes through unchanged.
func (g *Gate) Precheck(ctx context.Context, input types.Input) *types.ValidationResult {
	result, err := g.Validate(ctx, input)
	if err != nil {
		g.logger.WarnContext(ctx, "Validity pre-check failed open",
			slog.String("domain", g.domain.Name),
			slog.Any("err", err),
		)
		return &types.ValidationResult{
			IsValid: true,
			Message: "Could not verify the input; it will be checked again before analysis.",
		}
	}
	return result
}

// Checkpoint is the second, fail-closed validity run, issued immediately
// before the analysis call as a defense against stale input.
//
// A negative verdict, a transport failure, or a malformed reply all suppress
// the analysis: the returned [*types.RejectionError] names the accepted
// input categories. A nil return is the only green light for analysis.
func (g *Gate) Checkpoint(ctx context.Context, input types.Input) error {
	result, err := g.Validate(ctx, input)
	if err != nil {
		g.logger.WarnContext(ctx, "Validity checkpoint failed closed",
			slog.String("domain", g.domain.Name),
			slog.Any("err", err),
		)
		return &types.RejectionError{
			Domain:     g.domain.Name,
			Message:    fmt.Sprintf("The input could not be verified as %s.", g.domain.Name),
			Categories: g.domain.Categories,
		}
	}
	if !result.IsValid {
		return &types.RejectionError{
			Domain:     g.domain.Name,
			Message:    result.Message,
			Categories: g.domain.Categories,
		}
	}
	return nil
}
