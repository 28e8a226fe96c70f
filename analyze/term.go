// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"context"
	"log/slog"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"

	"github.com/go-medkit/medkit-go/gate"
	"github.com/go-medkit/medkit-go/types"
)

// termInstruction prompts the plain-language explanation of a medical term.
var termInstruction = heredoc.Doc(`
	You are a medical term explainer for laypeople. Explain the given term
	in plain language: what it means, where it typically comes up, and what
	a patient seeing it in their own records might want to ask about.

	Keep the explanation short, avoid jargon, and do not diagnose.
`)

// TermExplainer produces a free-text explanation of a medical term, gated
// by the medical-term validity domain.
type TermExplainer struct {
	model  types.Model
	gate   *gate.Gate
	logger *slog.Logger
}

// NewTermExplainer creates a new [TermExplainer] backed by model.
func NewTermExplainer(model types.Model, opts ...Option) *TermExplainer {
	cfg := newConfig(opts...)
	return &TermExplainer{
		model:  model,
		gate:   gate.New(model, gate.MedicalTerm, gate.WithLogger(cfg.logger)),
		logger: cfg.logger,
	}
}

// Precheck runs the fail-open validity pre-check for a term.
func (a *TermExplainer) Precheck(ctx context.Context, term string) *types.ValidationResult {
	return a.gate.Precheck(ctx, types.TextInput(strings.TrimSpace(term)))
}

// Explain validates the term at the final checkpoint and returns a
// plain-language explanation.
func (a *TermExplainer) Explain(ctx context.Context, term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", types.ErrEmptyMessage
	}

	input := types.TextInput(term)
	if err := a.gate.Checkpoint(ctx, input); err != nil {
		return "", err
	}

	return generate(ctx, a.model, input, termInstruction, nil)
}
