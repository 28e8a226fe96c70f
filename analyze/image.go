// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MakeNowJust/heredoc/v2"
	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/gate"
	"github.com/go-medkit/medkit-go/types"
)

// imageInstruction prompts the structured reading of a medical image.
var imageInstruction = heredoc.Doc(`
	You are a careful medical image analysis assistant. Analyze the attached
	medical image and report what you observe.

	Reply with JSON only, following the response schema exactly:
	  - "findings": individual observations, one per entry
	  - "assessment": your overall reading of the image
	  - "recommendations": suggested next steps, one per entry
	  - "severity": one of "normal", "mild", "moderate", "severe", "critical"
	  - "urgencyLevel": one of "routine", "soon", "urgent", "emergency"
	  - "confidence": an integer from 0 to 100

	Be conservative: when unsure, say so in the assessment, lower the
	confidence, and recommend consulting a professional. Never invent
	findings the image does not show.
`)

// imageAnalysisSchema declares the exact reply shape of an image analysis.
var imageAnalysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"findings": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"assessment": {
			Type: genai.TypeString,
		},
		"recommendations": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"severity": {
			Type: genai.TypeString,
			Enum: []string{"normal", "mild", "moderate", "severe", "critical"},
		},
		"urgencyLevel": {
			Type: genai.TypeString,
			Enum: []string{"routine", "soon", "urgent", "emergency"},
		},
		"confidence": {
			Type: genai.TypeInteger,
		},
	},
	Required: []string{"findings", "assessment", "recommendations", "severity", "urgencyLevel", "confidence"},
}

// ImageAnalyzer produces a structured [types.ImageAnalysis] from a medical
// image, gated by the medical-image validity domain.
type ImageAnalyzer struct {
	model  types.Model
	gate   *gate.Gate
	logger *slog.Logger
}

// NewImageAnalyzer creates a new [ImageAnalyzer] backed by model.
func NewImageAnalyzer(model types.Model, opts ...Option) *ImageAnalyzer {
	cfg := newConfig(opts...)
	return &ImageAnalyzer{
		model:  model,
		gate:   gate.New(model, gate.MedicalImage, gate.WithLogger(cfg.logger)),
		logger: cfg.logger,
	}
}

// Precheck runs the fail-open validity pre-check for an uploaded image.
func (a *ImageAnalyzer) Precheck(ctx context.Context, image types.Input) *types.ValidationResult {
	return a.gate.Precheck(ctx, image)
}

// Analyze validates the image at the final checkpoint and, only then, runs
// the structured analysis. An optional note travels with the image as
// free-text context.
//
// Analyze is a single attempt: failures surface to the caller, which is
// expected to re-run the whole gate-then-analyze sequence.
func (a *ImageAnalyzer) Analyze(ctx context.Context, image types.Input, note string) (*types.ImageAnalysis, error) {
	if !image.IsImage() {
		return nil, errors.New("image analysis requires image bytes")
	}
	if err := a.gate.Checkpoint(ctx, image); err != nil {
		return nil, err
	}

	if note != "" {
		image = image.WithNote("Additional context from the user: " + note)
	}

	raw, err := generate(ctx, a.model, image, imageInstruction, imageAnalysisSchema)
	if err != nil {
		return nil, err
	}

	analysis, err := decodeRecord[types.ImageAnalysis](raw)
	if err != nil {
		a.logger.ErrorContext(ctx, "Image analysis reply rejected", slog.Any("err", err))
		return nil, err
	}
	return analysis, nil
}
