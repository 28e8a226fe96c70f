// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/gate"
	"github.com/go-medkit/medkit-go/types"
)

// medicineInstruction prompts the structured lookup of a medication.
var medicineInstruction = heredoc.Doc(`
	You are a medication information assistant. Identify the medication from
	the given name or label photo and report what is generally known about
	it.

	Reply with JSON only, following the response schema exactly:
	  - "name": the recognized medication name
	  - "activeIngredients": the active substances, one per entry
	  - "uses": what the medication treats, one per entry
	  - "dosage": typical dosing guidance in one short paragraph
	  - "sideEffects": common side effects, one per entry
	  - "warnings": contraindications and cautions, one per entry
	  - "status": one of "otc", "prescription", "controlled", "unknown"
	  - "confidence": an integer from 0 to 100

	Report general reference information only, never a personal dosage
	recommendation. When the medication is ambiguous, pick the most common
	reading and lower the confidence.
`)

// medicineAnalysisSchema declares the exact reply shape of a medication
// lookup.
var medicineAnalysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name": {
			Type: genai.TypeString,
		},
		"activeIngredients": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"uses": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"dosage": {
			Type: genai.TypeString,
		},
		"sideEffects": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"warnings": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"status": {
			Type: genai.TypeString,
			Enum: []string{"otc", "prescription", "controlled", "unknown"},
		},
		"confidence": {
			Type: genai.TypeInteger,
		},
	},
	Required: []string{"name", "activeIngredients", "uses", "dosage", "sideEffects", "warnings", "status", "confidence"},
}

// MedicineAnalyzer produces a structured [types.MedicineAnalysis] from a
// typed medication name or a label photo.
type MedicineAnalyzer struct {
	model     types.Model
	nameGate  *gate.Gate
	imageGate *gate.Gate
	logger    *slog.Logger
}

// NewMedicineAnalyzer creates a new [MedicineAnalyzer] backed by model.
func NewMedicineAnalyzer(model types.Model, opts ...Option) *MedicineAnalyzer {
	cfg := newConfig(opts...)
	return &MedicineAnalyzer{
		model:     model,
		nameGate:  gate.New(model, gate.MedicationName, gate.WithLogger(cfg.logger)),
		imageGate: gate.New(model, gate.MedicalImage, gate.WithLogger(cfg.logger)),
		logger:    cfg.logger,
	}
}

// Precheck runs the fail-open validity pre-check for a typed medication
// name.
func (a *MedicineAnalyzer) Precheck(ctx context.Context, name string) *types.ValidationResult {
	return a.nameGate.Precheck(ctx, types.TextInput(strings.TrimSpace(name)))
}

// Analyze looks up a medication by name after the final validity
// checkpoint.
func (a *MedicineAnalyzer) Analyze(ctx context.Context, name string) (*types.MedicineAnalysis, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.ErrEmptyMessage
	}

	input := types.TextInput(name)
	if err := a.nameGate.Checkpoint(ctx, input); err != nil {
		return nil, err
	}

	return a.analyze(ctx, input)
}

// AnalyzeImage looks up a medication from a label photo after the final
// validity checkpoint.
func (a *MedicineAnalyzer) AnalyzeImage(ctx context.Context, image types.Input) (*types.MedicineAnalysis, error) {
	if !image.IsImage() {
		return nil, errors.New("medication label analysis requires image bytes")
	}
	if err := a.imageGate.Checkpoint(ctx, image); err != nil {
		return nil, err
	}

	return a.analyze(ctx, image)
}

func (a *MedicineAnalyzer) analyze(ctx context.Context, input types.Input) (*types.MedicineAnalysis, error) {
	raw, err := generate(ctx, a.model, input, medicineInstruction, medicineAnalysisSchema)
	if err != nil {
		return nil, err
	}

	analysis, err := decodeRecord[types.MedicineAnalysis](raw)
	if err != nil {
		a.logger.ErrorContext(ctx, "Medicine analysis reply rejected", slog.Any("err", err))
		return nil, err
	}
	return analysis, nil
}
