// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"
)

// Severity grades how serious an observed condition appears.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the declared severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityNormal, SeverityMild, SeverityModerate, SeveritySevere, SeverityCritical:
		return true
	}
	return false
}

// Urgency grades how soon a professional should be consulted.
type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencySoon      Urgency = "soon"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

// Valid reports whether u is one of the declared urgency levels.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyRoutine, UrgencySoon, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

// PrescriptionStatus classifies how a medication is dispensed.
type PrescriptionStatus string

const (
	StatusOTC          PrescriptionStatus = "otc"
	StatusPrescription PrescriptionStatus = "prescription"
	StatusControlled   PrescriptionStatus = "controlled"
	StatusUnknown      PrescriptionStatus = "unknown"
)

// Valid reports whether s is one of the declared statuses.
func (s PrescriptionStatus) Valid() bool {
	switch s {
	case StatusOTC, StatusPrescription, StatusControlled, StatusUnknown:
		return true
	}
	return false
}

// ImageAnalysis is the structured record a medical-image analysis yields.
//
// A record is replaced wholesale on each new analysis, never merged.
type ImageAnalysis struct {
	// Findings lists the individual observations made on the image.
	Findings []string `json:"findings"`

	// Assessment is the overall reading of the image.
	Assessment string `json:"assessment"`

	// Recommendations lists suggested next steps.
	Recommendations []string `json:"recommendations"`

	// Severity grades the assessment.
	Severity Severity `json:"severity"`

	// UrgencyLevel grades how soon to act on it.
	UrgencyLevel Urgency `json:"urgencyLevel"`

	// Confidence is the model's self-reported confidence in [0, 100].
	Confidence int `json:"confidence"`
}

// Validate checks the record against its declared shape. It is total: the
// record passes wholesale or the first violation is returned.
func (a *ImageAnalysis) Validate() error {
	if !a.Severity.Valid() {
		return fmt.Errorf("severity: %q is not a declared level", a.Severity)
	}
	if !a.UrgencyLevel.Valid() {
		return fmt.Errorf("urgencyLevel: %q is not a declared level", a.UrgencyLevel)
	}
	if a.Confidence < 0 || a.Confidence > 100 {
		return fmt.Errorf("confidence: %d is outside [0, 100]", a.Confidence)
	}
	return nil
}

// MedicineAnalysis is the structured record a medication lookup yields,
// whether from a typed name or a label photo.
type MedicineAnalysis struct {
	// Name is the recognized medication name.
	Name string `json:"name"`

	// ActiveIngredients lists the active substances.
	ActiveIngredients []string `json:"activeIngredients"`

	// Uses lists what the medication treats.
	Uses []string `json:"uses"`

	// Dosage is the typical dosing guidance.
	Dosage string `json:"dosage"`

	// SideEffects lists common side effects.
	SideEffects []string `json:"sideEffects"`

	// Warnings lists contraindications and cautions.
	Warnings []string `json:"warnings"`

	// Status classifies how the medication is dispensed.
	Status PrescriptionStatus `json:"status"`

	// Confidence is the model's self-reported confidence in [0, 100].
	Confidence int `json:"confidence"`
}

// Validate checks the record against its declared shape.
func (a *MedicineAnalysis) Validate() error {
	if !a.Status.Valid() {
		return fmt.Errorf("status: %q is not a declared status", a.Status)
	}
	if a.Confidence < 0 || a.Confidence > 100 {
		return fmt.Errorf("confidence: %d is outside [0, 100]", a.Confidence)
	}
	return nil
}
