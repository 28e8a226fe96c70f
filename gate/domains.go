// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"github.com/MakeNowJust/heredoc/v2"
)

// Domain is a named validity predicate: what the gate accepts, how the
// model is instructed to judge it, and the categories named to the user on
// rejection.
//
// Domains are data, not behavior; a [Gate] binds one domain to one model.
type Domain struct {
	// Name reads as the object of "the input is ...", e.g. "a medical image".
	Name string

	// Instruction is the system instruction of the validity call.
	Instruction string

	// Categories lists the accepted inputs, quoted in rejection messages.
	Categories []string
}

// MedicalImage accepts images a medical image analyzer can work with.
var MedicalImage = Domain{
	Name: "a medical image",
	Instruction: heredoc.Doc(`
		You are the gatekeeper of a medical image analysis service.

		Decide whether the attached image is a medical image: an X-ray, CT
		scan, MRI scan, ultrasound image, a photograph of a skin condition,
		wound or visible symptom, a medication label, or a prescription.
		Ordinary photographs, screenshots, documents without medical content,
		memes, and drawings are not medical images.

		Reply with JSON only: set "isValid" to your verdict and "message" to
		one short sentence explaining it in plain language.
	`),
	Categories: []string{
		"X-rays",
		"CT scans",
		"MRI scans",
		"ultrasound images",
		"photos of skin conditions or visible symptoms",
		"medication labels",
		"prescriptions",
	},
}

// MedicationName accepts the names of real medications.
var MedicationName = Domain{
	Name: "a medication name",
	Instruction: heredoc.Doc(`
		You are the gatekeeper of a medication information service.

		Decide whether the given text is the name of a real medication: a
		brand name, a generic name, or an active ingredient. Dosage suffixes
		and minor misspellings of real medications are acceptable. Arbitrary
		words, food, supplements without a medical use, and fictional drugs
		are not.

		Reply with JSON only: set "isValid" to your verdict and "message" to
		one short sentence explaining it in plain language.
	`),
	Categories: []string{
		"brand-name medications",
		"generic medication names",
		"active ingredients",
	},
}

// MedicalTerm accepts terms the medical term explainer covers.
var MedicalTerm = Domain{
	Name: "a medical term",
	Instruction: heredoc.Doc(`
		You are the gatekeeper of a medical term explanation service.

		Decide whether the given text is a medical term: a condition, a
		symptom, a procedure, a test, an anatomical structure, or a term
		from a lab report or doctor's note. Everyday words with no medical
		meaning are not medical terms.

		Reply with JSON only: set "isValid" to your verdict and "message" to
		one short sentence explaining it in plain language.
	`),
	Categories: []string{
		"medical conditions",
		"symptoms",
		"procedures and tests",
		"anatomical terms",
		"terms from lab reports or doctors' notes",
	},
}
