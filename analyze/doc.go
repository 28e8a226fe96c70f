// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package analyze implements the structured analysis invokers: single-shot
// model calls whose replies decode into fixed-shape records.
//
// Every analyzer follows the same two-phase pipeline. The cheap validity
// pre-check ([gate.Gate.Precheck], fail-open) runs when the input is
// captured; the fail-closed checkpoint runs inside the analyzer immediately
// before the expensive call, so a stale or swapped input never reaches
// analysis.
//
// # Analyzers
//
//   - [ImageAnalyzer] reads a medical image into a [types.ImageAnalysis]
//   - [MedicineAnalyzer] looks up a medication by name or label photo into
//     a [types.MedicineAnalysis]
//   - [InteractionChecker] collects medication names and produces one
//     combined free-text interaction report
//   - [TermExplainer] explains a medical term in free text
//
// # Strict decoding
//
// Structured replies are demanded as JSON with a response schema, stripped
// of markdown fences, decoded, and then validated wholesale against the
// record's declared shape. A reply that fails anywhere along that path
// yields a [*types.ParseError] carrying the raw text for logs; no
// partially-populated record ever escapes.
//
// # Retry policy
//
// Analysis is a single attempt. Transport failures and parse failures both
// surface to the caller as errors; the caller re-runs the whole
// gate-then-analyze sequence, and the user sees one generic retry message
// either way.
package analyze
