// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package types

// ValidationResult is the reply of a validity-gate call.
//
// A result is ephemeral: it is produced per input, never persisted, and never
// reused across submissions of the same input.
type ValidationResult struct {
	// IsValid reports whether the input satisfies the gate's domain
	// predicate.
	IsValid bool `json:"isValid"`

	// Message explains the verdict in user-readable terms.
	Message string `json:"message"`
}
