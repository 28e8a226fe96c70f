// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package speech turns recorded voice input into text via Google Cloud
// Speech-to-Text, so spoken questions and medication names enter the same
// pipelines as typed ones.
package speech
