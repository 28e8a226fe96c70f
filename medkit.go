// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package medkit is a client-side orchestration toolkit for AI-assisted
// health information: streaming conversational sessions with cancellation
// and edit-triggered regeneration, and validate-then-analyze pipelines that
// gate structured analysis calls behind cheap content-validity checks.
package medkit

import (
	// for prompt templating
	_ "github.com/google/dotprompt/go/dotprompt"
)

// Version is the version of MedKit.
var Version = "v0.0.0"
