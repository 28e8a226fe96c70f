// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package jsonx decodes strict-JSON model replies.
package jsonx

import (
	"strings"

	"github.com/bytedance/sonic"
)

// StripFences removes the markdown code fence a model sometimes wraps around
// a JSON reply, including the language tag line.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Unmarshal decodes a model reply into v after stripping fences.
func Unmarshal(raw string, v any) error {
	return sonic.ConfigFastest.Unmarshal([]byte(StripFences(raw)), v)
}
