// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package model provides multi-provider LLM integration with unified interfaces and automatic model resolution.
//
// The model package implements the types.Model interface for various Large Language Model providers,
// using google.golang.org/genai as the primary abstraction layer. It provides consistent content format,
// streaming patterns, and provider-specific conversions while supporting both synchronous and streaming generation.
//
// # Supported Providers
//
// The package supports multiple LLM providers:
//
//   - Google Gemini: direct integration with full streaming support
//   - Anthropic Claude: direct API with SSE streaming and image inputs
//   - Ollama: local models over the Ollama HTTP API
//   - Registry-based extensibility for additional providers
//
// # Model Registry
//
// Models are automatically resolved using regex pattern matching:
//
//	// Gemini models
//	gemini-2.0-flash
//	projects/my-project/locations/us-central1/publishers/google/models/gemini-pro
//
//	// Claude models
//	claude-3-7-sonnet-20250219
//
//	// Ollama models
//	llama3.2, mistral, qwen2.5, gemma3
//
// Use [NewLLM] to resolve and construct a model from its name:
//
//	m, err := model.NewLLM(ctx, apiKey, "gemini-2.0-flash")
//	if err != nil {
//		// Handle error
//	}
//	resp, err := m.GenerateContent(ctx, request)
//
// # Streaming
//
// All providers expose streaming through iter.Seq2:
//
//	for resp, err := range m.StreamGenerateContent(ctx, request) {
//		if err != nil {
//			break
//		}
//		if resp.Partial {
//			// Incremental text fragment
//		}
//	}
//
// Providers yield partial responses chunk by chunk and a final aggregated
// response with TurnComplete set when the turn finished normally.
package model
