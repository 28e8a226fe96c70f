// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package model_test

import (
	"testing"

	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/model"
	"github.com/go-medkit/medkit-go/types"
)

func TestNewClaude_APIKeyOption(t *testing.T) {
	t.Setenv(model.EnvAnthropicAPIKey, "")

	if _, err := model.NewClaude(t.Context(), "", ""); err == nil {
		t.Fatal("NewClaude succeeded without any API key")
	}

	claude, err := model.NewClaude(t.Context(), "", "", model.WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewClaude with WithAPIKey: %v", err)
	}
	if got := claude.Name(); got != model.ClaudeDefaultModel {
		t.Errorf("Name() = %q, want %q", got, model.ClaudeDefaultModel)
	}
}

// Live API tests. Remove the skips and export ANTHROPIC_API_KEY to run.

func TestClaude_Generate(t *testing.T) {
	t.Skip()

	claude, err := model.NewClaude(t.Context(), "", model.ClaudeDefaultModel)
	if err != nil {
		t.Fatalf("NewClaude: %v", err)
	}

	req := types.NewLLMRequest(
		[]*genai.Content{
			{
				Role: genai.RoleUser,
				Parts: []*genai.Part{
					genai.NewPartFromText(`Reply with the single word "Hello".`),
				},
			},
		},
	)
	got, err := claude.GenerateContent(t.Context(), req)
	if err != nil {
		t.Fatalf("unexpected error on Generate: %v", err)
	}
	t.Logf("got: %#v", got.Content.Parts[0].Text)

	if got.Partial {
		t.Fatalf("unary response should not be partial")
	}
}

func TestClaude_StreamGenerate(t *testing.T) {
	t.Skip()

	claude, err := model.NewClaude(t.Context(), "", model.ClaudeDefaultModel)
	if err != nil {
		t.Fatalf("NewClaude: %v", err)
	}

	req := types.NewLLMRequest(
		[]*genai.Content{
			{
				Role: genai.RoleUser,
				Parts: []*genai.Part{
					genai.NewPartFromText(`Count from one to five in words.`),
				},
			},
		},
	)

	var got []*types.LLMResponse
	for r, err := range claude.StreamGenerateContent(t.Context(), req) {
		if err != nil {
			t.Fatalf("unexpected error on StreamGenerate: %v", err)
		}
		got = append(got, r)
	}

	if len(got) < 2 {
		t.Fatalf("got %d responses, want partial chunks plus a final turn", len(got))
	}
	final := got[len(got)-1]
	if !final.TurnComplete {
		t.Fatal("last response should complete the turn")
	}
}
