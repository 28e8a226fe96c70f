// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/types"
)

func TestAsClaudeRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		want anthropic.MessageParamRole
	}{
		{
			name: "user_role",
			role: genai.RoleUser,
			want: anthropic.MessageParamRoleUser,
		},
		{
			name: "model_role",
			role: genai.RoleModel,
			want: anthropic.MessageParamRoleAssistant,
		},
		{
			name: "assistant_alias",
			role: "assistant",
			want: anthropic.MessageParamRoleAssistant,
		},
		{
			name: "empty_role",
			role: "",
			want: anthropic.MessageParamRoleUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := asClaudeRole(tt.role); got != tt.want {
				t.Errorf("asClaudeRole(%q) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestSystemInstructionText(t *testing.T) {
	tests := []struct {
		name   string
		config *genai.GenerateContentConfig
		want   string
	}{
		{
			name:   "nil_config",
			config: nil,
			want:   "",
		},
		{
			name:   "no_instruction",
			config: &genai.GenerateContentConfig{},
			want:   "",
		},
		{
			name: "multiple_parts",
			config: &genai.GenerateContentConfig{
				SystemInstruction: &genai.Content{
					Parts: []*genai.Part{
						genai.NewPartFromText("You are a helpful assistant."),
						genai.NewPartFromText(" Answer briefly."),
					},
				},
			},
			want: "You are a helpful assistant. Answer briefly.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := systemInstructionText(tt.config); got != tt.want {
				t.Errorf("systemInstructionText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPartToClaudeMessageBlock(t *testing.T) {
	tests := []struct {
		name   string
		part   *genai.Part
		wantOK bool
	}{
		{
			name:   "text_part",
			part:   genai.NewPartFromText("hello"),
			wantOK: true,
		},
		{
			name: "inline_image",
			part: &genai.Part{
				InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{0x89, 0x50}},
			},
			wantOK: true,
		},
		{
			name:   "empty_part",
			part:   &genai.Part{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := partToClaudeMessageBlock(tt.part); ok != tt.wantOK {
				t.Errorf("partToClaudeMessageBlock() ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestContentToClaudeMessageParam(t *testing.T) {
	content := &genai.Content{
		Role: genai.RoleModel,
		Parts: []*genai.Part{
			genai.NewPartFromText("first"),
			{}, // skipped
			genai.NewPartFromText("second"),
		},
	}

	got := contentToClaudeMessageParam(content)
	if got.Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("Role = %v, want %v", got.Role, anthropic.MessageParamRoleAssistant)
	}
	if len(got.Content) != 2 {
		t.Errorf("len(Content) = %d, want 2", len(got.Content))
	}
}

func TestClaudeMessageToLLMResponse(t *testing.T) {
	message := anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "Hello, "},
			{Type: "tool_use"},
			{Type: "text", Text: "world"},
		},
	}

	got := claudeMessageToLLMResponse(message)
	if got.Content.Role != genai.RoleModel {
		t.Errorf("Role = %q, want %q", got.Content.Role, genai.RoleModel)
	}
	wantTexts := []string{"Hello, ", "world"}
	var gotTexts []string
	for _, part := range got.Content.Parts {
		gotTexts = append(gotTexts, part.Text)
	}
	if diff := cmp.Diff(wantTexts, gotTexts); diff != "" {
		t.Errorf("text parts mismatch (-want +got):\n%s", diff)
	}
}

func TestContentToOllamaMessage(t *testing.T) {
	tests := []struct {
		name       string
		content    *genai.Content
		wantRole   string
		wantText   string
		wantImages int
	}{
		{
			name: "user_text",
			content: &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{genai.NewPartFromText("hi")},
			},
			wantRole: "user",
			wantText: "hi",
		},
		{
			name: "model_role_maps_to_assistant",
			content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{genai.NewPartFromText("sure")},
			},
			wantRole: "assistant",
			wantText: "sure",
		},
		{
			name: "text_parts_concatenate",
			content: &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{
					genai.NewPartFromText("what is "),
					genai.NewPartFromText("this?"),
				},
			},
			wantRole: "user",
			wantText: "what is this?",
		},
		{
			name: "image_with_caption",
			content: &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}},
					genai.NewPartFromText("describe this"),
				},
			},
			wantRole:   "user",
			wantText:   "describe this",
			wantImages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contentToOllamaMessage(tt.content)
			if got.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", got.Role, tt.wantRole)
			}
			if got.Content != tt.wantText {
				t.Errorf("Content = %q, want %q", got.Content, tt.wantText)
			}
			if len(got.Images) != tt.wantImages {
				t.Errorf("len(Images) = %d, want %d", len(got.Images), tt.wantImages)
			}
		})
	}
}

func TestBaseLLM_MergeConfig(t *testing.T) {
	base := NewBaseLLM("test-model",
		WithGenerationConfig(&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(0.5)),
			MaxOutputTokens: 100,
		}),
		WithSafetySettings([]*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
		}),
	)

	schema := &genai.Schema{Type: genai.TypeObject}
	request := &types.LLMRequest{
		Config: &genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.9)),
			ResponseSchema:   schema,
			ResponseMIMEType: "application/json",
		},
	}

	got := base.mergeConfig(request)
	if got.Temperature == nil || *got.Temperature != 0.9 {
		t.Errorf("Temperature = %v, want 0.9", got.Temperature)
	}
	if got.MaxOutputTokens != 100 {
		t.Errorf("MaxOutputTokens = %d, want 100 from defaults", got.MaxOutputTokens)
	}
	if got.ResponseSchema != schema {
		t.Error("ResponseSchema not taken from request")
	}
	if got.ResponseMIMEType != "application/json" {
		t.Errorf("ResponseMIMEType = %q, want application/json", got.ResponseMIMEType)
	}
	if len(got.SafetySettings) != 1 {
		t.Errorf("len(SafetySettings) = %d, want 1 from model fallback", len(got.SafetySettings))
	}
}

func TestBaseLLM_AppendUserContent(t *testing.T) {
	base := NewBaseLLM("test-model")

	t.Run("empty_contents", func(t *testing.T) {
		got := base.appendUserContent(nil)
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
		if got[0].Role != genai.RoleUser {
			t.Errorf("Role = %q, want %q", got[0].Role, genai.RoleUser)
		}
	})

	t.Run("trailing_model_turn", func(t *testing.T) {
		contents := []*genai.Content{
			{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText("hi")}},
			{Role: genai.RoleModel, Parts: []*genai.Part{genai.NewPartFromText("hello")}},
		}
		got := base.appendUserContent(contents)
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		if got[2].Role != genai.RoleUser {
			t.Errorf("appended Role = %q, want %q", got[2].Role, genai.RoleUser)
		}
	})

	t.Run("trailing_user_turn", func(t *testing.T) {
		contents := []*genai.Content{
			{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText("hi")}},
		}
		got := base.appendUserContent(contents)
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
	})
}

func TestBaseLLM_LogRequest(t *testing.T) {
	request := types.NewLLMRequest(
		[]*genai.Content{
			{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{genai.NewPartFromText("hello")},
			},
		},
		types.WithModelName("test-model"),
	)

	t.Run("debug_level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		base := NewBaseLLM("test-model", WithLogger(logger))
		base.logRequest(t.Context(), request)

		got := buf.String()
		if !strings.Contains(got, "test-model") {
			t.Errorf("log output missing model name: %q", got)
		}
		if !strings.Contains(got, "hello") {
			t.Errorf("log output missing request content: %q", got)
		}
	})

	t.Run("info_level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		base := NewBaseLLM("test-model", WithLogger(logger))
		base.logRequest(t.Context(), request)

		if buf.Len() != 0 {
			t.Errorf("request logged above debug level: %q", buf.String())
		}
	})
}

func TestNewAggregateText(t *testing.T) {
	got := newAggregateText("Hello, world")

	if !got.TurnComplete {
		t.Error("aggregate response must have TurnComplete set")
	}
	if got.Partial {
		t.Error("aggregate response must not be partial")
	}
	if text := got.GetText(); text != "Hello, world" {
		t.Errorf("GetText() = %q, want %q", text, "Hello, world")
	}
}

func TestContainsText(t *testing.T) {
	if containsText(&types.LLMResponse{}) {
		t.Error("containsText(empty) = true, want false")
	}
	resp := &types.LLMResponse{
		Content: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText("x")}},
	}
	if !containsText(resp) {
		t.Error("containsText(text) = false, want true")
	}
}

func TestIsAudio(t *testing.T) {
	tests := []struct {
		name string
		resp *types.LLMResponse
		want bool
	}{
		{
			name: "no_content",
			resp: &types.LLMResponse{},
			want: false,
		},
		{
			name: "audio_mime",
			resp: &types.LLMResponse{
				Content: &genai.Content{Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "audio/pcm", Data: []byte{0x00}}},
				}},
			},
			want: true,
		},
		{
			name: "image_mime",
			resp: &types.LLMResponse{
				Content: &genai.Content{Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{0x89}}},
				}},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAudio(tt.resp); got != tt.want {
				t.Errorf("isAudio() = %v, want %v", got, tt.want)
			}
		})
	}
}
