// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"google.golang.org/genai"
)

// Input is the payload of a validation or analysis call: free text, raw
// bytes with a MIME type, or both (an image plus a user note).
type Input struct {
	// Text is the textual part of the input, if any.
	Text string `json:"text,omitempty"`

	// Data is the raw byte content, typically an uploaded image.
	Data []byte `json:"data,omitempty"`

	// MIMEType describes Data, e.g. "image/jpeg".
	MIMEType string `json:"mimeType,omitempty"`
}

// TextInput wraps free text as an [Input].
func TextInput(text string) Input {
	return Input{Text: text}
}

// ImageInput wraps raw image bytes as an [Input].
func ImageInput(data []byte, mimeType string) Input {
	return Input{Data: data, MIMEType: mimeType}
}

// WithNote attaches free-text context to the input.
func (in Input) WithNote(text string) Input {
	in.Text = text
	return in
}

// IsImage reports whether the input carries byte content.
func (in Input) IsImage() bool {
	return len(in.Data) > 0
}

// IsZero reports whether the input carries nothing at all.
func (in Input) IsZero() bool {
	return in.Text == "" && len(in.Data) == 0
}

// Parts converts the input into genai parts, bytes first so a user note
// reads as a caption to the model.
func (in Input) Parts() []*genai.Part {
	var parts []*genai.Part
	if len(in.Data) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: in.MIMEType,
				Data:     in.Data,
			},
		})
	}
	if in.Text != "" {
		parts = append(parts, genai.NewPartFromText(in.Text))
	}
	return parts
}

// Content wraps the input parts into a single user-role genai content.
func (in Input) Content() *genai.Content {
	return &genai.Content{
		Role:  genai.RoleUser,
		Parts: in.Parts(),
	}
}
