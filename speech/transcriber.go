// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// DefaultLanguage is used when a transcription call does not name one.
const DefaultLanguage = "en-US"

// Transcriber turns recorded voice input into text using Google Cloud
// Speech-to-Text. The resulting transcript feeds a session submission or an
// analyzer input like any typed text.
type Transcriber struct {
	client   *speech.Client
	language string
	logger   *slog.Logger
}

// Option configures a [Transcriber].
type Option func(*Transcriber)

// WithLanguage sets the default language code for recognition.
func WithLanguage(language string) Option {
	return func(t *Transcriber) {
		t.language = language
	}
}

// WithLogger sets the logger for the transcriber.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transcriber) {
		t.logger = logger
	}
}

// NewTranscriber creates a new [Transcriber] with default credential
// detection.
func NewTranscriber(ctx context.Context, opts ...Option) (*Transcriber, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes: speech.DefaultAuthScopes(),
	})
	if err != nil {
		return nil, fmt.Errorf("get credentials for speech: %w", err)
	}

	client, err := speech.NewClient(ctx, option.WithAuthCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create gRPC speech client: %w", err)
	}

	t := &Transcriber{
		client:   client,
		language: DefaultLanguage,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Transcribe recognizes LINEAR16 16kHz audio and returns the spoken text.
// An empty languageCode falls back to the transcriber's default language.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("transcribe: empty audio")
	}
	if languageCode == "" {
		languageCode = t.language
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: 16000,
			LanguageCode:    languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audio,
			},
		},
	}

	response, err := t.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("recognize audio: %w", err)
	}

	var sb strings.Builder
	for _, result := range response.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(result.Alternatives[0].Transcript)
	}

	transcript := strings.TrimSpace(sb.String())
	t.logger.InfoContext(ctx, "Transcribed voice input",
		slog.String("language", languageCode),
		slog.Int("bytes", len(audio)),
		slog.Int("characters", len(transcript)),
	)

	return transcript, nil
}

// Close closes the underlying client connection.
func (t *Transcriber) Close() error {
	return t.client.Close()
}
