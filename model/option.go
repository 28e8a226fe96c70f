// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"log/slog"

	"google.golang.org/genai"
)

// Config represents the shared configuration of a Large Language Model
// backend.
type Config struct {
	// apiKey authenticates against the provider, when it needs one.
	apiKey string

	// baseURL overrides the provider endpoint, used by local backends.
	baseURL string

	// generationConfig contains default configuration for generation.
	generationConfig *genai.GenerateContentConfig

	// safetySettings contains safety settings for content generation.
	safetySettings []*genai.SafetySetting

	// logger is the logger used for logging.
	logger *slog.Logger
}

func newConfig() Config {
	return Config{
		logger: slog.Default(),
	}
}

// Option is a function that modifies the [Config] model.
type Option interface {
	apply(base Config) Config
}

type apiKeyOption string

func (o apiKeyOption) apply(base Config) Config {
	base.apiKey = string(o)
	return base
}

// WithAPIKey sets the provider API key for the model.
func WithAPIKey(apiKey string) Option {
	return apiKeyOption(apiKey)
}

type baseURLOption string

func (o baseURLOption) apply(base Config) Config {
	base.baseURL = string(o)
	return base
}

// WithBaseURL sets the provider endpoint for the model.
func WithBaseURL(baseURL string) Option {
	return baseURLOption(baseURL)
}

type generationConfigOption struct{ *genai.GenerateContentConfig }

func (o generationConfigOption) apply(base Config) Config {
	base.generationConfig = o.GenerateContentConfig
	return base
}

// WithGenerationConfig sets the default generation configuration for the model.
func WithGenerationConfig(config *genai.GenerateContentConfig) Option {
	return generationConfigOption{config}
}

type safetySettingOption []*genai.SafetySetting

func (o safetySettingOption) apply(base Config) Config {
	base.safetySettings = append(base.safetySettings, o...)
	return base
}

// WithSafetySettings sets the safety settings for the model.
func WithSafetySettings(settings []*genai.SafetySetting) Option {
	return safetySettingOption(settings)
}

type loggerOption struct{ *slog.Logger }

func (o loggerOption) apply(base Config) Config {
	base.logger = o.Logger
	return base
}

// WithLogger sets the logger for the model.
func WithLogger(logger *slog.Logger) Option {
	return loggerOption{logger}
}
