// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the medchat settings, read from an optional YAML file and
// overridable through MEDCHAT_* environment variables (dots become
// underscores, e.g. MEDCHAT_SPEECH_LANGUAGE).
type Config struct {
	// Model is the model name resolved through the backend registry,
	// e.g. "gemini-2.0-flash", "claude-3-7-sonnet-20250219", "llama3.2".
	Model string `mapstructure:"model"`

	// APIKey authenticates against the selected backend. Unused by the
	// local Ollama backend.
	APIKey string `mapstructure:"api_key"`

	// AppName and UserID key session and attachment bookkeeping.
	AppName string `mapstructure:"app_name"`
	UserID  string `mapstructure:"user_id"`

	Speech  SpeechConfig  `mapstructure:"speech"`
	Storage StorageConfig `mapstructure:"storage"`
}

// SpeechConfig configures voice input.
type SpeechConfig struct {
	// Language is the BCP-47 recognition language code.
	Language string `mapstructure:"language"`
}

// StorageConfig configures the attachment store.
type StorageConfig struct {
	// Bucket is a GCS bucket name. Empty keeps attachments in memory.
	Bucket string `mapstructure:"bucket"`
}

// LoadConfig reads the configuration from configFile if given, otherwise
// from medchat.yaml in the working directory when present. Environment
// variables take precedence over the file.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("model", "gemini-2.0-flash")
	v.SetDefault("app_name", "medchat")
	v.SetDefault("user_id", "local")
	v.SetDefault("speech.language", "en-US")

	v.SetEnvPrefix("medchat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("medchat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
