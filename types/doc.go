// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package types provides core interfaces and contracts for MedKit.
//
// The types package defines the fundamental structures and contracts that all
// components of the MedKit orchestration layer follow. It serves as the
// central definition of how sessions, models, validators, and analyzers
// interact with each other.
//
// # Conversation Model
//
// A conversation is an ordered [Transcript] of [Message] values. Messages are
// created on user submission or on the first streamed chunk of a model reply:
//
//	type Message struct {
//		ID        string
//		Role      Role
//		Content   string
//		CreatedAt time.Time
//		Streaming bool
//	}
//
// At most one message in a transcript is streaming at any time. Messages are
// mutated in place while chunks arrive and are removed only by edit
// truncation or session reset.
//
// # Model Interface
//
// The Model interface provides unified LLM abstraction:
//
//	type Model interface {
//		Name() string
//		SupportedModels() []string
//		GenerateContent(ctx context.Context, request *LLMRequest) (*LLMResponse, error)
//		StreamGenerateContent(ctx context.Context, request *LLMRequest) iter.Seq2[*LLMResponse, error]
//	}
//
// This abstraction supports multiple providers (Google Gemini, Anthropic
// Claude, Ollama) with consistent interfaces for both synchronous and
// streaming generation.
//
// # Structured Analysis Records
//
// Analyzer replies decode into fixed-shape records with enumerated fields and
// an integer confidence in [0, 100]:
//
//	type ImageAnalysis struct {
//		Findings        []string
//		Assessment      string
//		Recommendations []string
//		Severity        Severity
//		UrgencyLevel    Urgency
//		Confidence      int
//	}
//
// Every record type carries a Validate method that accepts the record
// wholesale or rejects it; a reply never yields a partially-trusted record.
//
// # Error Taxonomy
//
// The package defines the error vocabulary shared by all components:
//
//   - RejectionError: input failed a validity-gate domain predicate
//   - ParseError: a model reply did not conform to the declared schema
//   - DuplicateError: an item is already present in a local collection
//   - ErrBusy, ErrEmptyMessage, ErrMessageNotFound, ErrNotUserMessage:
//     sentinel preconditions of the session state machine
//
// RejectionError and DuplicateError render user-facing text; ParseError is
// distinguishable from transport failures in logs via [errors.As] while
// surfacing the same generic retry message to end users.
//
// # Attachment Management
//
// Attachments provide versioned storage of uploaded inputs:
//
//	type AttachmentService interface {
//		SaveAttachment(ctx context.Context, appName, userID, sessionID, name string, attachment Input) (int, error)
//		LoadAttachment(ctx context.Context, appName, userID, sessionID, name string, version int) (Input, error)
//		ListAttachmentKeys(ctx context.Context, appName, userID, sessionID string) ([]string, error)
//		DeleteAttachment(ctx context.Context, appName, userID, sessionID, name string) error
//		ListVersions(ctx context.Context, appName, userID, sessionID, name string) ([]int, error)
//		Close() error
//	}
//
// # Iterator Patterns
//
// Streaming uses Go 1.23+ iterators throughout:
//
//	for resp, err := range model.StreamGenerateContent(ctx, req) {
//		if err != nil {
//			// Handle error
//			break
//		}
//		// Apply chunk
//	}
//
// # Thread Safety
//
// Values in this package are plain data and carry no synchronization of
// their own. Owners (the session layer, the services) provide it.
package types
