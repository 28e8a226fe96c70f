// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	rand "math/rand/v2"
	"time"
	"unsafe"

	"github.com/bytedance/sonic"
	"google.golang.org/genai"
)

// Role represents the author of a [Message].
type Role string

const (
	// RoleUser is the role of the user.
	RoleUser Role = "user"

	// RoleAssistant is the role of the assistant.
	RoleAssistant Role = "assistant"
)

// GenAIRole maps the role onto the genai wire vocabulary, which calls the
// assistant side "model".
func (r Role) GenAIRole() genai.Role {
	if r == RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// Message represents one turn in a conversation transcript.
//
// A user message is created on submit; an assistant message is created on the
// first streamed chunk with Streaming set and is mutated in place as further
// chunks arrive. Streaming flips to false on completion, cancellation, or
// error, and stays false for the rest of the message's life.
type Message struct {
	// ID is the unique identifier of the message within its session.
	ID string `json:"id"`

	// Role indicates who authored the message.
	Role Role `json:"role"`

	// Content is the message text. While Streaming is true it holds the
	// concatenation of all chunks received so far.
	Content string `json:"content"`

	// CreatedAt is when the message was created, refreshed on edit.
	CreatedAt time.Time `json:"createdAt"`

	// Streaming reports whether the message is still being produced.
	Streaming bool `json:"streaming,omitempty"`
}

// NewUserMessage creates a user [Message] with a fresh ID and timestamp.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        NewMessageID(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAssistantMessage creates an assistant [Message] with a fresh ID and
// timestamp.
func NewAssistantMessage(content string) *Message {
	return &Message{
		ID:        NewMessageID(),
		Role:      RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// ToContent converts the message into the genai content the model transport
// consumes.
func (m *Message) ToContent() *genai.Content {
	return genai.NewContentFromText(m.Content, m.Role.GenAIRole())
}

// Transcript is the ordered sequence of messages of one session.
//
// At most one message has Streaming set at any time. Roles alternate in the
// common case but consecutive same-role entries are tolerated; error-recovery
// paths produce them.
type Transcript []*Message

// Contents converts the transcript into the ordered genai contents sent as
// conversation context.
func (t Transcript) Contents() []*genai.Content {
	contents := make([]*genai.Content, len(t))
	for i, m := range t {
		contents[i] = m.ToContent()
	}
	return contents
}

// Index returns the position of the message with the given ID, or -1.
func (t Transcript) Index(id string) int {
	for i, m := range t {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the message with the given ID, or nil.
func (t Transcript) Find(id string) *Message {
	if i := t.Index(id); i >= 0 {
		return t[i]
	}
	return nil
}

// StreamingMessage returns the message currently being streamed, or nil.
func (t Transcript) StreamingMessage() *Message {
	for _, m := range t {
		if m.Streaming {
			return m
		}
	}
	return nil
}

// EncodeMessages encodes messages to JSON for export.
func EncodeMessages(messages []*Message) ([]byte, error) {
	return sonic.ConfigFastest.Marshal(messages)
}

// DecodeMessages decodes messages from their JSON export form.
func DecodeMessages(data []byte) ([]*Message, error) {
	var messages []*Message
	if err := sonic.ConfigFastest.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

const (
	letterBytes   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	letterIdxBits = 6                    // 6 bits to represent a letter index
	letterIdxMask = 1<<letterIdxBits - 1 // All 1-bits, as many as letterIdxBits
	letterIdxMax  = 63 / letterIdxBits   // # of letter indices fitting in 63 bits
)

// NewMessageID returns a short random identifier, unique enough within a
// session transcript.
func NewMessageID() string {
	b := make([]byte, 8)
	for i, cache, remain := 8-1, rand.Int64(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache = rand.Int64()
			remain = letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(letterBytes) {
			b[i] = letterBytes[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}

	return *(*string)(unsafe.Pointer(&b))
}
