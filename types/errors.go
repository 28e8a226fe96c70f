// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBusy is returned when a submission is attempted while a request is
	// already in flight. Submissions are rejected, not queued.
	ErrBusy = errors.New("a request is already in flight")

	// ErrEmptyMessage is returned when a submission carries no content after
	// trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageNotFound is returned when an edit names a message that is not
	// in the transcript.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotUserMessage is returned when an edit names an assistant message.
	ErrNotUserMessage = errors.New("only user messages can be edited")

	// ErrTooFewMedications is returned when an interaction check is requested
	// with fewer than two medications collected.
	ErrTooFewMedications = errors.New("at least two medications are required")
)

// NotImplementedError is the error type for unimplemented behaiviour.
type NotImplementedError string

// Error returns a string representation of the [NotImplementedError].
func (e NotImplementedError) Error() string {
	return string(e)
}

// RejectionError reports that an input failed a validity-gate domain
// predicate at the final checkpoint. Its message is user-facing and names the
// accepted input categories.
type RejectionError struct {
	// Domain is the name of the gate domain that rejected the input.
	Domain string

	// Message is the gate's explanation, if it produced one.
	Message string

	// Categories lists the inputs the domain accepts.
	Categories []string
}

// Error returns the user-facing rejection text.
func (e *RejectionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("The input does not appear to be %s.", e.Domain)
	}
	if len(e.Categories) == 0 {
		return msg
	}
	return fmt.Sprintf("%s Accepted inputs: %s.", msg, strings.Join(e.Categories, ", "))
}

// ParseError reports that a model reply did not conform to the declared
// record schema. It is distinguishable from a transport failure in logs; end
// users see the same generic retry message for both.
type ParseError struct {
	// Raw is the reply text that failed to decode. It goes to logs only,
	// never to users.
	Raw string

	// Err is the underlying decode or shape violation.
	Err error
}

// Error returns a diagnostic description without the raw reply.
func (e *ParseError) Error() string {
	return fmt.Sprintf("model reply does not match the expected schema: %v", e.Err)
}

// Unwrap returns the underlying violation.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// DuplicateError reports that an item is already present in a local
// collection. It is produced synchronously, before any network call.
type DuplicateError struct {
	// Item is the rejected entry as the user typed it.
	Item string
}

// Error returns the user-facing duplicate text.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%q is already in the list", e.Item)
}
