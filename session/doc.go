// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package session provides streaming conversational sessions with
// cancellation and edit-triggered regeneration.
//
// A [Session] owns one ordered conversation transcript and drives streamed
// generation requests against a [types.Model]. Requests follow a fixed state
// machine:
//
//	Idle -> Sending -> Streaming -> {Completed | Cancelled | Failed} -> Idle
//
// # Single-flight
//
// At most one request is in flight per session. The guard is a synchronous
// check under the session lock, not a queue: a second submission while busy
// fails with [types.ErrBusy] and the caller decides whether to retry.
//
// # Streaming
//
// The assistant message of a request is created on the first received chunk
// with its streaming flag set and is mutated in place as chunks arrive; its
// content is always the concatenation of every chunk received so far. When
// the chunk sequence ends the flag clears and the message is final.
//
// # Request handles
//
// [Session.Send] and [Session.EditMessage] return a [Handle], the owned
// value representing that one request:
//
//	h, err := ses.Send(ctx, "What does hypertension mean?")
//	if err != nil {
//		// Handle [types.ErrBusy] or [types.ErrEmptyMessage]
//	}
//	if err := h.Wait(ctx); err != nil {
//		// Cancelled or failed
//	}
//
// Cancellation is cooperative. [Handle.Cancel] clears the message's
// streaming flag before it returns and tells the transport to stop; chunks
// that still arrive afterwards find the handle no longer live and are
// discarded rather than applied. Stale requests are inert, never corrupting
// a later request's transcript state.
//
// # Edit and regenerate
//
// Editing a past user turn truncates the transcript after that turn,
// replaces the turn's content, and issues a fresh streamed request with the
// truncated history as context. Every assistant reply downstream of the
// edited turn is discarded permanently; history rewrites the future rather
// than patching it.
//
// # Failure
//
// When a streaming call fails mid-flight the partially materialized
// assistant message is removed entirely and a generic failure notice is
// appended in its place. Raw transport diagnostics go to the logger only.
//
// # Bookkeeping
//
// [Service] and its [InMemoryService] implementation manage many sessions
// keyed by app name, user ID, and session ID, mirroring the layout of the
// attachment store.
package session
