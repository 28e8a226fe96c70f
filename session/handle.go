// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-medkit/medkit-go/types"
)

// HandleState represents the current state of an in-flight request.
type HandleState int64

const (
	// HandlePending indicates the request has been accepted but no chunk has
	// arrived yet.
	HandlePending HandleState = iota
	// HandleStreaming indicates chunks are being applied to the transcript.
	HandleStreaming
	// HandleCompleted indicates the chunk sequence ended normally.
	HandleCompleted
	// HandleCancelled indicates the request was cancelled mid-stream.
	HandleCancelled
	// HandleFailed indicates the call rejected or failed mid-stream.
	HandleFailed
)

// String returns a string representation of the HandleState.
func (s HandleState) String() string {
	switch s {
	case HandlePending:
		return "pending"
	case HandleStreaming:
		return "streaming"
	case HandleCompleted:
		return "completed"
	case HandleCancelled:
		return "cancelled"
	case HandleFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is one of the terminal states.
func (s HandleState) Terminal() bool {
	switch s {
	case HandleCompleted, HandleCancelled, HandleFailed:
		return true
	}
	return false
}

// Handle represents one in-flight generation request of a [Session].
//
// A handle is returned by [Session.Send] and [Session.EditMessage] and owns
// the cancellation of its request. At most one live handle exists per
// session; once a handle reaches a terminal state it becomes inert and its
// late-arriving chunks are discarded rather than applied to the transcript.
type Handle struct {
	session *Session

	// ctx is the context the streaming call runs under.
	ctx context.Context
	// cancel stops the transport from producing further chunks.
	cancel context.CancelFunc

	// live is cleared exactly once, on the transition to a terminal state.
	// Chunk application checks it under the session lock.
	live atomic.Bool

	// state tracks the current handle state for fast reads.
	state atomic.Int64

	// msg is the assistant message this request is materializing, created on
	// the first chunk. Guarded by the session lock.
	msg *types.Message

	// done is closed when the handle reaches a terminal state.
	done chan struct{}

	// err is the terminal error, if any. Written once before done is closed.
	mu  sync.RWMutex
	err error

	created time.Time
}

func newHandle(ctx context.Context, s *Session) *Handle {
	hctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		session: s,
		ctx:     hctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		created: time.Now(),
	}
	h.live.Store(true)
	h.state.Store(int64(HandlePending))
	return h
}

// State returns the current state of the handle.
func (h *Handle) State() HandleState {
	return HandleState(h.state.Load())
}

// Done returns a channel that is closed when the handle reaches a terminal
// state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cancel requests cancellation of the request.
//
// If the handle is still live, the streaming message keeps whatever partial
// content it has accumulated, its streaming flag is cleared before Cancel
// returns, and the transport is told to stop producing chunks. Cancelling a
// handle that already reached a terminal state has no effect and returns
// false.
func (h *Handle) Cancel() bool {
	return h.session.cancelHandle(h)
}

// Wait blocks until the handle reaches a terminal state and returns its
// terminal error: nil on completion, [context.Canceled] on cancellation, or
// the transport failure.
//
// The context bounds the wait only; it does not cancel the request itself.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the terminal error without blocking, or nil if the handle is
// not yet terminal or completed normally.
func (h *Handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Created returns the time the request was accepted.
func (h *Handle) Created() time.Time {
	return h.created
}

// finish records the terminal outcome. The caller holds the session lock and
// has already won the live flag.
func (h *Handle) finish(state HandleState, err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	h.state.Store(int64(state))
	h.cancel()
	close(h.done)
}
