// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/types"
)

const (
	// CancelledNotice is the literal text an assistant message carries when a
	// request is cancelled before any chunk arrived.
	CancelledNotice = "Response generation was cancelled."

	// FailureNotice is the generic text appended when a streaming call fails.
	// The partial reply is removed; raw diagnostics go to logs only.
	FailureNotice = "Sorry, something went wrong while generating a response. Please try again."
)

// UpdateFunc observes transcript changes. It is invoked outside the session
// lock with a deep snapshot, once per mutation: submit, each applied chunk,
// and every terminal transition.
type UpdateFunc func(transcript types.Transcript)

// Session owns one conversation transcript and drives streamed generation
// requests against a [types.Model].
//
// At most one request is in flight per session; a submission while busy is
// rejected with [types.ErrBusy], not queued. Cancellation is cooperative:
// a superseded request's late chunks are discarded, never applied.
type Session struct {
	appName string
	userID  string
	id      string

	model  types.Model
	logger *slog.Logger

	onUpdate UpdateFunc

	mu         sync.Mutex
	transcript types.Transcript
	active     *Handle
	inFlight   bool
	createdAt  time.Time
	lastUpdate time.Time
}

// Option configures a [Session].
type Option func(*Session)

// WithLogger sets the logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithOnUpdate registers the transcript observer. UI layers use it to render
// streamed output as it accumulates.
func WithOnUpdate(fn UpdateFunc) Option {
	return func(s *Session) {
		s.onUpdate = fn
	}
}

// NewSession creates a new [Session] bound to the given model. An empty
// sessionID is replaced with a fresh UUID.
func NewSession(appName, userID, sessionID string, model types.Model, opts ...Option) *Session {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	s := &Session{
		appName:   appName,
		userID:    userID,
		id:        sessionID,
		model:     model,
		logger:    slog.Default(),
		createdAt: time.Now(),
	}
	s.lastUpdate = s.createdAt

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AppName returns the application name the session belongs to.
func (s *Session) AppName() string { return s.appName }

// UserID returns the owning user ID.
func (s *Session) UserID() string { return s.userID }

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastUpdateTime returns the time of the last transcript mutation.
func (s *Session) LastUpdateTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate
}

// Busy reports whether a request is currently in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Messages returns a deep snapshot of the transcript. Mutating the snapshot
// does not affect the session.
func (s *Session) Messages() types.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked deep-copies the transcript. The caller holds the lock.
func (s *Session) snapshotLocked() types.Transcript {
	var snapshot types.Transcript
	if err := deepcopy.Copy(&snapshot, s.transcript); err != nil {
		// A transcript is plain data; copying it cannot fail.
		panic(fmt.Sprintf("session: transcript snapshot: %v", err))
	}
	return snapshot
}

// Send submits a user message and starts a streamed generation request.
//
// The trimmed text must be non-empty and no request may be in flight. The
// returned [Handle] owns the request's cancellation and terminal state.
func (s *Session) Send(ctx context.Context, text string) (*Handle, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, types.ErrEmptyMessage
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, types.ErrBusy
	}

	msg := types.NewUserMessage(text)
	s.transcript = append(s.transcript, msg)
	handle, contents := s.startRequestLocked(ctx)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Sending message",
		slog.String("session_id", s.id),
		slog.String("message_id", msg.ID),
	)
	s.notify()

	go s.run(handle, contents)

	return handle, nil
}

// EditMessage replaces the content of a past user message and regenerates
// everything after it.
//
// The transcript is truncated to end at messageID inclusive, the message's
// content is replaced and its timestamp refreshed, and a fresh streamed
// request is issued with the truncated history as context. Replies that were
// downstream of the edited turn are discarded permanently.
func (s *Session) EditMessage(ctx context.Context, messageID, newContent string) (*Handle, error) {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return nil, types.ErrEmptyMessage
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, types.ErrBusy
	}

	i := s.transcript.Index(messageID)
	if i < 0 {
		s.mu.Unlock()
		return nil, types.ErrMessageNotFound
	}
	msg := s.transcript[i]
	if msg.Role != types.RoleUser {
		s.mu.Unlock()
		return nil, types.ErrNotUserMessage
	}

	discarded := len(s.transcript) - i - 1
	s.transcript = s.transcript[:i+1]
	msg.Content = newContent
	msg.CreatedAt = time.Now()
	handle, contents := s.startRequestLocked(ctx)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Editing message",
		slog.String("session_id", s.id),
		slog.String("message_id", messageID),
		slog.Int("discarded", discarded),
	)
	s.notify()

	go s.run(handle, contents)

	return handle, nil
}

// startRequestLocked marks the session busy and snapshots the conversation
// context for the transport. The caller holds the lock.
func (s *Session) startRequestLocked(ctx context.Context) (*Handle, []*genai.Content) {
	s.inFlight = true
	s.lastUpdate = time.Now()

	handle := newHandle(ctx, s)
	s.active = handle

	return handle, s.transcript.Contents()
}

// Cancel cancels the in-flight request, if any. Cancelling an idle session
// is a no-op returning false.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	h := s.active
	s.mu.Unlock()
	if h == nil {
		return false
	}
	return s.cancelHandle(h)
}

// Reset cancels any in-flight request and clears the transcript, starting a
// fresh conversation in place.
func (s *Session) Reset() {
	s.Cancel()

	s.mu.Lock()
	s.transcript = nil
	s.lastUpdate = time.Now()
	s.mu.Unlock()

	s.notify()
}

// run consumes the streaming call for one request. It exits as soon as the
// handle stops being live; remaining chunks are never applied.
func (s *Session) run(h *Handle, contents []*genai.Content) {
	req := types.NewLLMRequest(contents, types.WithModelName(s.model.Name()))

	h.state.CompareAndSwap(int64(HandlePending), int64(HandleStreaming))

	var acc strings.Builder
	for resp, err := range s.model.StreamGenerateContent(h.ctx, req) {
		if err != nil {
			s.fail(h, err)
			return
		}
		// Backends report safety blocks and empty candidates as in-band
		// error responses rather than stream errors.
		if resp.IsError() {
			s.fail(h, fmt.Errorf("model error %s: %s", resp.ErrorCode, resp.ErrorMessage))
			return
		}
		if !h.live.Load() {
			return
		}

		switch {
		case resp.Partial:
			if text := resp.GetText(); text != "" {
				acc.WriteString(text)
				s.applyChunk(h, acc.String())
			}

		case resp.TurnComplete:
			// The aggregate carries the authoritative full text.
			if text := resp.GetText(); text != "" {
				s.applyChunk(h, text)
			}
		}
	}

	s.complete(h)
}

// applyChunk sets the accumulated text on the request's assistant message,
// creating it on the first chunk. Chunks of a non-live handle are discarded.
func (s *Session) applyChunk(h *Handle, accumulated string) {
	s.mu.Lock()
	if !h.live.Load() {
		s.mu.Unlock()
		return
	}

	if h.msg == nil {
		h.msg = types.NewAssistantMessage(accumulated)
		h.msg.Streaming = true
		s.transcript = append(s.transcript, h.msg)
	} else {
		h.msg.Content = accumulated
	}
	s.lastUpdate = time.Now()
	s.mu.Unlock()

	s.notify()
}

// complete finishes the request normally: the streaming flag clears and the
// accumulated content stays as the reply.
func (s *Session) complete(h *Handle) {
	s.mu.Lock()
	if !h.live.CompareAndSwap(true, false) {
		s.mu.Unlock()
		return
	}

	if h.msg != nil {
		h.msg.Streaming = false
	}
	s.settleLocked(h)
	h.finish(HandleCompleted, nil)
	s.mu.Unlock()

	s.notify()
}

// fail finishes the request on a transport failure: the partial assistant
// message is removed entirely and a generic failure notice is appended in
// its place.
func (s *Session) fail(h *Handle, err error) {
	s.mu.Lock()
	if !h.live.CompareAndSwap(true, false) {
		s.mu.Unlock()
		return
	}

	if h.msg != nil {
		if i := s.transcript.Index(h.msg.ID); i >= 0 {
			s.transcript = append(s.transcript[:i], s.transcript[i+1:]...)
		}
		h.msg = nil
	}
	s.transcript = append(s.transcript, types.NewAssistantMessage(FailureNotice))
	s.settleLocked(h)
	h.finish(HandleFailed, fmt.Errorf("stream generation: %w", err))
	s.mu.Unlock()

	s.logger.Error("Streaming call failed",
		slog.String("session_id", s.id),
		slog.Any("err", err),
	)
	s.notify()
}

// cancelHandle drives the cancelled transition for h. The streaming flag is
// cleared before this returns; a request that never received a chunk leaves
// an assistant message carrying the cancellation notice.
func (s *Session) cancelHandle(h *Handle) bool {
	s.mu.Lock()
	if !h.live.CompareAndSwap(true, false) {
		s.mu.Unlock()
		return false
	}

	if h.msg != nil {
		if h.msg.Content == "" {
			h.msg.Content = CancelledNotice
		}
		h.msg.Streaming = false
	} else {
		s.transcript = append(s.transcript, types.NewAssistantMessage(CancelledNotice))
	}
	s.settleLocked(h)
	h.finish(HandleCancelled, context.Canceled)
	s.mu.Unlock()

	s.logger.Info("Cancelled in-flight request", slog.String("session_id", s.id))
	s.notify()

	return true
}

// settleLocked returns the session to idle after a terminal transition. The
// caller holds the lock.
func (s *Session) settleLocked(h *Handle) {
	if s.active == h {
		s.active = nil
	}
	s.inFlight = false
	s.lastUpdate = time.Now()
}

// notify invokes the transcript observer outside the lock.
func (s *Session) notify() {
	if s.onUpdate == nil {
		return
	}
	s.onUpdate(s.Messages())
}
