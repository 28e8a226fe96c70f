// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package session_test

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"

	"github.com/go-medkit/medkit-go/internal/xiter"
	"github.com/go-medkit/medkit-go/session"
	"github.com/go-medkit/medkit-go/types"
)

// streamEvent is one scripted chunk, in-band error reply, or failure.
type streamEvent struct {
	text string
	code string
	msg  string
	err  error
}

// scriptedStream is one streaming call under test control. The stream
// deliberately ignores context cancellation so that straggling chunks after
// a cancel exercise the liveness discard path.
type scriptedStream struct {
	contents []*genai.Content
	events   chan streamEvent
	drained  chan struct{}
}

func (st *scriptedStream) push(t *testing.T, text string) {
	t.Helper()
	select {
	case st.events <- streamEvent{text: text}:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out pushing chunk")
	}
}

func (st *scriptedStream) fail(t *testing.T, err error) {
	t.Helper()
	select {
	case st.events <- streamEvent{err: err}:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out pushing stream error")
	}
}

// reject yields an in-band error response, the shape a backend produces for
// a safety block or an empty candidate.
func (st *scriptedStream) reject(t *testing.T, code, msg string) {
	t.Helper()
	select {
	case st.events <- streamEvent{code: code, msg: msg}:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out pushing error reply")
	}
}

func (st *scriptedStream) end() {
	close(st.events)
}

// scriptedModel implements [types.Model] with streams driven by the test.
type scriptedModel struct {
	streams chan *scriptedStream
}

var _ types.Model = (*scriptedModel)(nil)

func newScriptedModel() *scriptedModel {
	return &scriptedModel{
		streams: make(chan *scriptedStream, 8),
	}
}

func (m *scriptedModel) Name() string              { return "scripted" }
func (m *scriptedModel) SupportedModels() []string { return nil }

func (m *scriptedModel) GenerateContent(ctx context.Context, request *types.LLMRequest) (*types.LLMResponse, error) {
	return nil, errors.New("scriptedModel supports streaming only")
}

func (m *scriptedModel) StreamGenerateContent(ctx context.Context, request *types.LLMRequest) iter.Seq2[*types.LLMResponse, error] {
	st := &scriptedStream{
		contents: request.Contents,
		events:   make(chan streamEvent),
		drained:  make(chan struct{}),
	}
	m.streams <- st

	return func(yield func(*types.LLMResponse, error) bool) {
		defer close(st.drained)
		for ev := range st.events {
			if ev.err != nil {
				yield(nil, ev.err)
				return
			}
			if ev.code != "" {
				yield(&types.LLMResponse{ErrorCode: ev.code, ErrorMessage: ev.msg}, nil)
				return
			}
			chunk := &types.LLMResponse{
				Content: &genai.Content{
					Role:  genai.RoleModel,
					Parts: []*genai.Part{genai.NewPartFromText(ev.text)},
				},
				Partial: true,
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// next returns the stream of the most recently started request.
func (m *scriptedModel) next(t *testing.T) *scriptedStream {
	t.Helper()
	select {
	case st := <-m.streams:
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a streaming call")
		return nil
	}
}

// waitFor polls until cond holds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// turns projects a transcript onto comparable (role, content) pairs.
func turns(transcript types.Transcript) [][2]string {
	out := make([][2]string, len(transcript))
	for i, m := range transcript {
		out[i] = [2]string{string(m.Role), m.Content}
	}
	return out
}

// completeTurn runs one full send-and-reply round.
func completeTurn(t *testing.T, ses *session.Session, m *scriptedModel, text, reply string) {
	t.Helper()
	h, err := ses.Send(t.Context(), text)
	if err != nil {
		t.Fatalf("Send(%q): %v", text, err)
	}
	st := m.next(t)
	st.push(t, reply)
	st.end()
	if err := h.Wait(t.Context()); err != nil {
		t.Fatalf("Wait after %q: %v", text, err)
	}
}

func TestSession_StreamingAccumulation(t *testing.T) {
	m := newScriptedModel()
	ses := session.NewSession("medchat", "u1", "", m)

	h, err := ses.Send(t.Context(), "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	st := m.next(t)

	wantSteps := []string{"Hel", "Hello, ", "Hello, world"}
	for i, chunk := range []string{"Hel", "lo, ", "world"} {
		st.push(t, chunk)
		want := wantSteps[i]
		waitFor(t, func() bool {
			msgs := ses.Messages()
			return len(msgs) == 2 && msgs[1].Content == want
		})

		msgs := ses.Messages()
		if !msgs[1].Streaming {
			t.Fatalf("after chunk %d: assistant message should still be streaming", i)
		}
		if msgs[1].Role != types.RoleAssistant {
			t.Fatalf("after chunk %d: role = %q, want assistant", i, msgs[1].Role)
		}
	}

	st.end()
	if err := h.Wait(t.Context()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got, want := h.State(), session.HandleCompleted; got != want {
		t.Fatalf("handle state = %v, want %v", got, want)
	}

	msgs := ses.Messages()
	if diff := cmp.Diff([][2]string{
		{"user", "hello"},
		{"assistant", "Hello, world"},
	}, turns(msgs)); diff != "" {
		t.Fatalf("transcript mismatch (-want +got):\n%s", diff)
	}
	if msgs[1].Streaming {
		t.Fatal("assistant message should not be streaming after completion")
	}
	if ses.Busy() {
		t.Fatal("session should be idle after completion")
	}
}

func TestSession_SingleFlight(t *testing.T) {
	m := newScriptedModel()
	ses := session.NewSession("medchat", "u1", "", m)

	h, err := ses.Send(t.Context(), "first")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	st := m.next(t)

	if _, err := ses.Send(t.Context(), "second"); !errors.Is(err, types.ErrBusy) {
		t.Fatalf("concurrent Send error = %v, want ErrBusy", err)
	}
	if _, err := ses.EditMessage(t.Context(), "any", "content"); !errors.Is(err, types.ErrBusy) {
		t.Fatalf("concurrent EditMessage error = %v, want ErrBusy", err)
	}

	st.push(t, "reply")
	st.end()
	if err := h.Wait(t.Context()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	// Back to idle, the next submission is accepted.
	h2, err := ses.Send(t.Context(), "second")
	if err != nil {
		t.Fatalf("Send after idle: %v", err)
	}
	st2 := m.next(t)
	st2.end()
	if err := h2.Wait(t.Context()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestSession_Send_Empty(t *testing.T) {
	ses := session.NewSession("medchat", "u1", "", newScriptedModel())

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := ses.Send(t.Context(), text); !errors.Is(err, types.ErrEmptyMessage) {
			t.Fatalf("Send(%q) error = %v, want ErrEmptyMessage", text, err)
		}
	}
	if len(ses.Messages()) != 0 {
		t.Fatal("rejected submissions must not touch the transcript")
	}
}

func TestSession_CancellationFinality(t *testing.T) {
	m := newScriptedModel()
	ses := session.NewSession("medchat", "u1", "", m)

	h, err := ses.Send(t.Context(), "question")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	st := m.next(t)

	st.push(t, "partial ")
	waitFor(t, func() bool {
		msgs := ses.Messages()
		return len(msgs) == 2 && msgs[1].Content == "partial "
	})

	if !ses.Cancel() {
		t.Fatal("Cancel should report the in-flight request as cancelled")
	}

	// The streaming flag is down immediately after Cancel returns.
	msgs := ses.Messages()
	if msgs[1].Streaming {
		t.Fatal("streaming flag must be false immediately after Cancel returns")
	}
	if msgs[1].Content != "partial " {
		t.Fatalf("partial content = %q, want %q kept", msgs[1].Content, "partial ")
	}

	// A straggling chunk from the not-yet-stopped transport is discarded.
	st.push(t, "straggler")
	<-st.drained

	msgs = ses.Messages()
	if msgs[1].Content != "partial " {
		t.Fatalf("content after late chunk = %q, want %q", msgs[1].Content, "partial ")
	}

	if got, want := h.State(), session.HandleCancelled; got != want {
		t.Fatalf("handle state = %v, want %v", got, want)
	}
	if err := h.Wait(t.Context()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait error = %v, want context.Canceled", err)
	}
	if h.Cancel() {
		t.Fatal("second Cancel must be a no-op")
	}
	if ses.Busy() {
		t.Fatal("session should be idle after cancellation")
	}
}

func TestSession_Cancel_BeforeFirstChunk(t *testing.T) {
	m := newScriptedModel()
	ses := session.NewSession("medchat", "u1", "", m)

	if ses.Cancel() {
		t.Fatal("cancelling an idle session must be a no-op")
	}

	if _, err := ses.Send(t.Context(), "question"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	st := m.next(t)

	if !ses.Cancel() {
		t.Fatal("Cancel should report the in-flight request as cancelled")
	}
	st.end()

	msgs := ses.Messages()
	if diff := cmp.Diff([][2]string{
		{"user", "question"},
		{"assistant", session.CancelledNotice},
	}, turns(msgs)); diff != "" {
		t.Fatalf("transcript mismatch (-want +got):\n%s", diff)
	}
	if msgs[1].Streaming {
		t.Fatal("cancellation notice must not be streaming")
	}
}

func TestSession_StreamFailure(t *testing.T) {
	m := newScriptedModel()
	ses := session.NewSession("medchat", "u1", "", m)

	h, err := ses.Send(t.Context(), "question")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	st := m.next(t)

	st.push(t, "partial reply")
	waitFor(t, func() bool { return len(ses.Messages()) == 2 })

	streamErr := errors.New("quota exhausted")
	st.fail(t, streamErr)

	if err := h.Wait(t.Context()); !errors.Is(err, streamErr) {
		t.Fatalf("Wait error = %v, want wrapped %v", err, streamErr)
	}
	if got, want := h.State(), session.HandleFailed; got != want {
		t.Fatalf("handle state = %v, want %v", got, want)
	}

	// The partial reply is gone; a fresh failure notice stands in its place.
	if diff := cmp.Diff([][2]string{
		{"user", "question"},
		{"assistant", session.FailureNotice},
	}, turns(ses.Messages())); diff != "" {
		t.Fatalf("transcript mismatch (-want +got):\n%s", diff)
	}
	if ses.Busy() {
		t.Fatal("session should be idle after failure")
	}
}

func TestSession_ErrorReply(t *testing.T) {
	m := newScriptedModel()
	ses := session.NewSession("medchat", "u1", "", m)

	h, err := ses.Send(t.Context(), "question")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	st := m.next(t)

	// A safety block arrives as an error-shaped response, not a stream
	// error; it must fail the request, never complete it silently.
	st.reject(t, "SAFETY", "Content was blocked due to safety concerns.")

	if err := h.Wait(t.Context()); err == nil {
		t.Fatal("Wait must surface the error reply")
	}
	if got, want := h.State(), session.HandleFailed; got != want {
		t.Fatalf("handle state = %v, want %v", got, want)
	}

	if diff := cmp.Diff([][2]string{
		{"user", "question"},
		{"assistant", session.FailureNotice},
	}, turns(ses.Messages())); diff != "" {
		t.Fatalf("transcript mismatch (-want +got):\n%s", diff)
	}
	if ses.Busy() {
		t.Fatal("session should be idle after an error reply")
	}
}

func TestSession_ImmediateRejection(t *testing.T) {
	rejected := errors.New("model unavailable")
	m := &rejectingModel{err: rejected}
	ses := session.NewSession("medchat", "u1", "", m)

	h, err := ses.Send(t.Context(), "question")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := h.Wait(t.Context()); !errors.Is(err, rejected) {
		t.Fatalf("Wait error = %v, want wrapped %v", err, rejected)
	}

	if diff := cmp.Diff([][2]string{
		{"user", "question"},
		{"assistant", session.FailureNotice},
	}, turns(ses.Messages())); diff != "" {
		t.Fatalf("transcript mismatch (-want +got):\n%s", diff)
	}
}

// rejectingModel fails every streaming call before the first chunk.
type rejectingModel struct {
	err error
}

var _ types.Model = (*rejectingModel)(nil)

func (m *rejectingModel) Name() string              { return "rejecting" }
func (m *rejectingModel) SupportedModels() []string { return nil }

func (m *rejectingModel) GenerateContent(ctx context.Context, request *types.LLMRequest) (*types.LLMResponse, error) {
	return nil, m.err
}

func (m *rejectingModel) StreamGenerateContent(ctx context.Context, request *types.LLMRequest) iter.Seq2[*types.LLMResponse, error] {
	return xiter.Error[types.LLMResponse](m.err)
}

func TestSession_EditTruncation(t *testing.T) {
	m := newScriptedModel()
	ses := session.NewSession("medchat", "u1", "", m)

	completeTurn(t, ses, m, "u1", "a1")
	completeTurn(t, ses, m, "u2", "a2")
	completeTurn(t, ses, m, "u3", "a3")

	before := ses.Messages()
	if len(before) != 6 {
		t.Fatalf("transcript length = %d, want 6", len(before))
	}
	editID := before[2].ID
	editedAt := before[2].CreatedAt

	h, err := ses.EditMessage(t.Context(), editID, "u2 edited")
	if err != nil {
		t.Fatalf("EditMessage: %v", err)
	}

	st := m.next(t)
	// The regenerated request carries the truncated history ending at the
	// edited turn.
	if len(st.contents) != 3 {
		t.Fatalf("context length = %d, want 3", len(st.contents))
	}
	if got := st.contents[2].Parts[0].Text; got != "u2 edited" {
		t.Fatalf("last context turn = %q, want %q", got, "u2 edited")
	}

	st.push(t, "a2 regenerated")
	st.end()
	if err := h.Wait(t.Context()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	after := ses.Messages()
	if diff := cmp.Diff([][2]string{
		{"user", "u1"},
		{"assistant", "a1"},
		{"user", "u2 edited"},
		{"assistant", "a2 regenerated"},
	}, turns(after)); diff != "" {
		t.Fatalf("transcript mismatch (-want +got):\n%s", diff)
	}

	if after[2].ID != editID {
		t.Fatal("edited message must keep its ID")
	}
	if !after[2].CreatedAt.After(editedAt) {
		t.Fatal("edited message timestamp must be refreshed")
	}
}

func TestSession_EditMessage_Preconditions(t *testing.T) {
	m := newScriptedModel()
	ses := session.NewSession("medchat", "u1", "", m)

	completeTurn(t, ses, m, "u1", "a1")
	msgs := ses.Messages()

	tests := map[string]struct {
		id      string
		content string
		want    error
	}{
		"unknown message":   {id: "missing", content: "text", want: types.ErrMessageNotFound},
		"assistant message": {id: msgs[1].ID, content: "text", want: types.ErrNotUserMessage},
		"empty content":     {id: msgs[0].ID, content: "  ", want: types.ErrEmptyMessage},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ses.EditMessage(t.Context(), tt.id, tt.content); !errors.Is(err, tt.want) {
				t.Fatalf("EditMessage error = %v, want %v", err, tt.want)
			}
		})
	}

	if diff := cmp.Diff(turns(msgs), turns(ses.Messages())); diff != "" {
		t.Fatalf("rejected edits must not touch the transcript:\n%s", diff)
	}
}

func TestSession_Reset(t *testing.T) {
	m := newScriptedModel()
	ses := session.NewSession("medchat", "u1", "", m)

	completeTurn(t, ses, m, "u1", "a1")
	ses.Reset()

	if len(ses.Messages()) != 0 {
		t.Fatal("Reset must clear the transcript")
	}
	if ses.Busy() {
		t.Fatal("session should be idle after Reset")
	}

	completeTurn(t, ses, m, "fresh start", "hello again")
	if len(ses.Messages()) != 2 {
		t.Fatal("session must accept submissions after Reset")
	}
}

func TestSession_OnUpdateSnapshots(t *testing.T) {
	m := newScriptedModel()

	var (
		mu        sync.Mutex
		snapshots []types.Transcript
	)
	ses := session.NewSession("medchat", "u1", "", m,
		session.WithOnUpdate(func(transcript types.Transcript) {
			mu.Lock()
			defer mu.Unlock()
			snapshots = append(snapshots, transcript)
			// Mutating the snapshot must not leak into the session.
			for _, msg := range transcript {
				msg.Content = "mutated"
			}
		}),
	)

	completeTurn(t, ses, m, "hello", "world")

	mu.Lock()
	n := len(snapshots)
	mu.Unlock()
	if n < 3 {
		t.Fatalf("observer invocations = %d, want at least submit, chunk, and completion", n)
	}

	if diff := cmp.Diff([][2]string{
		{"user", "hello"},
		{"assistant", "world"},
	}, turns(ses.Messages())); diff != "" {
		t.Fatalf("snapshot mutation leaked into the session:\n%s", diff)
	}
}

func TestInMemoryService(t *testing.T) {
	m := newScriptedModel()
	svc := session.NewInMemoryService(m)
	ctx := t.Context()

	ses, err := svc.CreateSession(ctx, "medchat", "u1", "s1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if ses.ID() != "s1" {
		t.Fatalf("session ID = %q, want %q", ses.ID(), "s1")
	}

	if _, err := svc.CreateSession(ctx, "medchat", "u1", "s1"); err == nil {
		t.Fatal("creating a duplicate session ID must fail")
	}

	generated, err := svc.CreateSession(ctx, "medchat", "u1", "")
	if err != nil {
		t.Fatalf("CreateSession with generated ID: %v", err)
	}
	if generated.ID() == "" {
		t.Fatal("empty session ID must be replaced with a generated one")
	}

	got, err := svc.GetSession(ctx, "medchat", "u1", "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != ses {
		t.Fatal("GetSession must return the live session")
	}

	sessions, err := svc.ListSessions(ctx, "medchat", "u1")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("session count = %d, want 2", len(sessions))
	}

	if err := svc.DeleteSession(ctx, "medchat", "u1", "s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := svc.GetSession(ctx, "medchat", "u1", "s1"); err == nil {
		t.Fatal("deleted session must not be retrievable")
	}
	if err := svc.DeleteSession(ctx, "medchat", "u1", "unknown"); err != nil {
		t.Fatalf("deleting an unknown session must be a no-op, got %v", err)
	}
}
