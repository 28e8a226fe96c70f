// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-medkit/medkit-go/types"
)

// Service manages the sessions of an application, keyed by app name, user
// ID, and session ID.
type Service interface {
	// CreateSession creates a new session. An empty sessionID is replaced
	// with a fresh UUID.
	CreateSession(ctx context.Context, appName, userID, sessionID string) (*Session, error)

	// GetSession retrieves a live session by ID.
	GetSession(ctx context.Context, appName, userID, sessionID string) (*Session, error)

	// ListSessions lists all sessions of a user.
	ListSessions(ctx context.Context, appName, userID string) ([]*Session, error)

	// DeleteSession deletes a session, cancelling any request it has in
	// flight. Deleting an unknown session is a no-op.
	DeleteSession(ctx context.Context, appName, userID, sessionID string) error
}

// InMemoryService is an in-memory implementation of the [Service].
type InMemoryService struct {
	model types.Model
	opts  []Option

	// sessions is a map from app name to a map from user ID to a map from
	// session ID to session.
	sessions map[string]map[string]map[string]*Session

	logger *slog.Logger
	mu     sync.RWMutex
}

var _ Service = (*InMemoryService)(nil)

// NewInMemoryService creates a new [InMemoryService]. Every session it
// creates is bound to model and carries opts.
func NewInMemoryService(model types.Model, opts ...Option) *InMemoryService {
	return &InMemoryService{
		model:    model,
		opts:     opts,
		sessions: make(map[string]map[string]map[string]*Session),
		logger:   slog.Default(),
	}
}

// CreateSession implements [Service].
func (s *InMemoryService) CreateSession(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.InfoContext(ctx, "Creating session",
		slog.String("app_name", appName),
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)

	ses := NewSession(appName, userID, sessionID, s.model, s.opts...)

	if _, ok := s.sessions[appName]; !ok {
		s.sessions[appName] = make(map[string]map[string]*Session)
	}
	if _, ok := s.sessions[appName][userID]; !ok {
		s.sessions[appName][userID] = make(map[string]*Session)
	}
	if _, ok := s.sessions[appName][userID][ses.ID()]; ok {
		return nil, fmt.Errorf("session %s already exists for user %s in app %s", ses.ID(), userID, appName)
	}

	s.sessions[appName][userID][ses.ID()] = ses

	return ses, nil
}

// GetSession implements [Service].
func (s *InMemoryService) GetSession(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[appName]; !ok {
		return nil, fmt.Errorf("app %s not found", appName)
	}
	if _, ok := s.sessions[appName][userID]; !ok {
		return nil, fmt.Errorf("user %s not found for app %s", userID, appName)
	}
	ses, ok := s.sessions[appName][userID][sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found for user %s in app %s", sessionID, userID, appName)
	}

	return ses, nil
}

// ListSessions implements [Service].
func (s *InMemoryService) ListSessions(ctx context.Context, appName, userID string) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := []*Session{}
	for _, ses := range s.sessions[appName][userID] {
		sessions = append(sessions, ses)
	}

	return sessions, nil
}

// DeleteSession implements [Service].
func (s *InMemoryService) DeleteSession(ctx context.Context, appName, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.InfoContext(ctx, "Deleting session",
		slog.String("app_name", appName),
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)

	if _, ok := s.sessions[appName]; !ok {
		return nil
	}
	if _, ok := s.sessions[appName][userID]; !ok {
		return nil
	}
	if ses, ok := s.sessions[appName][userID][sessionID]; ok {
		ses.Cancel()
		delete(s.sessions[appName][userID], sessionID)
	}

	return nil
}
