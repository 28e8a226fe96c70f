// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-medkit/medkit-go/types"
)

// InMemoryService represents an in-memory implementation of the attachment
// service.
type InMemoryService struct {
	attachments map[string][]types.Input
	mu          sync.Mutex
}

var _ types.AttachmentService = (*InMemoryService)(nil)

// NewInMemoryService creates a new instance of [InMemoryService].
func NewInMemoryService() *InMemoryService {
	return &InMemoryService{
		attachments: make(map[string][]types.Input),
	}
}

// nameHasUserNamespace checks if the attachment name has a user namespace.
func (a *InMemoryService) nameHasUserNamespace(name string) bool {
	return strings.HasPrefix(name, "user:")
}

// attachmentPath constructs the attachment path.
func (a *InMemoryService) attachmentPath(appName, userID, sessionID, name string) string {
	if a.nameHasUserNamespace(name) {
		return fmt.Sprintf("%s/%s/user/%s", appName, userID, name)
	}
	return fmt.Sprintf("%s/%s/%s/%s", appName, userID, sessionID, name)
}

// SaveAttachment implements [types.AttachmentService].
func (a *InMemoryService) SaveAttachment(ctx context.Context, appName, userID, sessionID, name string, attachment types.Input) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.attachmentPath(appName, userID, sessionID, name)
	version := len(a.attachments[path])
	a.attachments[path] = append(a.attachments[path], attachment)

	return version, nil
}

// LoadAttachment implements [types.AttachmentService].
func (a *InMemoryService) LoadAttachment(ctx context.Context, appName, userID, sessionID, name string, version int) (types.Input, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.attachmentPath(appName, userID, sessionID, name)
	versions, ok := a.attachments[path]
	if !ok {
		return types.Input{}, fmt.Errorf("attachment %s not found", name)
	}
	if version < 0 {
		version = len(versions) - 1
	}
	if version >= len(versions) {
		return types.Input{}, fmt.Errorf("attachment %s has no version %d", name, version)
	}

	return versions[version], nil
}

// ListAttachmentKeys implements [types.AttachmentService].
func (a *InMemoryService) ListAttachmentKeys(ctx context.Context, appName, userID, sessionID string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sessionPrefix := fmt.Sprintf("%s/%s/%s/", appName, userID, sessionID)
	userNamespacePrefix := fmt.Sprintf("%s/%s/user/", appName, userID)

	names := []string{}
	for path := range a.attachments {
		switch {
		case strings.HasPrefix(path, sessionPrefix):
			names = append(names, strings.TrimPrefix(path, sessionPrefix))

		case strings.HasPrefix(path, userNamespacePrefix):
			names = append(names, strings.TrimPrefix(path, userNamespacePrefix))
		}
	}
	slices.Sort(names)

	return names, nil
}

// DeleteAttachment implements [types.AttachmentService].
func (a *InMemoryService) DeleteAttachment(ctx context.Context, appName, userID, sessionID, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.attachmentPath(appName, userID, sessionID, name)
	delete(a.attachments, path)

	return nil
}

// ListVersions implements [types.AttachmentService].
func (a *InMemoryService) ListVersions(ctx context.Context, appName, userID, sessionID, name string) ([]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.attachmentPath(appName, userID, sessionID, name)
	versions, ok := a.attachments[path]
	if !ok {
		return nil, nil
	}

	verList := make([]int, len(versions))
	for i := range versions {
		verList[i] = i
	}

	return verList, nil
}

// Close implements [types.AttachmentService].
func (a *InMemoryService) Close() error {
	// nothing to do
	return nil
}
