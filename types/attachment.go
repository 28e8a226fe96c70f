// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"context"
)

// AttachmentService represents an abstract base class for attachment storage.
//
// Attachments are the uploaded inputs of a session (prescription photos,
// medication labels, audio notes), identified by app name, user ID, session
// ID, and name, with every save producing a new version.
type AttachmentService interface {
	// SaveAttachment saves an attachment to the storage.
	//
	// After saving the attachment, a version number is returned to identify
	// the attachment version.
	SaveAttachment(ctx context.Context, appName, userID, sessionID, name string, attachment Input) (int, error)

	// LoadAttachment gets an attachment from the storage. A negative version
	// loads the latest one.
	LoadAttachment(ctx context.Context, appName, userID, sessionID, name string, version int) (Input, error)

	// ListAttachmentKeys lists all the attachment names within a session.
	ListAttachmentKeys(ctx context.Context, appName, userID, sessionID string) ([]string, error)

	// DeleteAttachment deletes an attachment and all its versions.
	DeleteAttachment(ctx context.Context, appName, userID, sessionID, name string) error

	// ListVersions lists all versions of an attachment.
	ListVersions(ctx context.Context, appName, userID, sessionID, name string) ([]int, error)

	// Close closes the storage connection.
	Close() error
}
