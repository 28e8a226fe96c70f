// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifact stores the attachments of a session: uploaded
// prescription photos, medication labels, and other inputs worth keeping
// around for re-analysis.
//
// Attachments are versioned named blobs keyed by app name, user ID, session
// ID, and name; every save produces a new version. A name with the "user:"
// prefix is scoped to the user across all of their sessions instead of one
// session.
//
// Two implementations of [types.AttachmentService] are provided:
//
//   - [InMemoryService] keeps attachments in a process-local map, suitable
//     for tests and single-process use
//   - [GCSService] persists attachments as Google Cloud Storage objects
//     laid out as {app}/{user}/{session}/{name}/{version}
package artifact
