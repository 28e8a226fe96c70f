// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"cloud.google.com/go/auth/credentials"
	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/go-medkit/medkit-go/types"
)

// GCSService represents an attachment service implementation using Google
// Cloud Storage (GCS).
type GCSService struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

var _ types.AttachmentService = (*GCSService)(nil)

// NewGCSService creates a new [GCSService] instance with the given bucket
// name.
func NewGCSService(ctx context.Context, bucketName string) (*GCSService, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes: []string{
			storage.ScopeFullControl,
			storage.ScopeReadWrite,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get credentials for storage: %w", err)
	}

	client, err := storage.NewGRPCClient(ctx, option.WithAuthCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	bucket := client.Bucket(bucketName)

	return &GCSService{
		client: client,
		bucket: bucket,
	}, nil
}

// nameHasUserNamespace checks if the attachment name has a user namespace.
func (a *GCSService) nameHasUserNamespace(name string) bool {
	return strings.HasPrefix(name, "user:")
}

// blobName constructs the blob name in GCS.
func (a *GCSService) blobName(appName, userID, sessionID, name string, version int) string {
	if a.nameHasUserNamespace(name) {
		return fmt.Sprintf("%s/%s/user/%s/%d", appName, userID, name, version)
	}
	return fmt.Sprintf("%s/%s/%s/%s/%d", appName, userID, sessionID, name, version)
}

// blobPrefix constructs the common prefix of all versions of an attachment.
func (a *GCSService) blobPrefix(appName, userID, sessionID, name string) string {
	if a.nameHasUserNamespace(name) {
		return fmt.Sprintf("%s/%s/user/%s/", appName, userID, name)
	}
	return fmt.Sprintf("%s/%s/%s/%s/", appName, userID, sessionID, name)
}

// SaveAttachment implements [types.AttachmentService].
func (a *GCSService) SaveAttachment(ctx context.Context, appName, userID, sessionID, name string, attachment types.Input) (int, error) {
	versions, err := a.ListVersions(ctx, appName, userID, sessionID, name)
	if err != nil {
		return 0, err
	}
	version := 0
	if len(versions) > 0 {
		version = slices.Max(versions) + 1
	}

	blob := a.bucket.Object(a.blobName(appName, userID, sessionID, name, version))

	w := blob.NewWriter(ctx)
	w.ContentType = attachment.MIMEType
	if _, err := io.Copy(w, bytes.NewReader(attachment.Data)); err != nil {
		w.Close()
		return 0, fmt.Errorf("write attachment %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("write attachment %s: %w", name, err)
	}

	return version, nil
}

// LoadAttachment implements [types.AttachmentService].
func (a *GCSService) LoadAttachment(ctx context.Context, appName, userID, sessionID, name string, version int) (types.Input, error) {
	if version < 0 {
		versions, err := a.ListVersions(ctx, appName, userID, sessionID, name)
		if err != nil {
			return types.Input{}, err
		}
		if len(versions) == 0 {
			return types.Input{}, fmt.Errorf("attachment %s not found", name)
		}
		version = slices.Max(versions)
	}

	blob := a.bucket.Object(a.blobName(appName, userID, sessionID, name, version))

	r, err := blob.NewReader(ctx)
	if err != nil {
		return types.Input{}, fmt.Errorf("read attachment %s: %w", name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return types.Input{}, fmt.Errorf("read attachment %s: %w", name, err)
	}

	attrs, err := blob.Attrs(ctx)
	if err != nil {
		return types.Input{}, fmt.Errorf("read attachment %s attributes: %w", name, err)
	}

	return types.ImageInput(data, attrs.ContentType), nil
}

// ListAttachmentKeys implements [types.AttachmentService].
//
// The session scope and the cross-session user namespace are listed
// concurrently and merged.
func (a *GCSService) ListAttachmentKeys(ctx context.Context, appName, userID, sessionID string) ([]string, error) {
	eg, ctx := errgroup.WithContext(ctx)

	sessionNames := make(map[string]struct{})
	eg.Go(func() error {
		prefix := fmt.Sprintf("%s/%s/%s/", appName, userID, sessionID)
		return a.collectNames(ctx, prefix, sessionNames)
	})

	userNames := make(map[string]struct{})
	eg.Go(func() error {
		prefix := fmt.Sprintf("%s/%s/user/", appName, userID)
		return a.collectNames(ctx, prefix, userNames)
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	maps.Copy(sessionNames, userNames)

	return slices.Sorted(maps.Keys(sessionNames)), nil
}

// collectNames lists the attachment names under one blob prefix.
func (a *GCSService) collectNames(ctx context.Context, prefix string, names map[string]struct{}) error {
	it := a.bucket.Objects(ctx, &storage.Query{
		Prefix: prefix,
	})
	for {
		objAttrs, err := it.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				return nil
			}
			return err
		}

		if pairs := strings.Split(objAttrs.Name, "/"); len(pairs) == 5 {
			names[pairs[3]] = struct{}{}
		}
	}
}

// DeleteAttachment implements [types.AttachmentService].
func (a *GCSService) DeleteAttachment(ctx context.Context, appName, userID, sessionID, name string) error {
	versions, err := a.ListVersions(ctx, appName, userID, sessionID, name)
	if err != nil {
		return err
	}

	for _, version := range versions {
		blob := a.bucket.Object(a.blobName(appName, userID, sessionID, name, version))
		if err := blob.Delete(ctx); err != nil {
			return fmt.Errorf("delete attachment %s version %d: %w", name, version, err)
		}
	}

	return nil
}

// ListVersions implements [types.AttachmentService].
func (a *GCSService) ListVersions(ctx context.Context, appName, userID, sessionID, name string) ([]int, error) {
	it := a.bucket.Objects(ctx, &storage.Query{
		Prefix: a.blobPrefix(appName, userID, sessionID, name),
	})

	versions := []int{}
	for {
		objAttrs, err := it.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, err
		}

		idx := strings.LastIndex(objAttrs.Name, "/")
		version, err := strconv.Atoi(objAttrs.Name[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("parse version of blob %s: %w", objAttrs.Name, err)
		}
		versions = append(versions, version)
	}
	slices.Sort(versions)

	return versions, nil
}

// Close implements [types.AttachmentService].
func (a *GCSService) Close() error {
	return a.client.Close()
}
