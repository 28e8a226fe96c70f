// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package artifact_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-medkit/medkit-go/artifact"
	"github.com/go-medkit/medkit-go/types"
)

func TestInMemoryService_SaveAndLoad(t *testing.T) {
	svc := artifact.NewInMemoryService()
	defer svc.Close()
	ctx := t.Context()

	v0 := types.ImageInput([]byte("scan-v0"), "image/png")
	v1 := types.ImageInput([]byte("scan-v1"), "image/png")

	version, err := svc.SaveAttachment(ctx, "medchat", "u1", "s1", "xray.png", v0)
	if err != nil {
		t.Fatalf("SaveAttachment: %v", err)
	}
	if version != 0 {
		t.Fatalf("first version = %d, want 0", version)
	}

	version, err = svc.SaveAttachment(ctx, "medchat", "u1", "s1", "xray.png", v1)
	if err != nil {
		t.Fatalf("SaveAttachment: %v", err)
	}
	if version != 1 {
		t.Fatalf("second version = %d, want 1", version)
	}

	got, err := svc.LoadAttachment(ctx, "medchat", "u1", "s1", "xray.png", 0)
	if err != nil {
		t.Fatalf("LoadAttachment(0): %v", err)
	}
	if diff := cmp.Diff(v0, got); diff != "" {
		t.Fatalf("version 0 mismatch (-want +got):\n%s", diff)
	}

	// A negative version loads the latest one.
	got, err = svc.LoadAttachment(ctx, "medchat", "u1", "s1", "xray.png", -1)
	if err != nil {
		t.Fatalf("LoadAttachment(-1): %v", err)
	}
	if diff := cmp.Diff(v1, got); diff != "" {
		t.Fatalf("latest version mismatch (-want +got):\n%s", diff)
	}

	versions, err := svc.ListVersions(ctx, "medchat", "u1", "s1", "xray.png")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1}, versions); diff != "" {
		t.Fatalf("versions mismatch (-want +got):\n%s", diff)
	}
}

func TestInMemoryService_Load_Missing(t *testing.T) {
	svc := artifact.NewInMemoryService()
	ctx := t.Context()

	if _, err := svc.LoadAttachment(ctx, "medchat", "u1", "s1", "missing.png", -1); err == nil {
		t.Fatal("loading an unknown attachment must fail")
	}

	if _, err := svc.SaveAttachment(ctx, "medchat", "u1", "s1", "a.png", types.ImageInput([]byte("x"), "image/png")); err != nil {
		t.Fatalf("SaveAttachment: %v", err)
	}
	if _, err := svc.LoadAttachment(ctx, "medchat", "u1", "s1", "a.png", 7); err == nil {
		t.Fatal("loading an unknown version must fail")
	}
}

func TestInMemoryService_ListAttachmentKeys(t *testing.T) {
	svc := artifact.NewInMemoryService()
	ctx := t.Context()

	saves := []struct {
		sessionID string
		name      string
	}{
		{"s1", "xray.png"},
		{"s1", "label.jpg"},
		{"s2", "other-session.png"},
		{"s1", "user:insurance-card.png"},
	}
	for _, save := range saves {
		if _, err := svc.SaveAttachment(ctx, "medchat", "u1", save.sessionID, save.name, types.ImageInput([]byte("x"), "image/png")); err != nil {
			t.Fatalf("SaveAttachment(%s): %v", save.name, err)
		}
	}

	got, err := svc.ListAttachmentKeys(ctx, "medchat", "u1", "s1")
	if err != nil {
		t.Fatalf("ListAttachmentKeys: %v", err)
	}

	// Session-scoped names plus the user namespace, sorted; the other
	// session's attachment stays invisible.
	want := []string{"label.jpg", "user:insurance-card.png", "xray.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestInMemoryService_Delete(t *testing.T) {
	svc := artifact.NewInMemoryService()
	ctx := t.Context()

	if _, err := svc.SaveAttachment(ctx, "medchat", "u1", "s1", "xray.png", types.ImageInput([]byte("x"), "image/png")); err != nil {
		t.Fatalf("SaveAttachment: %v", err)
	}
	if err := svc.DeleteAttachment(ctx, "medchat", "u1", "s1", "xray.png"); err != nil {
		t.Fatalf("DeleteAttachment: %v", err)
	}

	versions, err := svc.ListVersions(ctx, "medchat", "u1", "s1", "xray.png")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("versions after delete = %v, want none", versions)
	}

	// Deleting an absent attachment is a no-op.
	if err := svc.DeleteAttachment(ctx, "medchat", "u1", "s1", "xray.png"); err != nil {
		t.Fatalf("second DeleteAttachment: %v", err)
	}
}
