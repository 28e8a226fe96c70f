// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/MakeNowJust/heredoc/v2"
	"golang.org/x/sync/errgroup"

	"github.com/go-medkit/medkit-go/gate"
	"github.com/go-medkit/medkit-go/internal/xmaps"
	"github.com/go-medkit/medkit-go/types"
)

// interactionInstruction prompts the free-text interaction report.
var interactionInstruction = heredoc.Doc(`
	You are a medication interaction assistant. The user takes the listed
	medications together. Describe the known interactions between them in
	plain language: which pairs interact, how serious each interaction is,
	and what the user should watch for or discuss with a pharmacist.

	If no significant interaction is known, say so explicitly. Do not give
	personal medical advice beyond recommending professional consultation.
`)

// InteractionChecker accumulates a set of medication names and produces one
// combined free-text interaction report.
//
// Adding a name runs the local duplicate check first, synchronously and
// without any network call, then the fail-open validity pre-check. The
// fail-closed checkpoint for every stored name runs at [InteractionChecker.Check]
// time, concurrently across names.
type InteractionChecker struct {
	model  types.Model
	gate   *gate.Gate
	logger *slog.Logger

	mu   sync.Mutex
	meds []string
	seen map[string]struct{}
}

// NewInteractionChecker creates a new [InteractionChecker] backed by model.
func NewInteractionChecker(model types.Model, opts ...Option) *InteractionChecker {
	cfg := newConfig(opts...)
	return &InteractionChecker{
		model:  model,
		gate:   gate.New(model, gate.MedicationName, gate.WithLogger(cfg.logger)),
		logger: cfg.logger,
		seen:   make(map[string]struct{}),
	}
}

// Add validates and stores a medication name.
//
// A name already in the collection is rejected with [*types.DuplicateError]
// before any network call. A name the gate positively rejects yields a
// [*types.RejectionError]; a gate transport failure fails open and the name
// is stored.
func (c *InteractionChecker) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.ErrEmptyMessage
	}
	key := strings.ToLower(name)

	c.mu.Lock()
	if xmaps.Contains(c.seen, key) {
		c.mu.Unlock()
		return &types.DuplicateError{Item: name}
	}
	c.mu.Unlock()

	result := c.gate.Precheck(ctx, types.TextInput(name))
	if !result.IsValid {
		return &types.RejectionError{
			Domain:     c.gate.Domain().Name,
			Message:    result.Message,
			Categories: c.gate.Domain().Categories,
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check membership; a concurrent Add may have won the race.
	if xmaps.Contains(c.seen, key) {
		return &types.DuplicateError{Item: name}
	}
	c.seen[key] = struct{}{}
	c.meds = append(c.meds, name)

	return nil
}

// Remove deletes a medication name, case-insensitively. It reports whether
// the name was present.
func (c *InteractionChecker) Remove(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[key]; !ok {
		return false
	}
	delete(c.seen, key)
	c.meds = slices.DeleteFunc(c.meds, func(m string) bool {
		return strings.ToLower(m) == key
	})

	return true
}

// Medications returns the collected names in insertion order.
func (c *InteractionChecker) Medications() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.meds)
}

// Clear empties the collection.
func (c *InteractionChecker) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meds = nil
	c.seen = make(map[string]struct{})
}

// Check re-validates every stored name at the fail-closed checkpoint and,
// only if all pass, issues one combined interaction report request.
//
// At least two medications are required. Checkpoints for distinct names run
// concurrently; each name's checkpoint is still strictly sequenced before
// the report call.
func (c *InteractionChecker) Check(ctx context.Context) (string, error) {
	meds := c.Medications()
	if len(meds) < 2 {
		return "", types.ErrTooFewMedications
	}

	eg, gctx := errgroup.WithContext(ctx)
	for _, name := range meds {
		eg.Go(func() error {
			return c.gate.Checkpoint(gctx, types.TextInput(name))
		})
	}
	if err := eg.Wait(); err != nil {
		return "", err
	}

	c.logger.InfoContext(ctx, "Checking medication interactions",
		slog.Int("medications", len(meds)),
	)

	prompt := "Medications taken together:\n- " + strings.Join(meds, "\n- ")
	return generate(ctx, c.model, types.TextInput(prompt), interactionInstruction, nil)
}
