package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcliao/mimo/internal/catalog"
	"github.com/rcliao/mimo/internal/hash"
	"github.com/rcliao/mimo/internal/mu"
	"github.com/rcliao/mimo/internal/snapshot"
)

// TombstoneParams configures a tombstone append.
type TombstoneParams struct {
	Dir        string // directory holding the target's .mimo file
	TargetMUID string
	Actor      string
	Reason     string
	Scope      string // all | public_exports_only | injection_only
	RetainRaw  bool
}

// Tombstone appends a new MU carrying a tombstone for an existing MU.
// The target is never modified or removed; readers apply the tombstone at
// resolution time. Returns the new MU.
func (p *Packer) Tombstone(ctx context.Context, params TombstoneParams) (*mu.MU, error) {
	if params.TargetMUID == "" {
		return nil, fmt.Errorf("target mu_id is required")
	}
	if params.Scope == "" {
		params.Scope = "all"
	}
	if !mu.ValidTombstoneScopes[params.Scope] {
		return nil, fmt.Errorf("unknown tombstone scope %q", params.Scope)
	}
	if params.Actor == "" {
		params.Actor = "unknown"
	}
	if params.Reason == "" {
		params.Reason = "unspecified"
	}

	target, err := findTarget(ctx, params.Dir, params.TargetMUID)
	if err != nil {
		return nil, err
	}

	note := fmt.Sprintf("tombstone: %s scope=%s by %s: %s",
		params.TargetMUID, params.Scope, params.Actor, params.Reason)
	payload, desc, err := snapshot.Encode(note)
	if err != nil {
		return nil, err
	}
	contentHash, err := hash.ContentHash(SchemaVersion, note, hash.SnapshotSeed{
		Kind:    desc.Kind,
		Codec:   desc.Codec,
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("content_hash: %w", err)
	}

	now := mu.NowISO()
	muKey, err := hash.MUKey(hash.PointerSeed{
		Type:      "tombstone",
		Path:      params.TargetMUID,
		Timestamp: now,
	}, target.GroupID, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("mu_key: %w", err)
	}

	locator, err := mu.NewLineRange(0, 1)
	if err != nil {
		return nil, err
	}

	m := &mu.MU{
		SchemaVersion: SchemaVersion,
		MUID:          p.newMUID(),
		ContentHash:   contentHash,
		Idempotency:   mu.Idempotency{MUKey: muKey},
		Meta: mu.Meta{
			Time:     now,
			Source:   "tombstone",
			GroupID:  target.GroupID,
			Order:    0,
			Span:     1,
			Snapshot: &desc,
		},
		Summary: note,
		Pointer: mu.Pointer{
			Type:    "mu",
			URI:     "mu://" + params.TargetMUID,
			SHA256:  hash.SumBytes([]byte(note)),
			Locator: locator,
		},
		SnapshotGzB64: payload,
		Tombstone: &mu.Tombstone{
			TargetMUID: params.TargetMUID,
			CreatedAt:  now,
			Actor:      params.Actor,
			Reason:     params.Reason,
			Scope:      params.Scope,
			RetainRaw:  params.RetainRaw,
		},
	}

	if err := mu.WriteFile(filepath.Join(params.Dir, m.MUID+mu.FileExt), m); err != nil {
		return nil, err
	}
	p.log.Info("tombstone written", "target", params.TargetMUID, "mu_id", m.MUID, "scope", params.Scope)

	// Record in the catalog when one exists; tombstones in a bare directory
	// are still valid.
	if _, statErr := os.Stat(filepath.Join(params.Dir, catalog.FileName)); statErr == nil {
		cat, err := catalog.Open(params.Dir)
		if err != nil {
			return nil, err
		}
		defer cat.Close()
		if err := cat.Record(ctx, catalog.Entry{
			MUKey:       muKey,
			MUID:        m.MUID,
			ContentHash: contentHash,
			Path:        m.MUID + mu.FileExt,
			Source:      "tombstone",
			GroupID:     target.GroupID,
			CreatedAt:   now,
		}); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// targetInfo is what a tombstone needs to know about its target.
type targetInfo struct {
	GroupID string
}

// findTarget locates the target MU, via the catalog when present, falling
// back to scanning the directory.
func findTarget(ctx context.Context, dir, muID string) (*targetInfo, error) {
	if _, err := os.Stat(filepath.Join(dir, catalog.FileName)); err == nil {
		cat, err := catalog.Open(dir)
		if err != nil {
			return nil, err
		}
		defer cat.Close()
		entry, err := cat.Lookup(ctx, muID)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return &targetInfo{GroupID: entry.GroupID}, nil
		}
	}

	files, err := mu.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		m, err := mu.ReadFile(f)
		if err != nil {
			continue
		}
		if m.MUID == muID {
			return &targetInfo{GroupID: m.Meta.GroupID}, nil
		}
	}
	return nil, fmt.Errorf("target %s not found under %s", muID, dir)
}
