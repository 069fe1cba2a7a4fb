// Package hash computes the sha256-prefixed digests used for MU identity.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/rcliao/mimo/internal/canonical"
)

// Prefix is prepended to every hex digest.
const Prefix = "sha256:"

// SumBytes hashes raw bytes into "sha256:<64 hex>".
func SumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return Prefix + hex.EncodeToString(sum[:])
}

// SumFile hashes a file's raw content. Used for pointer.sha256 and group
// ids; the raw bytes are hashed directly, never their canonical-JSON form.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return Prefix + hex.EncodeToString(h.Sum(nil)), nil
}

// Digest canonically serializes seed and hashes the bytes.
func Digest(seed any) (string, error) {
	b, err := canonical.Marshal(seed)
	if err != nil {
		return "", err
	}
	return SumBytes(b), nil
}

// PointerSeed is the pointer portion of the mu_key seed.
type PointerSeed struct {
	Type      string
	Path      string
	Timestamp string
}

// MUKey derives the idempotency key identifying "same source, same slice".
//
// The seed shape is frozen for schema 1.x: {pointer:{type,path,timestamp},
// group_id, order, span}. A stricter seed must be introduced as a new
// function under a new version tag, never by changing this shape.
func MUKey(ptr PointerSeed, groupID string, order, span int) (string, error) {
	return Digest(map[string]any{
		"pointer": map[string]any{
			"type":      ptr.Type,
			"path":      ptr.Path,
			"timestamp": ptr.Timestamp,
		},
		"group_id": groupID,
		"order":    order,
		"span":     span,
	})
}

// SnapshotSeed is the snapshot portion of the content_hash seed.
type SnapshotSeed struct {
	Kind    string
	Codec   string
	Payload string
}

// ContentHash derives the content identity hash: same summary and snapshot
// content hash identically regardless of pointer, meta or mu_id. The seed
// shape is frozen for schema 1.x, same rule as MUKey.
func ContentHash(schemaVersion, summary string, snap SnapshotSeed) (string, error) {
	return Digest(map[string]any{
		"schema_version": schemaVersion,
		"summary":        summary,
		"snapshot": map[string]any{
			"kind":    snap.Kind,
			"codec":   snap.Codec,
			"payload": snap.Payload,
		},
	})
}
