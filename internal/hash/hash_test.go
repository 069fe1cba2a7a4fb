package hash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSumBytes_Format(t *testing.T) {
	h := SumBytes([]byte("x"))
	if !strings.HasPrefix(h, "sha256:") {
		t.Errorf("expected sha256: prefix, got %s", h)
	}
	if len(h) != len("sha256:")+64 {
		t.Errorf("expected 64 hex chars, got %d", len(h)-len("sha256:"))
	}
}

func TestSumFile_MatchesSumBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evidence.txt")
	content := []byte("line one\nline two\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := SumFile(path)
	if err != nil {
		t.Fatalf("sum file: %v", err)
	}
	if got != SumBytes(content) {
		t.Errorf("file hash %s != bytes hash %s", got, SumBytes(content))
	}
}

func TestDigest_Deterministic(t *testing.T) {
	seed := map[string]any{"b": 2, "a": []any{"x", 1}}
	first, err := Digest(seed)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	for i := 0; i < 20; i++ {
		h, err := Digest(seed)
		if err != nil {
			t.Fatalf("digest: %v", err)
		}
		if h != first {
			t.Fatalf("digest changed between calls: %s vs %s", h, first)
		}
	}
}

func TestDigest_UnserializableSeed(t *testing.T) {
	if _, err := Digest(map[string]any{"f": func() {}}); err == nil {
		t.Error("expected error for unserializable seed")
	}
}

func TestMUKey_StableAcrossRuns(t *testing.T) {
	ptr := PointerSeed{Type: "file", Path: "notes/a.md", Timestamp: "2026-08-01T10:00:00Z"}

	k1, err := MUKey(ptr, "grp_abc123def456", 1, 3)
	if err != nil {
		t.Fatalf("mu key: %v", err)
	}
	k2, err := MUKey(ptr, "grp_abc123def456", 1, 3)
	if err != nil {
		t.Fatalf("mu key: %v", err)
	}
	if k1 != k2 {
		t.Errorf("same source+slice must yield same key: %s vs %s", k1, k2)
	}

	k3, _ := MUKey(ptr, "grp_abc123def456", 2, 3)
	if k3 == k1 {
		t.Error("different slice order must yield different key")
	}
}

func TestContentHash_SensitiveToContentOnly(t *testing.T) {
	snap := SnapshotSeed{Kind: "text", Codec: "gz+b64", Payload: "H4sIA..."}

	base, err := ContentHash("1.1", "summary", snap)
	if err != nil {
		t.Fatalf("content hash: %v", err)
	}

	same, _ := ContentHash("1.1", "summary", snap)
	if same != base {
		t.Error("identical inputs must hash identically")
	}

	changedSummary, _ := ContentHash("1.1", "other summary", snap)
	if changedSummary == base {
		t.Error("summary change must change content_hash")
	}

	changedPayload, _ := ContentHash("1.1", "summary", SnapshotSeed{Kind: "text", Codec: "gz+b64", Payload: "other"})
	if changedPayload == base {
		t.Error("payload change must change content_hash")
	}
}
