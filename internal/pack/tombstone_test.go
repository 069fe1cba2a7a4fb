package pack

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rcliao/mimo/internal/mu"
)

func TestTombstone_AppendsValidMU(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeFixture(t, in, "doc.txt", 10)
	runPack(t, in, out)

	mus := readOutputMUs(t, out)
	if len(mus) != 1 {
		t.Fatalf("expected 1 packed MU, got %d", len(mus))
	}
	target := mus[0]

	ts, err := New(testLogger()).Tombstone(context.Background(), TombstoneParams{
		Dir:        out,
		TargetMUID: target.MUID,
		Actor:      "owner",
		Reason:     "requested deletion",
		Scope:      "all",
		RetainRaw:  true,
	})
	if err != nil {
		t.Fatalf("tombstone: %v", err)
	}

	if ts.Tombstone == nil || ts.Tombstone.TargetMUID != target.MUID {
		t.Fatalf("tombstone block missing or mistargeted: %+v", ts.Tombstone)
	}
	if ts.Meta.GroupID != target.Meta.GroupID {
		t.Errorf("tombstone should join the target's group, got %s", ts.Meta.GroupID)
	}

	// The target is untouched; the tombstone is a new, valid file.
	mus = readOutputMUs(t, out)
	if len(mus) != 2 {
		t.Fatalf("expected target plus tombstone on disk, got %d files", len(mus))
	}
	for _, m := range mus {
		if m.MUID == target.MUID && m.ContentHash != target.ContentHash {
			t.Error("target MU was modified")
		}
	}
}

func TestTombstone_UncatalogedOnDiskTarget(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	other := t.TempDir()
	writeFixture(t, in, "doc.txt", 10)
	runPack(t, in, out)

	// A valid MU copied in from another run sits on disk but not in the
	// catalog. It must still be tombstonable: the catalog is an index,
	// the files are the source of truth.
	in2 := t.TempDir()
	writeFixture(t, in2, "copied.txt", 5)
	runPack(t, in2, other)
	copied := readOutputMUs(t, other)[0]
	data, err := os.ReadFile(filepath.Join(other, copied.MUID+mu.FileExt))
	if err != nil {
		t.Fatalf("read copied mu: %v", err)
	}
	if err := os.WriteFile(filepath.Join(out, copied.MUID+mu.FileExt), data, 0o644); err != nil {
		t.Fatalf("copy mu: %v", err)
	}

	ts, err := New(testLogger()).Tombstone(context.Background(), TombstoneParams{
		Dir:        out,
		TargetMUID: copied.MUID,
	})
	if err != nil {
		t.Fatalf("tombstone of on-disk target: %v", err)
	}
	if ts.Tombstone.TargetMUID != copied.MUID {
		t.Errorf("mistargeted tombstone: %+v", ts.Tombstone)
	}
	if ts.Meta.GroupID != copied.Meta.GroupID {
		t.Errorf("tombstone should join the target's group, got %s", ts.Meta.GroupID)
	}
}

func TestTombstone_UnknownTarget(t *testing.T) {
	out := t.TempDir()
	in := t.TempDir()
	writeFixture(t, in, "doc.txt", 3)
	runPack(t, in, out)

	_, err := New(testLogger()).Tombstone(context.Background(), TombstoneParams{
		Dir:        out,
		TargetMUID: "mu_does_not_exist",
	})
	if err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestTombstone_BadScope(t *testing.T) {
	_, err := New(testLogger()).Tombstone(context.Background(), TombstoneParams{
		Dir:        t.TempDir(),
		TargetMUID: "mu_x",
		Scope:      "partial",
	})
	if err == nil {
		t.Fatal("expected error for unknown scope")
	}
}
