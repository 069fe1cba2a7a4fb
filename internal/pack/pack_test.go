package pack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rcliao/mimo/internal/mu"
	"github.com/rcliao/mimo/internal/split"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFixture(t *testing.T, dir, name string, lines int) string {
	t.Helper()
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&sb, "line %d of %s\n", i, name)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func mustSplit(t *testing.T, s string) split.Spec {
	t.Helper()
	spec, err := split.Parse(s)
	if err != nil {
		t.Fatalf("parse split: %v", err)
	}
	return spec
}

func runPack(t *testing.T, in, out string) *Report {
	t.Helper()
	report, err := New(testLogger()).Run(context.Background(), Params{
		InputDir: in,
		OutDir:   out,
		Source:   "file",
		Split:    mustSplit(t, "line_window:400"),
		VaultID:  "default",
		Dedup:    DedupSkip,
	})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return report
}

func readOutputMUs(t *testing.T, out string) []*mu.MU {
	t.Helper()
	files, err := mu.ListFiles(out)
	if err != nil {
		t.Fatalf("list output: %v", err)
	}
	var mus []*mu.MU
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		doc, err := mu.ParseDoc(data)
		if err != nil {
			t.Fatalf("parse %s: %v", f, err)
		}
		vs, err := mu.Validate(doc, f, "1.1")
		if err != nil {
			t.Fatalf("validate %s: %v", f, err)
		}
		if len(vs) != 0 {
			t.Fatalf("packed MU %s has violations: %+v", f, vs)
		}
		m, err := mu.ReadFile(f)
		if err != nil {
			t.Fatalf("decode %s: %v", f, err)
		}
		mus = append(mus, m)
	}
	return mus
}

func TestRun_EndToEnd(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeFixture(t, in, "doc.txt", 1000)

	report := runPack(t, in, out)
	if report.Written != 3 || report.Skipped != 0 {
		t.Fatalf("expected 3 written 0 skipped, got %+v", report)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected errors %+v", report.Errors)
	}

	mus := readOutputMUs(t, out)
	if len(mus) != 3 {
		t.Fatalf("expected 3 MUs on disk, got %d", len(mus))
	}

	sort.Slice(mus, func(i, j int) bool { return mus[i].Meta.Order < mus[j].Meta.Order })
	wantRanges := [][2]int{{0, 400}, {400, 800}, {800, 1000}}
	for i, m := range mus {
		start, end := m.Pointer.Locator.Range()
		if start != wantRanges[i][0] || end != wantRanges[i][1] {
			t.Errorf("mu %d: expected locator [%d,%d), got [%d,%d)",
				i, wantRanges[i][0], wantRanges[i][1], start, end)
		}
		if m.Meta.Span != 3 {
			t.Errorf("mu %d: expected span 3, got %d", i, m.Meta.Span)
		}
		if m.Pointer.Locator.Kind != mu.KindLineRange {
			t.Errorf("mu %d: expected line_range, got %s", i, m.Pointer.Locator.Kind)
		}
	}

	// All three share a group but carry distinct keys.
	keys := map[string]bool{}
	for _, m := range mus {
		keys[m.Idempotency.MUKey] = true
		if m.Meta.GroupID != mus[0].Meta.GroupID {
			t.Error("slices of one file must share group_id")
		}
	}
	if len(keys) != 3 {
		t.Errorf("expected 3 distinct mu_keys, got %d", len(keys))
	}
}

func TestRun_IdempotentRerun(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeFixture(t, in, "doc.txt", 1000)

	first := runPack(t, in, out)
	if first.Written != 3 {
		t.Fatalf("first run: expected 3 written, got %+v", first)
	}
	before, _ := mu.ListFiles(out)

	second := runPack(t, in, out)
	if second.Written != 0 || second.Skipped != 3 {
		t.Errorf("second run: expected 0 written 3 skipped, got %+v", second)
	}
	after, _ := mu.ListFiles(out)
	if len(after) != len(before) {
		t.Errorf("re-pack produced new files: %d -> %d", len(before), len(after))
	}
}

func TestRun_MUKeyStableMUIDFresh(t *testing.T) {
	in := t.TempDir()
	writeFixture(t, in, "doc.md", 10)

	outA := t.TempDir()
	outB := t.TempDir()
	runPack(t, in, outA)
	runPack(t, in, outB)

	musA := readOutputMUs(t, outA)
	musB := readOutputMUs(t, outB)
	if len(musA) != 1 || len(musB) != 1 {
		t.Fatalf("expected 1 MU each, got %d and %d", len(musA), len(musB))
	}

	if musA[0].Idempotency.MUKey != musB[0].Idempotency.MUKey {
		t.Error("same source and slice parameters must yield the same mu_key")
	}
	if musA[0].MUID == musB[0].MUID {
		t.Error("mu_id must be fresh per creation")
	}
	if musA[0].ContentHash != musB[0].ContentHash {
		t.Error("identical content must yield the same content_hash")
	}
}

func TestRun_SingleFileInput(t *testing.T) {
	in := t.TempDir()
	path := writeFixture(t, in, "doc.txt", 5)
	out := t.TempDir()

	report := runPack(t, path, out)
	if report.Written != 1 {
		t.Fatalf("expected 1 written, got %+v", report)
	}

	mus := readOutputMUs(t, out)
	if mus[0].Meta.SourcePath != "doc.txt" {
		t.Errorf("expected source_path doc.txt, got %q", mus[0].Meta.SourcePath)
	}
}

func TestRun_UnimplementedDedupModes(t *testing.T) {
	for _, mode := range []string{DedupAlias, DedupVersioned} {
		_, err := New(testLogger()).Run(context.Background(), Params{
			InputDir: t.TempDir(),
			OutDir:   t.TempDir(),
			Split:    mustSplit(t, "line_window:10"),
			Dedup:    mode,
		})
		var notImpl *NotImplementedError
		if !errors.As(err, &notImpl) {
			t.Errorf("mode %s: expected NotImplementedError, got %v", mode, err)
		}
	}
}

func TestRun_UnknownDedupMode(t *testing.T) {
	_, err := New(testLogger()).Run(context.Background(), Params{
		InputDir: t.TempDir(),
		OutDir:   t.TempDir(),
		Split:    mustSplit(t, "line_window:10"),
		Dedup:    "zealous",
	})
	if err == nil {
		t.Fatal("expected error for unknown dedup mode")
	}
	var notImpl *NotImplementedError
	if errors.As(err, &notImpl) {
		t.Error("unknown mode is a config error, not NotImplemented")
	}
}

func TestRun_MissingInput(t *testing.T) {
	_, err := New(testLogger()).Run(context.Background(), Params{
		InputDir: filepath.Join(t.TempDir(), "nope"),
		OutDir:   t.TempDir(),
		Split:    mustSplit(t, "line_window:10"),
		Dedup:    DedupSkip,
	})
	if err == nil {
		t.Fatal("expected error for missing input dir")
	}
}

func TestSafeSummary(t *testing.T) {
	if got := safeSummary("  a\n  b\tc  "); got != "a b c" {
		t.Errorf("expected collapsed whitespace, got %q", got)
	}
	if got := safeSummary("   \n\t "); got != "(empty)" {
		t.Errorf("expected placeholder for empty text, got %q", got)
	}
	long := strings.Repeat("word ", 200)
	if got := safeSummary(long); len([]rune(got)) != summaryLimit {
		t.Errorf("expected summary capped at %d runes, got %d", summaryLimit, len([]rune(got)))
	}
}
