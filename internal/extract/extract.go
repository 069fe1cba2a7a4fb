// Package extract reconstructs snapshots and assets from MU documents.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rcliao/mimo/internal/hash"
	"github.com/rcliao/mimo/internal/mu"
	"github.com/rcliao/mimo/internal/snapshot"
)

// AssetIndexName is the newline-delimited JSON index written at the output
// root, one object per extracted asset.
const AssetIndexName = "asset_index.jsonl"

// IntegrityMismatchError reports evidence that drifted since packing: the
// pointer's stored sha256 no longer matches the referenced bytes.
type IntegrityMismatchError struct {
	MUID string
	URI  string
	Want string
	Got  string
}

func (e *IntegrityMismatchError) Error() string {
	return fmt.Sprintf("integrity mismatch for %s: evidence %s hashes %s, pointer says %s",
		e.MUID, e.URI, e.Got, e.Want)
}

// Params configures an extract run.
type Params struct {
	InDir             string
	OutDir            string
	AssetsDir         string // evidence root for pointer resolution; empty disables
	IncludeTombstoned bool
}

// ItemError is a per-item failure; the run continues past it.
type ItemError struct {
	Path string `json:"path"`
	Msg  string `json:"msg"`
}

// Report summarizes an extract run.
type Report struct {
	Loaded     int         `json:"loaded"`
	Extracted  int         `json:"extracted"`
	Tombstoned int         `json:"tombstoned"`
	Corrected  int         `json:"corrected"`
	Assets     int         `json:"assets"`
	Errors     []ItemError `json:"errors,omitempty"`
}

// IndexEntry is one asset_index.jsonl line, mapping an extracted asset back
// to its originating MU and pointer.
type IndexEntry struct {
	MUID    string     `json:"mu_id"`
	GroupID string     `json:"group_id"`
	Asset   string     `json:"asset"`
	Pointer mu.Pointer `json:"pointer"`
}

// Extractor reconstructs assets from MU sets.
type Extractor struct {
	log *slog.Logger
}

// New returns an Extractor logging to log.
func New(log *slog.Logger) *Extractor {
	return &Extractor{log: log}
}

// Run validates, resolves and extracts the MU set under InDir into OutDir.
func (e *Extractor) Run(ctx context.Context, params Params) (*Report, error) {
	items, loadErrs, err := Load(params.InDir)
	if err != nil {
		return nil, err
	}

	report := &Report{Loaded: len(items), Errors: loadErrs}

	view := Resolve(items)
	for _, it := range items {
		if it.TombstoneRecord || it.Deleted {
			report.Tombstoned++
		}
		if it.Corrected || it.Superseded {
			report.Corrected++
		}
	}
	if params.IncludeTombstoned {
		view = RawView(items)
	}

	if err := os.MkdirAll(params.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var index []IndexEntry
	for _, it := range view {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		entry, err := e.extractOne(params, it)
		if err != nil {
			e.log.Error("extract failed", "file", it.Path, "err", err)
			report.Errors = append(report.Errors, ItemError{Path: it.Path, Msg: err.Error()})
			continue
		}
		index = append(index, *entry)
		report.Extracted++
	}

	if err := e.writeGroupSummaries(params.OutDir, view); err != nil {
		return report, err
	}
	if err := writeAssetIndex(filepath.Join(params.OutDir, AssetIndexName), index); err != nil {
		return report, err
	}
	report.Assets = len(index)
	return report, nil
}

// extractOne reconstructs one MU's snapshot. An integrity mismatch aborts
// this item only.
func (e *Extractor) extractOne(params Params, it *Item) (*IndexEntry, error) {
	evidence := evidencePath(it.MU.Pointer, it.MU.Meta.SourcePath, params.AssetsDir)
	if evidence != "" {
		got, err := hash.SumFile(evidence)
		if err == nil {
			if got != it.MU.Pointer.SHA256 {
				return nil, &IntegrityMismatchError{
					MUID: it.MU.MUID,
					URI:  it.MU.Pointer.URI,
					Want: it.MU.Pointer.SHA256,
					Got:  got,
				}
			}
			it.Snippet = evidenceSnippet(evidence, it.MU.Pointer.Locator)
		}
	}

	text, err := snapshot.Decode(it.MU.SnapshotGzB64)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot of %s: %w", it.MU.MUID, err)
	}

	group := groupOf(it.MU)
	asset := filepath.Join(group, it.MU.MUID+".txt")
	if err := writeText(filepath.Join(params.OutDir, asset), text); err != nil {
		return nil, err
	}

	return &IndexEntry{
		MUID:    it.MU.MUID,
		GroupID: group,
		Asset:   filepath.ToSlash(asset),
		Pointer: it.MU.Pointer,
	}, nil
}

// writeGroupSummaries writes summary.txt and snippets.txt per group, MUs in
// slice order.
func (e *Extractor) writeGroupSummaries(outDir string, view []*Item) error {
	groups := make(map[string][]*Item)
	for _, it := range view {
		g := groupOf(it.MU)
		groups[g] = append(groups[g], it)
	}

	for g, items := range groups {
		sort.Slice(items, func(i, j int) bool {
			if items[i].MU.Meta.Order != items[j].MU.Meta.Order {
				return items[i].MU.Meta.Order < items[j].MU.Meta.Order
			}
			return items[i].MU.MUID < items[j].MU.MUID
		})

		var summaries, snippets []string
		for _, it := range items {
			summaries = append(summaries, it.MU.Summary)
			if it.Snippet != "" {
				snippets = append(snippets, it.Snippet)
			}
		}

		if err := writeText(filepath.Join(outDir, g, "summary.txt"), strings.Join(summaries, "\n\n")); err != nil {
			return err
		}
		if len(snippets) > 0 {
			if err := writeText(filepath.Join(outDir, g, "snippets.txt"), strings.Join(snippets, "\n\n")); err != nil {
				return err
			}
		}
	}
	return nil
}

func groupOf(m *mu.MU) string {
	if m.Meta.GroupID != "" {
		return m.Meta.GroupID
	}
	return "ungrouped"
}

func writeText(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeAssetIndex(path string, entries []IndexEntry) error {
	var sb strings.Builder
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode index entry: %w", err)
		}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	return writeText(path, sb.String())
}

// evidenceSnippet reads the locator's line range back out of the verified
// evidence file. Only line_range locators resolve to text.
func evidenceSnippet(path string, loc mu.Locator) string {
	if loc.Kind != mu.KindLineRange {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	start, end := loc.Range()
	if start < 0 || start > len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

// evidencePath resolves a pointer to a local file, or "" when the evidence
// is not locally resolvable (vault:// and friends).
func evidencePath(p mu.Pointer, sourcePath, assetsDir string) string {
	if strings.HasPrefix(p.URI, "file://") {
		return strings.TrimPrefix(p.URI, "file://")
	}
	if assetsDir != "" && sourcePath != "" {
		return filepath.Join(assetsDir, filepath.FromSlash(sourcePath))
	}
	return ""
}
