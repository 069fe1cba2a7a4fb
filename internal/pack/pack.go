// Package pack turns raw inputs into MU (.mimo) documents.
package pack

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/mimo/internal/catalog"
	"github.com/rcliao/mimo/internal/hash"
	"github.com/rcliao/mimo/internal/mu"
	"github.com/rcliao/mimo/internal/snapshot"
	"github.com/rcliao/mimo/internal/split"
)

// SchemaVersion written by this packer.
const SchemaVersion = "1.1"

// Dedup policies.
const (
	DedupSkip      = "skip"
	DedupAlias     = "alias"
	DedupVersioned = "versioned"
)

// NotImplementedError reports a reserved but unimplemented dedup policy.
// It is a configuration error: the run aborts before any slice is packed.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("not implemented: %s", e.Feature)
}

// textExts are the input extensions packed as text sources.
var textExts = map[string]bool{".md": true, ".txt": true, ".html": true, ".rtf": true}

// summaryLimit caps the summary at this many runes.
const summaryLimit = 400

// Params configures a pack run. All paths are explicit; there is no
// process-wide state.
type Params struct {
	InputDir string
	OutDir   string
	Source   string // file | chat | web | pdf
	Split    split.Spec
	VaultID  string
	Dedup    string
	Tags     []string
}

// ItemError is a per-item failure. Items fail individually; the run
// continues.
type ItemError struct {
	Path string `json:"path"`
	Msg  string `json:"msg"`
}

// Report summarizes a pack run.
type Report struct {
	Files   int         `json:"files"`
	Written int         `json:"written"`
	Skipped int         `json:"skipped"`
	Errors  []ItemError `json:"errors,omitempty"`
}

// Packer writes MU documents. Safe for a single run at a time; the dedup
// set it maintains is scoped to the run, not the process.
type Packer struct {
	log     *slog.Logger
	entropy *rand.Rand
}

// New returns a Packer logging to log.
func New(log *slog.Logger) *Packer {
	return &Packer{
		log:     log,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// mu_id is fresh per MU and deliberately not idempotent; only mu_key is.
func (p *Packer) newMUID() string {
	return "mu_" + ulid.MustNew(ulid.Timestamp(time.Now()), p.entropy).String()
}

// Run packs every supported file under InputDir into OutDir. Configuration
// errors (unimplemented or unknown dedup policy) abort before any item is
// processed; per-item failures are collected into the report.
func (p *Packer) Run(ctx context.Context, params Params) (*Report, error) {
	switch params.Dedup {
	case "", DedupSkip:
		// the only implemented policy
	case DedupAlias, DedupVersioned:
		return nil, &NotImplementedError{Feature: "dedup mode " + params.Dedup}
	default:
		return nil, fmt.Errorf("unknown dedup mode %q", params.Dedup)
	}
	if params.Split.Strategy == "" {
		return nil, fmt.Errorf("split policy is required")
	}
	if params.Source == "" {
		params.Source = "file"
	}
	if params.VaultID == "" {
		params.VaultID = "default"
	}

	cat, err := catalog.Open(params.OutDir)
	if err != nil {
		return nil, err
	}
	defer cat.Close()

	known, err := cat.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog keys: %w", err)
	}
	seen := newKeySet(known)

	files, err := inputFiles(params.InputDir)
	if err != nil {
		return nil, err
	}

	report := &Report{Files: len(files)}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		written, skipped, err := p.packFile(ctx, cat, seen, params, f)
		if err != nil {
			p.log.Error("pack failed", "file", f, "err", err)
			report.Errors = append(report.Errors, ItemError{Path: f, Msg: err.Error()})
			continue
		}
		report.Written += written
		report.Skipped += skipped
		p.log.Info("packed", "file", f, "written", written, "skipped", skipped)
	}
	return report, nil
}

func (p *Packer) packFile(ctx context.Context, cat *catalog.Catalog, seen *keySet, params Params, path string) (written, skipped int, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("stat input: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read input: %w", err)
	}

	rawSHA := hash.SumBytes(raw)
	shaHex := strings.TrimPrefix(rawSHA, hash.Prefix)
	groupID := "grp_" + shaHex[:12]

	// Rel yields "." when InputDir is the file itself; the base name keeps
	// source_path usable for evidence resolution.
	rel, err := filepath.Rel(params.InputDir, path)
	if err != nil || rel == "." {
		rel = filepath.Base(path)
	}
	sourcePath := filepath.ToSlash(rel)
	// Mtime at second precision: stable across re-runs of unchanged input,
	// which keeps mu_key idempotent.
	mtime := info.ModTime().UTC().Truncate(time.Second).Format(time.RFC3339)

	uri := vaultRawURI(params.VaultID, shaHex, filepath.Ext(path))
	slices := split.Windows(string(raw), params.Split)

	for _, s := range slices {
		muKey, err := hash.MUKey(hash.PointerSeed{
			Type:      params.Source,
			Path:      sourcePath,
			Timestamp: mtime,
		}, groupID, s.Index+1, s.Total)
		if err != nil {
			return written, skipped, fmt.Errorf("mu_key: %w", err)
		}

		// Atomic check-then-insert so parallel packs of independent files
		// cannot write the same slice twice.
		if !seen.add(muKey) {
			skipped++
			continue
		}

		m, err := p.buildMU(params, s, muKey, rawSHA, groupID, sourcePath, uri)
		if err != nil {
			return written, skipped, err
		}

		outPath := filepath.Join(params.OutDir, m.MUID+mu.FileExt)
		if err := mu.WriteFile(outPath, m); err != nil {
			return written, skipped, err
		}
		if err := cat.Record(ctx, catalog.Entry{
			MUKey:       muKey,
			MUID:        m.MUID,
			ContentHash: m.ContentHash,
			Path:        m.MUID + mu.FileExt,
			Source:      params.Source,
			GroupID:     groupID,
			CreatedAt:   m.Meta.Time,
		}); err != nil {
			return written, skipped, err
		}
		written++
	}
	return written, skipped, nil
}

// buildMU assembles one MU from a slice. mu_key and content_hash are
// computed here, exactly once; they are never recomputed after creation.
func (p *Packer) buildMU(params Params, s split.Slice, muKey, rawSHA, groupID, sourcePath, uri string) (*mu.MU, error) {
	locator, err := mu.NewLineRange(s.Start, s.End)
	if err != nil {
		return nil, err
	}

	payload, desc, err := snapshot.Encode(s.Text)
	if err != nil {
		return nil, err
	}

	summary := safeSummary(s.Text)
	contentHash, err := hash.ContentHash(SchemaVersion, summary, hash.SnapshotSeed{
		Kind:    desc.Kind,
		Codec:   desc.Codec,
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("content_hash: %w", err)
	}

	return &mu.MU{
		SchemaVersion: SchemaVersion,
		MUID:          p.newMUID(),
		ContentHash:   contentHash,
		Idempotency:   mu.Idempotency{MUKey: muKey},
		Meta: mu.Meta{
			Time:       mu.NowISO(),
			Source:     params.Source,
			SourcePath: sourcePath,
			GroupID:    groupID,
			Order:      s.Index + 1,
			Span:       s.Total,
			Snapshot:   &desc,
			Tags:       params.Tags,
		},
		Summary: summary,
		Pointer: mu.Pointer{
			Type:    "raw",
			URI:     uri,
			SHA256:  rawSHA,
			Locator: locator,
		},
		SnapshotGzB64: payload,
	}, nil
}

// safeSummary collapses whitespace and caps length.
func safeSummary(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if s == "" {
		return "(empty)"
	}
	runes := []rune(s)
	if len(runes) > summaryLimit {
		return string(runes[:summaryLimit])
	}
	return s
}

// vaultRawURI mirrors the vault ingest naming: vault://<id>/raw/YYYY/MM/<sha>.<ext>.
func vaultRawURI(vaultID, shaHex, ext string) string {
	now := time.Now().UTC()
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "txt"
	}
	return fmt.Sprintf("vault://%s/raw/%04d/%02d/%s.%s", vaultID, now.Year(), int(now.Month()), shaHex, ext)
}

// inputFiles returns the supported text files under dir in a stable order.
func inputFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("missing input: %s", dir)
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var files []string
	err = filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && textExts[strings.ToLower(filepath.Ext(p))] {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}
