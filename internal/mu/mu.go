// Package mu defines the Memory Unit model and its schema validation.
//
// An MU is created once and is immutable on disk. Corrections and deletions
// are new MUs referencing the old one (links.corrects, tombstone), never
// edits; mu_key and content_hash are computed exactly once at creation.
package mu

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/mimo/internal/snapshot"
)

// FileExt is the on-disk extension for MU documents.
const FileExt = ".mimo"

// Tombstone scopes.
var ValidTombstoneScopes = map[string]bool{
	"all":                 true,
	"public_exports_only": true,
	"injection_only":      true,
}

// MU is a Memory Unit, persisted as a YAML document.
type MU struct {
	SchemaVersion string      `yaml:"schema_version"`
	MUID          string      `yaml:"mu_id"`
	ContentHash   string      `yaml:"content_hash"`
	Idempotency   Idempotency `yaml:"idempotency"`
	Meta          Meta        `yaml:"meta"`
	Summary       string      `yaml:"summary"`
	Pointer       Pointer     `yaml:"pointer"`
	SnapshotGzB64 string      `yaml:"snapshot_gz_b64"`
	Links         *Links      `yaml:"links,omitempty"`
	Tombstone     *Tombstone  `yaml:"tombstone,omitempty"`
}

// Idempotency carries the dedup key. mu_key is computed at creation and
// never recomputed afterward.
type Idempotency struct {
	MUKey string `yaml:"mu_key"`
}

// Meta holds auxiliary attributes. Fields beyond the well-known ones are
// preserved via the inline map; the mapping is free-form by contract.
type Meta struct {
	Time       string               `yaml:"time,omitempty"`
	Source     string               `yaml:"source,omitempty"`
	SourcePath string               `yaml:"source_path,omitempty"`
	GroupID    string               `yaml:"group_id,omitempty"`
	Order      int                  `yaml:"order,omitempty"`
	Span       int                  `yaml:"span,omitempty"`
	Snapshot   *snapshot.Descriptor `yaml:"snapshot,omitempty"`
	Tags       []string             `yaml:"tags,omitempty"`
	Extra      map[string]any       `yaml:",inline"`
}

// Links are back-references to MUs this one supersedes.
type Links struct {
	Corrects []string `yaml:"corrects,omitempty"`
}

// Tombstone marks another MU as logically deleted. It lives inside a new
// MU; the target stays on disk untouched.
type Tombstone struct {
	TargetMUID string `yaml:"target_mu_id"`
	CreatedAt  string `yaml:"created_at"`
	Actor      string `yaml:"actor"`
	Reason     string `yaml:"reason"`
	Scope      string `yaml:"scope"`
	RetainRaw  bool   `yaml:"retain_raw"`
}

// NowISO returns the current UTC time at second precision, the timestamp
// format used throughout MU documents.
func NowISO() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

// Encode renders the MU as a YAML document.
func (m *MU) Encode() ([]byte, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode mu: %w", err)
	}
	return b, nil
}

// Decode parses YAML into a typed MU. Callers that need field-level
// violation reporting should run ParseDoc + Validate first; Decode assumes
// a structurally sound document.
func Decode(data []byte) (*MU, error) {
	var m MU
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode mu: %w", err)
	}
	return &m, nil
}

// ReadFile loads a typed MU from disk.
func ReadFile(path string) (*MU, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteFile writes the MU document, creating parent directories.
func WriteFile(path string, m *MU) error {
	b, err := m.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ParseDoc parses YAML into a loose document for validation. Values are
// normalized to the JSON universe (timestamps become RFC3339 strings).
func ParseDoc(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("yaml root must be a mapping")
	}
	return normalizeMap(doc), nil
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return normalizeMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e)
		}
		return out
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

// ListFiles returns the .mimo files under path (a file or a directory),
// sorted by path for a stable processing order.
func ListFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		if filepath.Ext(path) != FileExt {
			return nil, fmt.Errorf("%s is not a %s file", path, FileExt)
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == FileExt {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	return files, nil
}
