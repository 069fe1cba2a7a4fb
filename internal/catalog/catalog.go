// Package catalog tracks the MUs written to an output set. It backs the
// cross-run dedup check for pack and the mu_id lookups used by tombstone
// and list. The catalog is an index, never the source of truth: the .mimo
// files on disk are.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the catalog database inside an output directory.
const FileName = ".mimo-catalog.db"

// Catalog is a SQLite-backed mu_key index.
type Catalog struct {
	db   *sql.DB
	path string
}

// Entry is one written MU.
type Entry struct {
	MUKey       string `json:"mu_key"`
	MUID        string `json:"mu_id"`
	ContentHash string `json:"content_hash"`
	Path        string `json:"path"`
	Source      string `json:"source"`
	GroupID     string `json:"group_id"`
	CreatedAt   string `json:"created_at"`
}

// Open opens or creates the catalog for an output directory.
func Open(outDir string) (*Catalog, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outDir, FileName)

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	c := &Catalog{db: db, path: path}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return c, nil
}

func (c *Catalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mus (
		mu_key       TEXT PRIMARY KEY,
		mu_id        TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		path         TEXT NOT NULL,
		source       TEXT NOT NULL DEFAULT '',
		group_id     TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_mus_mu_id ON mus(mu_id);
	CREATE INDEX IF NOT EXISTS idx_mus_group ON mus(group_id);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Record stores an entry. A duplicate mu_key is ignored: the first MU
// written for a key wins, which matches the skip dedup policy.
func (c *Catalog) Record(ctx context.Context, e Entry) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO mus (mu_key, mu_id, content_hash, path, source, group_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.MUKey, e.MUID, e.ContentHash, e.Path, e.Source, e.GroupID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record mu: %w", err)
	}
	return nil
}

// Keys returns every known mu_key. Pack seeds its in-run dedup set with
// this so a re-run over unchanged input writes nothing.
func (c *Catalog) Keys(ctx context.Context) (map[string]bool, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT mu_key FROM mus`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = true
	}
	return keys, rows.Err()
}

// Lookup finds an entry by mu_id. A miss returns nil, nil: the catalog is
// an index, so absence here says nothing about the files on disk.
func (c *Catalog) Lookup(ctx context.Context, muID string) (*Entry, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT mu_key, mu_id, content_hash, path, source, group_id, created_at
		 FROM mus WHERE mu_id = ? LIMIT 1`, muID)
	var e Entry
	err := row.Scan(&e.MUKey, &e.MUID, &e.ContentHash, &e.Path, &e.Source, &e.GroupID, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Entries returns all recorded MUs in creation order.
func (c *Catalog) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT mu_key, mu_id, content_hash, path, source, group_id, created_at
		 FROM mus ORDER BY created_at, mu_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.MUKey, &e.MUID, &e.ContentHash, &e.Path, &e.Source, &e.GroupID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats holds catalog counts.
type Stats struct {
	CatalogPath string        `json:"catalog_path"`
	SizeBytes   int64         `json:"size_bytes"`
	TotalMUs    int           `json:"total_mus"`
	Groups      int           `json:"groups"`
	Sources     []SourceStats `json:"sources,omitempty"`
}

// SourceStats holds per-source counts.
type SourceStats struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Stats returns counts for the catalog.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{CatalogPath: c.path}

	if info, err := os.Stat(c.path); err == nil {
		st.SizeBytes = info.Size()
	}

	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mus`).Scan(&st.TotalMUs); err != nil {
		return nil, err
	}
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT group_id) FROM mus`).Scan(&st.Groups); err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT source, COUNT(*) as cnt FROM mus GROUP BY source ORDER BY cnt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s SourceStats
		if err := rows.Scan(&s.Source, &s.Count); err != nil {
			return nil, err
		}
		st.Sources = append(st.Sources, s)
	}
	return st, rows.Err()
}

// Close closes the catalog.
func (c *Catalog) Close() error {
	return c.db.Close()
}
