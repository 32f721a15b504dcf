// Package localstore keeps roadmaps in a single SQLite file. It serves the
// same contract as the Redis and HTTP backends so the CLI can work fully
// offline.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dyluth/roadmapper/pkg/roadmap"
	_ "modernc.org/sqlite"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS roadmaps (
		project_id TEXT PRIMARY KEY,
		doc        TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		saved_at   TEXT NOT NULL
	)`,
}

// Store is a SQLite-backed roadmap store, one row per project.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating it and its directory when
// needed. ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetRoadmap returns a project's roadmap, or roadmap.ErrNotFound.
func (s *Store) GetRoadmap(ctx context.Context, projectID string) (*roadmap.Roadmap, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM roadmaps WHERE project_id = ?`, projectID).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roadmap.ErrNotFound
		}
		return nil, fmt.Errorf("querying roadmap: %w", err)
	}

	var r roadmap.Roadmap
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("decoding roadmap: %w", err)
	}
	return &r, nil
}

// SaveRoadmap inserts or replaces a project's roadmap.
func (s *Store) SaveRoadmap(ctx context.Context, projectID string, r *roadmap.Roadmap) error {
	if projectID == "" {
		return fmt.Errorf("project id cannot be empty")
	}

	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding roadmap: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO roadmaps (project_id, doc, updated_at, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			doc = excluded.doc,
			updated_at = excluded.updated_at,
			saved_at = excluded.saved_at`,
		projectID,
		string(doc),
		r.UpdatedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving roadmap: %w", err)
	}
	return nil
}

// ProjectSummary describes one stored roadmap.
type ProjectSummary struct {
	ProjectID string
	UpdatedAt time.Time
	SavedAt   time.Time
}

// Projects lists stored projects ordered by id.
func (s *Store) Projects(ctx context.Context) ([]ProjectSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_id, updated_at, saved_at FROM roadmaps ORDER BY project_id`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectSummary
	for rows.Next() {
		var p ProjectSummary
		var updated, saved string
		if err := rows.Scan(&p.ProjectID, &updated, &saved); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		p.SavedAt, _ = time.Parse(time.RFC3339Nano, saved)
		out = append(out, p)
	}
	return out, rows.Err()
}
