package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExportKey is the dedup key for export records.
type ExportKey struct {
	DocumentID  string
	Profile     string
	Language    string
	Scope       string
	ContentHash string
}

// ExportRecord is one persisted export artifact. Records are append-only;
// nothing in this store ever updates or deletes one.
type ExportRecord struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"documentId"`
	Profile     string    `json:"profile"`
	Language    string    `json:"language"`
	Scope       string    `json:"scope"`
	ContentHash string    `json:"contentHash"`
	ContentJSON string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FindExport returns the newest record matching the dedup key, or nil when
// no identical export has been persisted.
func (s *Store) FindExport(ctx context.Context, key ExportKey) (*ExportRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, profile, language, scope, content_hash, content_json, created_at
		FROM export_records
		WHERE document_id = ? AND profile = ? AND language = ? AND scope = ? AND content_hash = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, key.DocumentID, key.Profile, key.Language, key.Scope, key.ContentHash)

	rec, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find export: %w", err)
	}
	return rec, nil
}

// InsertExport persists a new export record and returns the canonical row
// for its dedup key. A concurrent identical insert is benign: ON CONFLICT
// DO NOTHING followed by a re-read resolves the race to whichever row won.
func (s *Store) InsertExport(ctx context.Context, key ExportKey, contentJSON string) (*ExportRecord, error) {
	createdAt := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_records
		(id, document_id, profile, language, scope, content_hash, content_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (document_id, profile, language, scope, content_hash) DO NOTHING
	`,
		uuid.New().String(),
		key.DocumentID,
		key.Profile,
		key.Language,
		key.Scope,
		key.ContentHash,
		contentJSON,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert export: %w", err)
	}

	rec, err := s.FindExport(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("insert export: record not found after insert")
	}
	return rec, nil
}

// ListExports returns up to limit records for a document, newest first.
// Returns an empty slice (not nil) when the document has no exports.
func (s *Store) ListExports(ctx context.Context, documentID string, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, profile, language, scope, content_hash, content_json, created_at
		FROM export_records
		WHERE document_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	records := []ExportRecord{}
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("list exports: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(row rowScanner) (*ExportRecord, error) {
	var rec ExportRecord
	var createdAt string
	if err := row.Scan(
		&rec.ID, &rec.DocumentID, &rec.Profile, &rec.Language, &rec.Scope,
		&rec.ContentHash, &rec.ContentJSON, &createdAt,
	); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = ts
	return &rec, nil
}
