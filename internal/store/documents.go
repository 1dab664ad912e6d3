package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/specl/specl/internal/template"
)

// Document is a stored PRD document: its field data plus a frozen copy of
// the template version it references. The template is immutable for the
// document's lifetime.
type Document struct {
	ID        string
	Title     string
	Template  *template.Schema
	Fields    map[string]any
	UpdatedAt time.Time
}

// ErrNotFound is returned when a document id does not exist.
var ErrNotFound = errors.New("not found")

// PutDocument inserts or replaces a document.
func (s *Store) PutDocument(ctx context.Context, doc Document) error {
	templateJSON, err := json.Marshal(doc.Template)
	if err != nil {
		return fmt.Errorf("put document: marshal template: %w", err)
	}
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("put document: marshal fields: %w", err)
	}

	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, template_json, fields_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			template_json = excluded.template_json,
			fields_json = excluded.fields_json,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, string(templateJSON), string(fieldsJSON), updatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// GetDocument loads a document by id. Returns ErrNotFound for unknown ids.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, template_json, fields_json, updated_at
		FROM documents
		WHERE id = ?
	`, id)

	var doc Document
	var templateJSON, fieldsJSON, updatedAt string
	err := row.Scan(&doc.ID, &doc.Title, &templateJSON, &fieldsJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if err := json.Unmarshal([]byte(templateJSON), &doc.Template); err != nil {
		return nil, fmt.Errorf("get document: decode template: %w", err)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &doc.Fields); err != nil {
		return nil, fmt.Errorf("get document: decode fields: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("get document: parse updated_at %q: %w", updatedAt, err)
	}
	doc.UpdatedAt = ts
	return &doc, nil
}

// PatchSection applies a merge patch to exactly one section of a document's
// field data: each patch key replaces or adds a key within that section,
// sibling sections are never touched. The write is transactional.
func (s *Store) PatchSection(ctx context.Context, documentID, sectionKey string, patch map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("patch section: %w", err)
	}
	defer tx.Rollback()

	var fieldsJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT fields_json FROM documents WHERE id = ?`, documentID,
	).Scan(&fieldsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("patch section: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return fmt.Errorf("patch section: decode fields: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}

	section, _ := fields[sectionKey].(map[string]any)
	if section == nil {
		section = map[string]any{}
	}
	for k, v := range patch {
		section[k] = v
	}
	fields[sectionKey] = section

	updated, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("patch section: encode fields: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE documents SET fields_json = ?, updated_at = ? WHERE id = ?
	`, string(updated), time.Now().UTC().Format(time.RFC3339Nano), documentID)
	if err != nil {
		return fmt.Errorf("patch section: %w", err)
	}

	return tx.Commit()
}
