package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specl/specl/internal/template"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "specl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specl.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
}

func TestPutGetDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := Document{
		ID:       "doc-1",
		Title:    "支付改版",
		Template: template.Default(),
		Fields: map[string]any{
			"meta": map[string]any{"title": "支付改版"},
		},
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, s.PutDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "支付改版", got.Title)
	assert.Equal(t, doc.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, "支付改版", got.Fields["meta"].(map[string]any)["title"])
	require.NotNil(t, got.Template)
	assert.Equal(t, template.Default().ContextSchemaVersion, got.Template.ContextSchemaVersion)
	assert.Len(t, got.Template.Sections, len(template.Default().Sections))
}

func TestPutDocumentUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := Document{ID: "doc-1", Title: "v1", Template: template.Default(), Fields: map[string]any{}}
	require.NoError(t, s.PutDocument(ctx, doc))

	doc.Title = "v2"
	require.NoError(t, s.PutDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)
}

func TestGetDocumentNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPatchSectionLeavesSiblingsUntouched(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDocument(ctx, Document{
		ID:       "doc-1",
		Title:    "t",
		Template: template.Default(),
		Fields: map[string]any{
			"meta":    map[string]any{"title": "old", "platform": []any{"ios"}},
			"problem": map[string]any{"problemStatement": "p"},
		},
	}))

	require.NoError(t, s.PatchSection(ctx, "doc-1", "meta", map[string]any{"title": "new"}))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)

	meta := got.Fields["meta"].(map[string]any)
	assert.Equal(t, "new", meta["title"])
	assert.Equal(t, []any{"ios"}, meta["platform"])
	assert.Equal(t, "p", got.Fields["problem"].(map[string]any)["problemStatement"])
}

func TestPatchSectionCreatesSection(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDocument(ctx, Document{
		ID: "doc-1", Title: "t", Template: template.Default(), Fields: map[string]any{},
	}))
	require.NoError(t, s.PatchSection(ctx, "doc-1", "scope", map[string]any{"inScope": []any{"a"}}))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, got.Fields["scope"].(map[string]any)["inScope"])
}

func TestPatchSectionUnknownDocument(t *testing.T) {
	s := openTestStore(t)
	err := s.PatchSection(context.Background(), "missing", "meta", map[string]any{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindExportMissReturnsNil(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.FindExport(context.Background(), ExportKey{
		DocumentID: "doc-1", Profile: "lean", Language: "zh", Scope: "all", ContentHash: "h",
	})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestInsertExportDeduplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	key := ExportKey{DocumentID: "doc-1", Profile: "lean", Language: "zh", Scope: "all", ContentHash: "abc"}

	first, err := s.InsertExport(ctx, key, `{"a":1}`)
	require.NoError(t, err)

	second, err := s.InsertExport(ctx, key, `{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	records, err := s.ListExports(ctx, "doc-1", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestInsertExportDistinctHashes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	key := ExportKey{DocumentID: "doc-1", Profile: "lean", Language: "zh", Scope: "all", ContentHash: "h1"}
	_, err := s.InsertExport(ctx, key, `{"v":1}`)
	require.NoError(t, err)

	key.ContentHash = "h2"
	_, err = s.InsertExport(ctx, key, `{"v":2}`)
	require.NoError(t, err)

	records, err := s.ListExports(ctx, "doc-1", 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestListExportsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, hash := range []string{"h1", "h2", "h3"} {
		key := ExportKey{DocumentID: "doc-1", Profile: "lean", Language: "zh", Scope: "all", ContentHash: hash}
		_, err := s.InsertExport(ctx, key, `{}`)
		require.NoError(t, err)
		// created_at has nanosecond precision but keep ordering unambiguous
		if i < 2 {
			time.Sleep(2 * time.Millisecond)
		}
	}

	records, err := s.ListExports(ctx, "doc-1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "h3", records[0].ContentHash)
	assert.Equal(t, "h2", records[1].ContentHash)
}

func TestListExportsEmpty(t *testing.T) {
	s := openTestStore(t)

	records, err := s.ListExports(context.Background(), "doc-1", 0)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestWriteOracleAudit(t *testing.T) {
	s := openTestStore(t)

	err := s.WriteOracleAudit(context.Background(), OracleAudit{
		DocumentID:   "doc-1",
		TaskType:     "context_export_en",
		Provider:     "anthropic",
		Model:        "claude-test",
		TokensIn:     100,
		TokensOut:    200,
		CostEstimate: 0.0033,
	})
	require.NoError(t, err)
}
