package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specl/specl/internal/oracle"
	"github.com/specl/specl/internal/store"
)

// fakeRecords is an in-memory RecordStore with the same dedup semantics as
// the SQLite store.
type fakeRecords struct {
	records []store.ExportRecord
	audits  []store.OracleAudit
}

func (f *fakeRecords) FindExport(_ context.Context, key store.ExportKey) (*store.ExportRecord, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.DocumentID == key.DocumentID && r.Profile == key.Profile &&
			r.Language == key.Language && r.Scope == key.Scope && r.ContentHash == key.ContentHash {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRecords) InsertExport(ctx context.Context, key store.ExportKey, contentJSON string) (*store.ExportRecord, error) {
	if existing, _ := f.FindExport(ctx, key); existing != nil {
		return existing, nil
	}
	rec := store.ExportRecord{
		ID:          "rec-1",
		DocumentID:  key.DocumentID,
		Profile:     key.Profile,
		Language:    key.Language,
		Scope:       key.Scope,
		ContentHash: key.ContentHash,
		ContentJSON: contentJSON,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	f.records = append(f.records, rec)
	return &rec, nil
}

func (f *fakeRecords) WriteOracleAudit(_ context.Context, audit store.OracleAudit) error {
	f.audits = append(f.audits, audit)
	return nil
}

type fakeTranslator struct {
	calls     int
	err       error
	translate func(zh map[string]any) map[string]any
}

func (f *fakeTranslator) Translate(_ context.Context, zhContext map[string]any) (*oracle.Translation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	translated := zhContext
	if f.translate != nil {
		translated = f.translate(zhContext)
	}
	return &oracle.Translation{Context: translated, TokensIn: 100, TokensOut: 200}, nil
}

// englishize flips the language markers the way a real translation would.
func englishize(zh map[string]any) map[string]any {
	out := deepCopyMap(zh)
	if meta, ok := out["meta"].(map[string]any); ok {
		meta["language"] = "en"
		meta["source"] = "ai_assisted"
	}
	return out
}

func validFields() map[string]any {
	return map[string]any{
		"meta":    map[string]any{"title": "支付改版"},
		"problem": map[string]any{"problemStatement": "结账流程太长"},
		"scope": map[string]any{
			"inScope":  []any{"checkout"},
			"outScope": []any{"refunds"},
		},
		"requirements": map[string]any{
			"requirements": []any{
				map[string]any{
					"id":         "PAY-1",
					"title":      "一键支付",
					"priority":   "P0",
					"userStory":  "作为用户",
					"acceptance": []any{"ok"},
					"edgeCases":  []any{"edge"},
				},
				map[string]any{
					"id":         "PAY-2",
					"title":      "账单",
					"priority":   "P2",
					"userStory":  "作为用户",
					"acceptance": []any{"ok"},
					"edgeCases":  []any{"edge"},
				},
			},
		},
	}
}

func buildRequest(language Language) BuildRequest {
	return BuildRequest{
		DocumentID: "doc-1",
		UpdatedAt:  "2026-01-02T03:04:05Z",
		Fields:     validFields(),
		Language:   language,
		Source:     SourceManual,
		Profile:    ProfileLean,
		Scope:      ScopeAll,
	}
}

func TestBuildZHMissThenHit(t *testing.T) {
	records := &fakeRecords{}
	builder := NewBuilder(records)

	first, err := builder.Build(context.Background(), buildRequest(LanguageZH))
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.NotEmpty(t, first.ContentHash)
	require.Len(t, records.records, 1)

	second, err := builder.Build(context.Background(), buildRequest(LanguageZH))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Len(t, records.records, 1)
}

func TestBuildScopeChangesHash(t *testing.T) {
	records := &fakeRecords{}
	builder := NewBuilder(records)

	req := buildRequest(LanguageZH)
	all, err := builder.Build(context.Background(), req)
	require.NoError(t, err)

	req.Scope = ScopeP0Only
	p0, err := builder.Build(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, all.ContentHash, p0.ContentHash)
	assert.Len(t, records.records, 2)

	reqs := p0.Context["requirements"].([]any)
	require.Len(t, reqs, 1)
	assert.Equal(t, "PAY-1", reqs[0].(map[string]any)["id"])
}

func TestBuildInvalidSourceShortCircuits(t *testing.T) {
	records := &fakeRecords{}
	translator := &fakeTranslator{translate: englishize}
	builder := NewBuilder(records, WithTranslator(translator, "anthropic", "claude-test"))

	req := buildRequest(LanguageEN)
	req.Fields = map[string]any{} // fails the contract: no requirements ids etc.
	req.Fields["requirements"] = map[string]any{
		"requirements": []any{map[string]any{"id": "1bad"}},
	}

	_, err := builder.Build(context.Background(), req)
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StageSourceValidation, perr.Stage)
	assert.NotEmpty(t, perr.Errors)

	// No oracle cost, nothing persisted.
	assert.Zero(t, translator.calls)
	assert.Empty(t, records.records)
	assert.Empty(t, records.audits)
}

func TestBuildENTranslatesAuditsAndPersists(t *testing.T) {
	records := &fakeRecords{}
	translator := &fakeTranslator{translate: englishize}
	builder := NewBuilder(records, WithTranslator(translator, "anthropic", "claude-test"))

	result, err := builder.Build(context.Background(), buildRequest(LanguageEN))
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, 1, translator.calls)
	assert.Equal(t, 100, result.TokensIn)
	assert.Equal(t, 200, result.TokensOut)
	assert.InDelta(t, 100*costPerInputToken+200*costPerOutputToken, result.CostEstimate, 1e-12)

	meta := result.Context["meta"].(map[string]any)
	assert.Equal(t, "en", meta["language"])
	assert.Equal(t, "ai_assisted", meta["source"])

	require.Len(t, records.records, 1)
	assert.Equal(t, "en", records.records[0].Language)

	require.Len(t, records.audits, 1)
	audit := records.audits[0]
	assert.Equal(t, "context_export_en", audit.TaskType)
	assert.Equal(t, "anthropic", audit.Provider)
	assert.Equal(t, "claude-test", audit.Model)
	assert.Equal(t, 100, audit.TokensIn)
	assert.Equal(t, 200, audit.TokensOut)
}

func TestBuildENTranslationFailureWritesNothing(t *testing.T) {
	records := &fakeRecords{}
	translator := &fakeTranslator{err: errors.New("boom")}
	builder := NewBuilder(records, WithTranslator(translator, "anthropic", "claude-test"))

	_, err := builder.Build(context.Background(), buildRequest(LanguageEN))
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StageTranslation, perr.Stage)

	assert.Empty(t, records.records)
	assert.Empty(t, records.audits)
}

func TestBuildENInvalidTranslationRejected(t *testing.T) {
	records := &fakeRecords{}
	translator := &fakeTranslator{translate: func(zh map[string]any) map[string]any {
		broken := englishize(zh)
		delete(broken, "problem")
		return broken
	}}
	builder := NewBuilder(records, WithTranslator(translator, "anthropic", "claude-test"))

	_, err := builder.Build(context.Background(), buildRequest(LanguageEN))
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StageTranslatedValidation, perr.Stage)
	assert.NotEmpty(t, perr.Errors)

	assert.Empty(t, records.records)
	assert.Empty(t, records.audits)
}

func TestBuildENWithoutTranslator(t *testing.T) {
	builder := NewBuilder(&fakeRecords{})

	_, err := builder.Build(context.Background(), buildRequest(LanguageEN))
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StageTranslation, perr.Stage)
}

func TestBuildRejectsUnknownParameters(t *testing.T) {
	builder := NewBuilder(&fakeRecords{})

	req := buildRequest(LanguageZH)
	req.Profile = "verbose"
	_, err := builder.Build(context.Background(), req)
	assert.Error(t, err)

	req = buildRequest(LanguageZH)
	req.Scope = "p3"
	_, err = builder.Build(context.Background(), req)
	assert.Error(t, err)

	req = buildRequest(LanguageZH)
	req.Language = "fr"
	_, err = builder.Build(context.Background(), req)
	assert.Error(t, err)
}

func TestBuildContextPreviewDoesNotPersist(t *testing.T) {
	result := BuildContext(buildRequest(LanguageZH))
	assert.True(t, result.Valid, "errors: %v", result.Errors)
	assert.Equal(t, SchemaVersion, result.Context["schemaVersion"])
}
