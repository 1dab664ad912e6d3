package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/specl/specl/internal/oracle"
	"github.com/specl/specl/internal/store"
)

// Anthropic Claude pricing per token, used for the audit cost estimate.
const (
	costPerInputToken  = 3.0 / 1_000_000
	costPerOutputToken = 15.0 / 1_000_000
)

// Stage names the pipeline step that rejected an export.
type Stage string

const (
	StageSourceValidation     Stage = "source_validation"
	StageTranslation          Stage = "translation"
	StageTranslatedValidation Stage = "translated_validation"
)

// PipelineError reports which stage failed and carries the structured
// validation messages when the stage is a validation one. Translation
// failures wrap the classified oracle error instead.
type PipelineError struct {
	Stage  Stage
	Errors []string
	Err    error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export %s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("export %s failed: %d validation errors", e.Stage, len(e.Errors))
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// RecordStore is the slice of the persistence layer the orchestrator needs.
type RecordStore interface {
	FindExport(ctx context.Context, key store.ExportKey) (*store.ExportRecord, error)
	InsertExport(ctx context.Context, key store.ExportKey, contentJSON string) (*store.ExportRecord, error)
	WriteOracleAudit(ctx context.Context, audit store.OracleAudit) error
}

// Translator renders a validated zh context into English.
type Translator interface {
	Translate(ctx context.Context, zhContext map[string]any) (*oracle.Translation, error)
}

// Builder runs the full export pipeline against a store and, for English
// exports, a translator. The store read, the oracle call, and the store
// write happen strictly in that order; nothing is persisted until the whole
// pipeline has succeeded.
type Builder struct {
	records    RecordStore
	translator Translator
	logger     *slog.Logger

	// recorded in the oracle audit trail alongside token usage
	oracleProvider string
	oracleModel    string
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithTranslator wires the translation oracle. Without one, English
// exports fail fast with a translation-stage error.
func WithTranslator(t Translator, provider, model string) BuilderOption {
	return func(b *Builder) {
		b.translator = t
		b.oracleProvider = provider
		b.oracleModel = model
	}
}

// WithBuilderLogger sets the builder logger.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder constructs an export builder over a record store.
func NewBuilder(records RecordStore, opts ...BuilderOption) *Builder {
	b := &Builder{
		records: records,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildRequest is one export invocation.
type BuildRequest struct {
	DocumentID         string
	UpdatedAt          string
	Fields             map[string]any
	Language           Language
	Source             Source
	Profile            Profile
	Scope              Scope
	IncludeFlowsInLean bool
}

// BuildResult is the outcome of a successful export.
type BuildResult struct {
	Context     map[string]any `json:"context"`
	Cached      bool           `json:"cached"`
	CreatedAt   time.Time      `json:"createdAt"`
	ContentHash string         `json:"contentHash"`

	// token usage and cost, zero for zh exports
	TokensIn     int     `json:"tokensIn,omitempty"`
	TokensOut    int     `json:"tokensOut,omitempty"`
	CostEstimate float64 `json:"costEstimate,omitempty"`
}

// ContextResult is the outcome of the pure pipeline, before any store or
// oracle involvement.
type ContextResult struct {
	Context map[string]any `json:"context"`
	Valid   bool           `json:"valid"`
	Errors  []string       `json:"errors"`
}

// BuildContext runs map, prune, scope filter and validate over raw field
// data. It never touches the store or the oracle, so callers can preview
// an export without persisting anything.
func BuildContext(req BuildRequest) ContextResult {
	mapped := MapDocument(MapInput{
		DocumentID: req.DocumentID,
		UpdatedAt:  req.UpdatedAt,
		Fields:     req.Fields,
		Language:   req.Language,
		Source:     req.Source,
	})
	pruned := PruneByProfile(mapped, PruneOptions{
		Profile:            req.Profile,
		IncludeFlowsInLean: req.IncludeFlowsInLean,
	})
	if reqs, ok := pruned["requirements"].([]any); ok {
		pruned["requirements"] = FilterRequirementsByScope(reqs, req.Scope)
	}

	result := ValidateContext(pruned)
	return ContextResult{Context: pruned, Valid: result.Valid, Errors: result.Errors}
}

// Build runs the full export. English exports build and validate the zh
// context first, translate it, and validate the translation independently;
// a zh validation failure short-circuits before any oracle cost is
// incurred. A prior record with the same content hash is returned as a
// cache hit without writing anything.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	if !req.Profile.Valid() {
		return nil, fmt.Errorf("unknown profile %q", req.Profile)
	}
	if !req.Scope.Valid() {
		return nil, fmt.Errorf("unknown scope %q", req.Scope)
	}
	if req.Language != LanguageZH && req.Language != LanguageEN {
		return nil, fmt.Errorf("unknown language %q", req.Language)
	}

	// The zh pipeline is the source of truth for both languages.
	zhReq := req
	zhReq.Language = LanguageZH
	source := BuildContext(zhReq)
	if !source.Valid {
		return nil, &PipelineError{Stage: StageSourceValidation, Errors: source.Errors}
	}

	final := source.Context
	var tokensIn, tokensOut int
	var cost float64

	if req.Language == LanguageEN {
		if b.translator == nil {
			return nil, &PipelineError{Stage: StageTranslation, Err: fmt.Errorf("no translator configured")}
		}

		translation, err := b.translator.Translate(ctx, source.Context)
		if err != nil {
			return nil, &PipelineError{Stage: StageTranslation, Err: err}
		}

		validation := ValidateContext(translation.Context)
		if !validation.Valid {
			return nil, &PipelineError{Stage: StageTranslatedValidation, Errors: validation.Errors}
		}

		final = translation.Context
		tokensIn = translation.TokensIn
		tokensOut = translation.TokensOut
		cost = float64(tokensIn)*costPerInputToken + float64(tokensOut)*costPerOutputToken
	}

	contentHash, err := GenerateCacheKey(final)
	if err != nil {
		return nil, fmt.Errorf("hash export context: %w", err)
	}

	key := store.ExportKey{
		DocumentID:  req.DocumentID,
		Profile:     string(req.Profile),
		Language:    string(req.Language),
		Scope:       string(req.Scope),
		ContentHash: contentHash,
	}

	if existing, err := b.records.FindExport(ctx, key); err != nil {
		return nil, err
	} else if existing != nil {
		b.logger.Debug("export cache hit",
			"document_id", req.DocumentID,
			"profile", req.Profile,
			"language", req.Language,
			"scope", req.Scope,
			"content_hash", contentHash)
		return &BuildResult{
			Context:     final,
			Cached:      true,
			CreatedAt:   existing.CreatedAt,
			ContentHash: contentHash,
		}, nil
	}

	if req.Language == LanguageEN {
		audit := store.OracleAudit{
			DocumentID:   req.DocumentID,
			TaskType:     "context_export_en",
			Provider:     b.oracleProvider,
			Model:        b.oracleModel,
			TokensIn:     tokensIn,
			TokensOut:    tokensOut,
			CostEstimate: cost,
		}
		if err := b.records.WriteOracleAudit(ctx, audit); err != nil {
			return nil, err
		}
	}

	contentJSON, err := json.Marshal(final)
	if err != nil {
		return nil, fmt.Errorf("encode export context: %w", err)
	}

	record, err := b.records.InsertExport(ctx, key, string(contentJSON))
	if err != nil {
		return nil, err
	}

	b.logger.Info("export persisted",
		"document_id", req.DocumentID,
		"profile", req.Profile,
		"language", req.Language,
		"scope", req.Scope,
		"content_hash", contentHash,
		"cached", false)

	return &BuildResult{
		Context:      final,
		Cached:       false,
		CreatedAt:    record.CreatedAt,
		ContentHash:  contentHash,
		TokensIn:     tokensIn,
		TokensOut:    tokensOut,
		CostEstimate: cost,
	}, nil
}
