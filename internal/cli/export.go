package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/specl/specl/internal/config"
	"github.com/specl/specl/internal/export"
	"github.com/specl/specl/internal/issues"
	"github.com/specl/specl/internal/oracle"
	"github.com/specl/specl/internal/store"
)

type exportOptions struct {
	Profile            string
	Language           string
	Scope              string
	IncludeFlowsInLean bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	exportOpts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export <document-id>",
		Short: "Build and persist a context artifact",
		Long: `Build a context artifact from a document's current field data.

The artifact is mapped, pruned by profile, filtered by scope, validated
against the context contract and content-addressed. An unchanged document
returns the prior record as a cache hit. English exports translate the
validated Chinese context through the configured AI provider.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, exportOpts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&exportOpts.Profile, "profile", "", "export profile (lean|standard|detailed), defaults from config")
	cmd.Flags().StringVar(&exportOpts.Language, "language", "zh", "artifact language (zh|en)")
	cmd.Flags().StringVar(&exportOpts.Scope, "scope", "", "requirement scope (all|p0_only|p0_p1), defaults from config")
	cmd.Flags().BoolVar(&exportOpts.IncludeFlowsInLean, "include-flows-in-lean", false, "keep main flows in the lean profile")

	return cmd
}

func runExport(opts *RootOptions, exportOpts *exportOptions, documentID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if exportOpts.Profile == "" {
		exportOpts.Profile = cfg.Profile
	}
	if exportOpts.Scope == "" {
		exportOpts.Scope = cfg.Scope
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := s.GetDocument(cmd.Context(), documentID)
	if errors.Is(err, store.ErrNotFound) {
		formatter.Error("NOT_FOUND", fmt.Sprintf("document %s not found", documentID), nil)
		return NewExitError(ExitCommandError, "document not found")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "load document", err)
	}

	builderOpts := []export.BuilderOption{}
	if exportOpts.Language == string(export.LanguageEN) {
		translator, err := newTranslator(cfg)
		if err != nil {
			formatter.Error("AI_UNAVAILABLE", err.Error(), nil)
			return NewExitError(ExitCommandError, "translation oracle unavailable")
		}
		builderOpts = append(builderOpts, export.WithTranslator(translator, cfg.Provider, cfg.Model))
	}

	builder := export.NewBuilder(s, builderOpts...)
	result, err := builder.Build(cmd.Context(), export.BuildRequest{
		DocumentID:         doc.ID,
		UpdatedAt:          doc.UpdatedAt.UTC().Format(time.RFC3339),
		Fields:             doc.Fields,
		Language:           export.Language(exportOpts.Language),
		Source:             export.SourceManual,
		Profile:            export.Profile(exportOpts.Profile),
		Scope:              export.Scope(exportOpts.Scope),
		IncludeFlowsInLean: exportOpts.IncludeFlowsInLean,
	})

	var pipelineErr *export.PipelineError
	if errors.As(err, &pipelineErr) {
		formatter.Error(string(pipelineErr.Stage), pipelineErr.Error(), pipelineErr.Errors)
		return NewExitError(ExitFailure, "export rejected")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	return formatter.SuccessText(renderExport(result), result)
}

// newTranslator builds the oracle client for English exports. Fails fast
// when the AI mode is disabled or the provider is misconfigured.
func newTranslator(cfg *config.Configuration) (*oracle.Client, error) {
	mode := issues.AIMode(cfg.AIMode)
	if !mode.Enabled() {
		return nil, fmt.Errorf("English exports need ai_mode cloud or local, got %q", cfg.AIMode)
	}
	return oracle.NewClient(oracle.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Mode:     mode,
		Retry: oracle.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
	}, oracle.WithHTTPClient(&http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}))
}

func renderExport(result *export.BuildResult) string {
	contextJSON, err := json.MarshalIndent(result.Context, "", "  ")
	if err != nil {
		contextJSON = []byte(fmt.Sprintf("<unrenderable context: %v>", err))
	}

	header := fmt.Sprintf("cached=%t hash=%s createdAt=%s",
		result.Cached, result.ContentHash, result.CreatedAt.UTC().Format(time.RFC3339))
	if result.TokensIn > 0 || result.TokensOut > 0 {
		header += fmt.Sprintf(" tokens=%d/%d cost=$%.4f",
			result.TokensIn, result.TokensOut, result.CostEstimate)
	}
	return header + "\n" + string(contextJSON)
}
