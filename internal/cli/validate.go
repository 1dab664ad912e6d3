package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/specl/specl/internal/export"
	"github.com/specl/specl/internal/store"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	exportOpts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "validate <document-id>",
		Short: "Validate an export without persisting it",
		Long: `Run the export pipeline (map, prune, scope filter, validate) and report
the result without writing a record or calling the translation oracle.
Useful as a fast preview before a real export.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, exportOpts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&exportOpts.Profile, "profile", "", "export profile (lean|standard|detailed), defaults from config")
	cmd.Flags().StringVar(&exportOpts.Scope, "scope", "", "requirement scope (all|p0_only|p0_p1), defaults from config")
	cmd.Flags().BoolVar(&exportOpts.IncludeFlowsInLean, "include-flows-in-lean", false, "keep main flows in the lean profile")

	return cmd
}

func runValidate(opts *RootOptions, exportOpts *exportOptions, documentID string, cmd *cobra.Command) error {
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

	result := export.BuildContext(export.BuildRequest{
		DocumentID:         doc.ID,
		UpdatedAt:          doc.UpdatedAt.UTC().Format(time.RFC3339),
		Fields:             doc.Fields,
		Language:           export.LanguageZH,
		Source:             export.SourceManual,
		Profile:            export.Profile(exportOpts.Profile),
		Scope:              export.Scope(exportOpts.Scope),
		IncludeFlowsInLean: exportOpts.IncludeFlowsInLean,
	})

	if !result.Valid {
		formatter.Error("SOURCE_VALIDATION", fmt.Sprintf("%d validation errors", len(result.Errors)), result.Errors)
		if opts.Format == "text" {
			for _, msg := range result.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", msg)
			}
		}
		return NewExitError(ExitFailure, "context is invalid")
	}

	return formatter.SuccessText("context is valid", result)
}
