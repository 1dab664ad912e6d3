package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specl/specl/internal/readiness"
	"github.com/specl/specl/internal/store"
)

// NewReadinessCommand creates the readiness command.
func NewReadinessCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness <document-id>",
		Short: "Evaluate a document's export readiness",
		Long: `Evaluate a document against its template's readiness rules.

Reports blocking issues, advisory recommendations, completion percentages
and per-section progress. Exit code 1 means the document is not ready.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReadiness(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runReadiness(opts *RootOptions, documentID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
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

	result := readiness.Evaluate(doc.Fields, doc.Template)

	if err := formatter.SuccessText(renderReadiness(doc.Title, result), result); err != nil {
		return err
	}
	if !result.IsReady {
		return NewExitError(ExitFailure, "document is not ready for export")
	}
	return nil
}

func renderReadiness(title string, result readiness.Result) string {
	var b strings.Builder

	status := "NOT READY"
	if result.IsReady {
		status = "READY"
	}
	fmt.Fprintf(&b, "%s: %s\n", title, status)
	fmt.Fprintf(&b, "Required fields: %d/%d (%d%%), quality %d%%\n",
		result.Completion.RequiredDone,
		result.Completion.RequiredTotal,
		result.Completion.RequiredPercent,
		result.Completion.QualityPercent)

	if len(result.PerSectionStats) > 0 {
		b.WriteString("\nSections:\n")
		for _, section := range result.PerSectionStats {
			fmt.Fprintf(&b, "  %-14s %d/%d (%d%%)\n",
				section.SectionKey, section.RequiredDone, section.RequiredTotal, section.RequiredPercent)
		}
	}

	if len(result.BlockingIssues) > 0 {
		fmt.Fprintf(&b, "\nBlocking issues (%d):\n", len(result.BlockingIssues))
		for _, issue := range result.BlockingIssues {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", issue.Code, issue.FieldPath, issue.Message)
		}
	}
	if len(result.Recommendations) > 0 {
		fmt.Fprintf(&b, "\nRecommendations (%d):\n", len(result.Recommendations))
		for _, issue := range result.Recommendations {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", issue.Code, issue.FieldPath, issue.Message)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
