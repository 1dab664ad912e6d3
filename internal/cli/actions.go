package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specl/specl/internal/issues"
	"github.com/specl/specl/internal/readiness"
	"github.com/specl/specl/internal/store"
)

// issueActions pairs a finding with its remediation menu.
type issueActions struct {
	Issue   issues.Issue    `json:"issue"`
	Actions []issues.Action `json:"actions"`
}

// NewActionsCommand creates the actions command.
func NewActionsCommand(rootOpts *RootOptions) *cobra.Command {
	var aiMode string

	cmd := &cobra.Command{
		Use:   "actions <document-id>",
		Short: "List remediation actions for a document's issues",
		Long: `Evaluate a document and list the remediation actions available for each
finding. AI-backed actions appear only when the AI mode allows them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActions(rootOpts, aiMode, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&aiMode, "ai-mode", "", "AI capability (cloud|local|disabled), defaults from config")
	return cmd
}

func runActions(opts *RootOptions, aiMode, documentID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if aiMode == "" {
		aiMode = cfg.AIMode
	}
	mode := issues.AIMode(aiMode)
	switch mode {
	case issues.AICloud, issues.AILocal, issues.AIDisabled:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid ai-mode %q", aiMode))
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

	all := make([]issueActions, 0, len(result.BlockingIssues)+len(result.Recommendations))
	for _, issue := range append(result.BlockingIssues, result.Recommendations...) {
		all = append(all, issueActions{Issue: issue, Actions: issues.Actions(issue, mode)})
	}

	return formatter.SuccessText(renderActions(all), all)
}

func renderActions(all []issueActions) string {
	if len(all) == 0 {
		return "no issues, no actions needed"
	}

	var b strings.Builder
	for _, entry := range all {
		fmt.Fprintf(&b, "[%s] %s: %s\n", entry.Issue.Code, entry.Issue.FieldPath, entry.Issue.Message)
		for _, action := range entry.Actions {
			fmt.Fprintf(&b, "  - %s (%s) %s\n", action.ID, action.Type, action.Label)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
