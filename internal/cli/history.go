package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "history <document-id>",
		Short:         "List a document's export records, newest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], limit, cmd)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of records")
	return cmd
}

func runHistory(opts *RootOptions, documentID string, limit int, cmd *cobra.Command) error {
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

	records, err := s.ListExports(cmd.Context(), documentID, limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "list exports", err)
	}

	if len(records) == 0 {
		return formatter.SuccessText("no exports recorded", records)
	}

	var b strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&b, "%s  %-8s %-2s %-7s %s\n",
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.Profile, rec.Language, rec.Scope,
			rec.ContentHash[:12])
	}
	return formatter.SuccessText(strings.TrimRight(b.String(), "\n"), records)
}
