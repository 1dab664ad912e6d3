package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/specl/specl/internal/store"
	"github.com/specl/specl/internal/template"
)

// importPayload is the on-disk document format accepted by import: the id,
// a title and the per-section field data. The template is always the
// embedded default; imported documents freeze it at import time.
type importPayload struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Fields map[string]any `json:"fields"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import a document from a JSON file",
		Long: `Import a document into the local store. The file carries the document id,
title and field data; the embedded default template is frozen onto the
document. Re-importing an existing id replaces its data.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read document file", err)
	}

	var payload importPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return WrapExitError(ExitCommandError, "parse document file", err)
	}
	if payload.ID == "" {
		return NewExitError(ExitCommandError, "document file is missing an id")
	}
	if payload.Fields == nil {
		payload.Fields = map[string]any{}
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	doc := store.Document{
		ID:        payload.ID,
		Title:     payload.Title,
		Template:  template.Default(),
		Fields:    payload.Fields,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.PutDocument(cmd.Context(), doc); err != nil {
		return WrapExitError(ExitCommandError, "store document", err)
	}

	return formatter.SuccessText(
		fmt.Sprintf("imported %s (%s)", doc.ID, doc.Title),
		map[string]string{"id": doc.ID, "title": doc.Title},
	)
}
