package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specl/specl/internal/template"
)

// NewTemplateCommand creates the template command group.
func NewTemplateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Inspect the embedded document template",
	}
	cmd.AddCommand(newTemplateShowCommand(rootOpts))
	return cmd
}

func newTemplateShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show the default template's sections, fields and readiness rules",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			tmpl := template.Default()
			return formatter.SuccessText(renderTemplate(tmpl), tmpl)
		},
	}
}

func renderTemplate(tmpl *template.Schema) string {
	var b strings.Builder

	fmt.Fprintf(&b, "template schema %s, context schema %s\n\n",
		tmpl.TemplateSchemaVersion, tmpl.ContextSchemaVersion)

	for _, section := range tmpl.Sections {
		optional := ""
		if section.Optional {
			optional = " (optional)"
		}
		fmt.Fprintf(&b, "%s%s\n", section.Key, optional)
		for _, field := range section.Fields {
			required := ""
			if field.Required {
				required = " required"
			}
			fmt.Fprintf(&b, "  %-20s %s%s\n", field.Key, field.Type, required)
		}
	}

	b.WriteString("\nreadiness rules:\n")
	for _, path := range tmpl.ReadinessRules.RequireFields {
		fmt.Fprintf(&b, "  require %s\n", path)
	}
	for _, key := range tmpl.ReadinessRules.RequirePerRequirement {
		fmt.Fprintf(&b, "  require per requirement: %s\n", key)
	}

	return strings.TrimRight(b.String(), "\n")
}
