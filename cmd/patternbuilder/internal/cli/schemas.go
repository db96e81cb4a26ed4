package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-patternbuilder/internal/schema"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSchemasCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Inspect and validate pattern schemas",
	}
	cmd.AddCommand(newSchemasListCommand())
	cmd.AddCommand(newSchemasValidateCommand())
	return cmd
}

func newSchemasListCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			patterns := moduleFrom(cmd).Patterns().Patterns()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(patterns)
			case "table":
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			if len(patterns) == 0 {
				_, err := fmt.Fprintln(out, "(0 patterns)")
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Label", "Status", "Type", "Path"})
			for _, pattern := range patterns {
				t.AppendRow(table.Row{pattern.Name, pattern.Label, pattern.Status, pattern.Type, pattern.Path})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format (table|json)")
	return cmd
}

func newSchemasValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pattern> <data-file>",
		Short: "Validate a JSON or YAML document against a pattern",
		Example: `  patternbuilder schemas validate hero testdata/hero.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			var data any
			if err := yaml.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("decode %s: %w", args[1], err)
			}

			loader := moduleFrom(cmd).Container().SchemaLoader()
			err = loader.Validate(cmd.Context(), args[0], data)
			var validationErr *schema.ValidationError
			if errors.As(err, &validationErr) {
				for _, issue := range validationErr.Issues {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", issue.Location, issue.Message)
				}
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
			return err
		},
	}
}
