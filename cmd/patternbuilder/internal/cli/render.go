package cli

import (
	"encoding/json"
	"fmt"

	patternbuilder "github.com/goliatone/go-patternbuilder"
	"github.com/spf13/cobra"
)

func newRenderCommand() *cobra.Command {
	var (
		revision string
		viewMode string
		actor    string
		tree     bool
	)

	cmd := &cobra.Command{
		Use:   "render <entity-type> [id]",
		Short: "Render a stored item through its pattern",
		Example: `  # Render paragraph 12 with the default view mode
  patternbuilder render paragraphs_item 12

  # Render a revision and print the component tree as JSON
  patternbuilder render paragraphs_item --revision r12 --tree`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) > 1 {
				id = args[1]
			}
			module := moduleFrom(cmd)
			if viewMode == "" {
				viewMode = module.Container().Config.Builder.DefaultViewMode
			}

			var result patternbuilder.RenderResult
			err := module.Execute(cmd.Context(), patternbuilder.RenderPatternCommand{
				EntityType: args[0],
				ID:         id,
				RevisionID: revision,
				ViewMode:   viewMode,
				ActorID:    actor,
				Result:     &result,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if tree {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(result.Tree)
			}
			_, err = fmt.Fprintln(out, result.Markup)
			return err
		},
	}

	cmd.Flags().StringVar(&revision, "revision", "", "render this revision instead of the current item")
	cmd.Flags().StringVar(&viewMode, "view", "", "view mode (default: builder.default_view_mode)")
	cmd.Flags().StringVar(&actor, "actor", "", "actor UUID recorded in activity")
	cmd.Flags().BoolVar(&tree, "tree", false, "print the component tree instead of markup")
	return cmd
}
