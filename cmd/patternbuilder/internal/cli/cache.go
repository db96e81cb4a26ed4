package cli

import (
	"fmt"

	patternbuilder "github.com/goliatone/go-patternbuilder"
	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached schemas and items",
	}
	cmd.AddCommand(newCacheClearCommand())
	return cmd
}

func newCacheClearCommand() *cobra.Command {
	var (
		actor string
		store bool
	)

	cmd := &cobra.Command{
		Use:   "clear [pattern]",
		Short: "Clear one cached schema, or every schema when no pattern is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			module := moduleFrom(cmd)
			err := module.ClearSchemaCache(cmd.Context(), patternbuilder.ClearSchemaCacheCommand{
				Schema:  name,
				ActorID: actor,
			})
			if err != nil {
				return err
			}
			if store {
				if err := module.Container().InvalidateStoreCache(cmd.Context()); err != nil {
					return fmt.Errorf("invalidate store cache: %w", err)
				}
			}

			scope := "all schemas"
			if name != "" {
				scope = name
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", scope)
			return err
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "actor UUID recorded in activity")
	cmd.Flags().BoolVar(&store, "store", false, "also drop cached item lookups of SQL stores")
	return cmd
}
