// Package cli provides the patternbuilder command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	patternbuilder "github.com/goliatone/go-patternbuilder"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

type moduleKey struct{}

// flagKeys maps plain flags onto config keys. Path flags are resolved
// against the working directory and passed as overrides instead.
var flagKeys = map[string]string{
	"storage-driver": "storage.driver",
	"storage-dsn":    "storage.dsn",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"view-mode":      "builder.default_view_mode",
}

var pathFlags = map[string]string{
	"templates": "templates.dir",
	"catalog":   "catalog.file",
	"fixtures":  "catalog.fixtures",
}

// moduleBuilder is replaced in tests.
var moduleBuilder = func(cfg patternbuilder.Config) (*patternbuilder.Module, error) {
	return patternbuilder.New(cfg)
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		dir     string
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:     "patternbuilder",
		Short:   "Map CMS items onto pattern components",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			flags := cmd.Flags()
			overrides, err := pathOverrides(cmd)
			if err != nil {
				return err
			}
			if verbose {
				overrides["features.logger"] = true
			}

			cfg, used, err := patternbuilder.LoadConfig(patternbuilder.LoadOptions{
				Path:      cfgFile,
				Dir:       dir,
				Flags:     flags,
				FlagKeys:  flagKeys,
				Overrides: overrides,
			})
			if err != nil {
				return err
			}
			if verbose && used != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", used)
			}

			module, err := moduleBuilder(cfg)
			if err != nil {
				return fmt.Errorf("bootstrap module: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), moduleKey{}, module))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if module := moduleFrom(cmd); module != nil {
				return module.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./patternbuilder.yaml)")
	flags.StringVar(&dir, "dir", ".", "directory searched for patternbuilder.yaml")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable logging")
	flags.StringSlice("schemas", nil, "pattern schema directories")
	flags.String("templates", "", "template directory")
	flags.String("catalog", "", "catalog YAML file")
	flags.String("fixtures", "", "item fixture directory")
	flags.String("storage-driver", "", "item store driver (memory|sqlite|postgres)")
	flags.String("storage-dsn", "", "item store DSN")
	flags.String("log-level", "", "log level")
	flags.String("log-format", "", "go-logger output format (json|console|pretty)")
	flags.String("view-mode", "", "default view mode")

	_ = rootCmd.RegisterFlagCompletionFunc("storage-driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"memory", "sqlite", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newSchemasCommand())
	rootCmd.AddCommand(newCacheCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func moduleFrom(cmd *cobra.Command) *patternbuilder.Module {
	module, _ := cmd.Context().Value(moduleKey{}).(*patternbuilder.Module)
	return module
}

func pathOverrides(cmd *cobra.Command) (map[string]any, error) {
	flags := cmd.Flags()
	overrides := map[string]any{}
	for name, key := range pathFlags {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(value)
		if err != nil {
			return nil, fmt.Errorf("resolve --%s: %w", name, err)
		}
		overrides[key] = abs
	}
	if flags.Changed("schemas") {
		dirs, err := flags.GetStringSlice("schemas")
		if err != nil {
			return nil, err
		}
		resolved := make([]string, 0, len(dirs))
		for _, dir := range dirs {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return nil, fmt.Errorf("resolve --schemas: %w", err)
			}
			resolved = append(resolved, abs)
		}
		overrides["schemas.dirs"] = resolved
	}
	return overrides, nil
}
