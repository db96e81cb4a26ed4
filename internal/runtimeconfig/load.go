package runtimeconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultEnvPrefix prefixes environment overrides. A double underscore
// separates sections: PATTERNBUILDER_STORAGE__DRIVER sets storage.driver.
const DefaultEnvPrefix = "PATTERNBUILDER_"

// ConfigFileNames are probed in order when no explicit path is given.
var ConfigFileNames = []string{"patternbuilder.yaml", "patternbuilder.yml"}

// LoadOptions control where configuration is read from.
type LoadOptions struct {
	// Path is an explicit config file. When empty ConfigFileNames are probed in Dir.
	Path string
	Dir  string
	// EnvPrefix defaults to DefaultEnvPrefix. Use "-" to skip the environment.
	EnvPrefix string
	// Flags are applied after the environment. Only flags that were set and
	// have an entry in FlagKeys are read.
	Flags *pflag.FlagSet
	// FlagKeys maps flag names to dotted config keys (storage-driver: storage.driver).
	FlagKeys map[string]string
	// Overrides have the highest priority, keyed by dotted path (storage.driver).
	Overrides map[string]any
}

// Load builds a Config from defaults, the config file, environment variables,
// flags and overrides, in increasing priority. Relative paths are resolved against
// the directory of the config file.
func Load(opts LoadOptions) (Config, string, error) {
	cfg := DefaultConfig()
	k := koanf.New(".")

	used := findConfigFile(opts.Path, opts.Dir)
	if opts.Path != "" && used == "" {
		return cfg, "", fmt.Errorf("patternbuilder config: config file %s not found", opts.Path)
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return cfg, used, fmt.Errorf("patternbuilder config: read %s: %w", used, err)
		}
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if prefix != "-" {
		if err := k.Load(env.Provider(prefix, ".", func(s string) string {
			key := strings.ToLower(strings.TrimPrefix(s, prefix))
			return strings.ReplaceAll(key, "__", ".")
		}), nil); err != nil {
			return cfg, used, fmt.Errorf("patternbuilder config: load env: %w", err)
		}
	}

	if opts.Flags != nil && len(opts.FlagKeys) > 0 {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := opts.FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return cfg, used, fmt.Errorf("patternbuilder config: load flags: %w", err)
		}
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return cfg, used, fmt.Errorf("patternbuilder config: load overrides: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, used, fmt.Errorf("patternbuilder config: decode: %w", err)
	}

	base := opts.Dir
	if used != "" {
		base = filepath.Dir(used)
	}
	cfg.resolvePaths(base)
	return cfg, used, nil
}

func (cfg *Config) resolvePaths(base string) {
	if base == "" {
		return
	}
	for idx, dir := range cfg.Schemas.Dirs {
		cfg.Schemas.Dirs[idx] = resolvePathRelativeTo(dir, base)
	}
	cfg.Templates.Dir = resolvePathRelativeTo(cfg.Templates.Dir, base)
	cfg.Templates.ThemeDir = resolvePathRelativeTo(cfg.Templates.ThemeDir, base)
	cfg.Catalog.File = resolvePathRelativeTo(cfg.Catalog.File, base)
	cfg.Catalog.Fixtures = resolvePathRelativeTo(cfg.Catalog.Fixtures, base)
}

func findConfigFile(explicit, dir string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func resolvePathRelativeTo(path, base string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
