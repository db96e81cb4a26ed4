package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-patternbuilder/internal/runtimeconfig"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func TestConfigValidate_AcceptsDefaults(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresBuilderViewModes(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Builder.DefaultViewMode = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrBuilderInvalid) {
		t.Fatalf("expected ErrBuilderInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsSharedWrapperNames(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Builder.RawSchemaName = cfg.Builder.EntitySchemaName

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrBuilderInvalid) {
		t.Fatalf("expected ErrBuilderInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativeRefDepth(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Schemas.MaxRefDepth = -1

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrSchemaRefDepthInvalid) {
		t.Fatalf("expected ErrSchemaRefDepthInvalid, got %v", err)
	}
}

func TestConfigValidate_ThemeRequiresFeature(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Templates.Theme = "aurora"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrThemesFeatureRequired) {
		t.Fatalf("expected ErrThemesFeatureRequired, got %v", err)
	}

	cfg.Features.Themes = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RepositoryCacheRequiresCache(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.Repository = true

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrRepositoryCacheRequiresEnabledCache) {
		t.Fatalf("expected ErrRepositoryCacheRequiresEnabledCache, got %v", err)
	}
}

func TestConfigValidate_ValidationRequiresSchemaDirs(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Validation = true

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrValidationFeatureRequiresSchemas) {
		t.Fatalf("expected ErrValidationFeatureRequiresSchemas, got %v", err)
	}
}

func TestConfigValidate_StorageDrivers(t *testing.T) {
	cases := []struct {
		name   string
		driver string
		dsn    string
		want   error
	}{
		{name: "memory", driver: "memory"},
		{name: "empty means memory", driver: ""},
		{name: "sqlite alias", driver: "sqlite3", dsn: "file::memory:?cache=shared"},
		{name: "postgres alias", driver: "pg", dsn: "postgres://localhost/patterns"},
		{name: "sql without dsn", driver: "postgres", want: runtimeconfig.ErrStorageDSNRequired},
		{name: "unknown", driver: "mongo", want: runtimeconfig.ErrStorageDriverUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			cfg.Storage.Driver = tc.driver
			cfg.Storage.DSN = tc.dsn

			err := cfg.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("Validate() returned unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidate_RequiresLoggingProviderWhenFeatureEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "syslog"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_LoggingLevels(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true

	cfg.Logging.Level = "notice"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected syslog level names to be accepted, got %v", err)
	}

	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, used, err := runtimeconfig.Load(runtimeconfig.LoadOptions{Dir: t.TempDir(), EnvPrefix: "-"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if used != "" {
		t.Fatalf("expected no config file, got %q", used)
	}
	if diff := cmp.Diff(runtimeconfig.DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileEnvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	source := `
builder:
  default_view_mode: teaser
schemas:
  dirs: [patterns]
  max_ref_depth: 10
  bundles:
    hero: hero_banner
storage:
  driver: sqlite
  dsn: file::memory:?cache=shared
cache:
  default_ttl: 5m
logging:
  level: debug
catalog:
  file: catalog.yaml
`
	if err := os.WriteFile(filepath.Join(dir, "patternbuilder.yaml"), []byte(source), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PBTEST_LOGGING__LEVEL", "warn")
	t.Setenv("PBTEST_FEATURES__LOGGER", "true")

	cfg, used, err := runtimeconfig.Load(runtimeconfig.LoadOptions{
		Dir:       dir,
		EnvPrefix: "PBTEST_",
		Overrides: map[string]any{"builder.field_view_mode": "compact"},
	})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if used != filepath.Join(dir, "patternbuilder.yaml") {
		t.Fatalf("unexpected config file %q", used)
	}
	if cfg.Builder.DefaultViewMode != "teaser" || cfg.Builder.FieldViewMode != "compact" {
		t.Fatalf("unexpected builder view modes: %+v", cfg.Builder)
	}
	if cfg.Builder.SchemaEntityType != "paragraphs_item" {
		t.Fatalf("expected defaults to survive, got %q", cfg.Builder.SchemaEntityType)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "patterns")}, cfg.Schemas.Dirs); diff != "" {
		t.Fatalf("schema dirs mismatch (-want +got):\n%s", diff)
	}
	if cfg.Schemas.MaxRefDepth != 10 || cfg.Schemas.Bundles["hero"] != "hero_banner" {
		t.Fatalf("unexpected schema config: %+v", cfg.Schemas)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Cache.DefaultTTL != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %v", cfg.Cache.DefaultTTL)
	}
	if cfg.Logging.Level != "warn" || !cfg.Features.Logger {
		t.Fatalf("expected env overrides, got logging=%+v features=%+v", cfg.Logging, cfg.Features)
	}
	if cfg.Catalog.File != filepath.Join(dir, "catalog.yaml") {
		t.Fatalf("expected catalog path resolved against config dir, got %q", cfg.Catalog.File)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := runtimeconfig.Load(runtimeconfig.LoadOptions{Path: filepath.Join(t.TempDir(), "missing.yaml"), EnvPrefix: "-"})
	if err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoad_ChangedFlagsOnly(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("storage-driver", "memory", "")
	flags.String("view-mode", "full", "")
	flags.Bool("verbose", false, "")
	if err := flags.Parse([]string{"--storage-driver=sqlite", "--verbose"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, _, err := runtimeconfig.Load(runtimeconfig.LoadOptions{
		Dir:       t.TempDir(),
		EnvPrefix: "-",
		Flags:     flags,
		FlagKeys: map[string]string{
			"storage-driver": "storage.driver",
			"view-mode":      "builder.default_view_mode",
		},
	})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("expected flag to set storage driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Builder.DefaultViewMode != "full" {
		t.Fatalf("expected unset flag to keep default, got %q", cfg.Builder.DefaultViewMode)
	}
}
