package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-patternbuilder/internal/logging"
)

// ErrThemesFeatureRequired indicates inconsistent theme configuration.
var ErrThemesFeatureRequired = errors.New("patternbuilder config: themes feature must be enabled to configure a theme")

// ErrRepositoryCacheRequiresEnabledCache ensures the repository cache builds only when cache is enabled.
var ErrRepositoryCacheRequiresEnabledCache = errors.New("patternbuilder config: repository cache requires cache to be enabled")

// ErrValidationFeatureRequiresSchemas ensures output validation has schemas to validate against.
var ErrValidationFeatureRequiresSchemas = errors.New("patternbuilder config: validation feature requires at least one schema directory")
var ErrStorageDriverUnknown = errors.New("patternbuilder config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("patternbuilder config: storage dsn is required for sql drivers")
var ErrSchemaRefDepthInvalid = errors.New("patternbuilder config: schema ref depth must be zero or positive")
var ErrBuilderInvalid = errors.New("patternbuilder config: builder settings are invalid")
var ErrLoggingProviderRequired = errors.New("patternbuilder config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("patternbuilder config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("patternbuilder config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("patternbuilder config: logging format is invalid")

// Storage drivers understood by the container.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config aggregates feature flags and adapter bindings for the pattern builder.
type Config struct {
	Builder   BuilderConfig  `koanf:"builder"`
	Schemas   SchemaConfig   `koanf:"schemas"`
	Templates TemplateConfig `koanf:"templates"`
	Storage   StorageConfig  `koanf:"storage"`
	Cache     CacheConfig    `koanf:"cache"`
	Logging   LoggingConfig  `koanf:"logging"`
	URLs      URLConfig      `koanf:"urls"`
	Catalog   CatalogConfig  `koanf:"catalog"`
	Features  Features       `koanf:"features"`
}

// BuilderConfig mirrors builder.Options.
type BuilderConfig struct {
	SchemaEntityType     string   `koanf:"schema_entity_type"`
	ReferenceEntityTypes []string `koanf:"reference_entity_types"`
	SchemaPropertyNames  []string `koanf:"schema_property_names"`
	EntitySchemaName     string   `koanf:"entity_schema_name"`
	RawSchemaName        string   `koanf:"raw_schema_name"`
	DefaultViewMode      string   `koanf:"default_view_mode"`
	FieldViewMode        string   `koanf:"field_view_mode"`
}

// SchemaConfig controls pattern discovery and $ref resolution.
type SchemaConfig struct {
	Dirs        []string          `koanf:"dirs"`
	Glob        string            `koanf:"glob"`
	MaxRefDepth int               `koanf:"max_ref_depth"`
	Bundles     map[string]string `koanf:"bundles"`
	Statuses    map[string]string `koanf:"statuses"`
	CacheTTL    time.Duration     `koanf:"cache_ttl"`
}

// TemplateConfig controls the pongo2 engine and theme selection.
type TemplateConfig struct {
	Dir       string `koanf:"dir"`
	Extension string `koanf:"extension"`
	ThemeDir  string `koanf:"theme_dir"`
	Theme     string `koanf:"theme"`
	Variant   string `koanf:"variant"`
	CSSPrefix string `koanf:"css_prefix"`
}

// StorageConfig selects the item store backend.
type StorageConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
	// Migrate creates the item tables on start.
	Migrate bool `koanf:"migrate"`
}

// CacheConfig captures cache behaviour toggles.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	// Repository wraps the SQL store repositories with go-repository-cache.
	Repository bool `koanf:"repository"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `koanf:"provider"`
	Level     string   `koanf:"level"`
	Format    string   `koanf:"format"`
	AddSource bool     `koanf:"add_source"`
	Focus     []string `koanf:"focus"`
}

// URLConfig feeds the go-urlkit route manager used for links, files and images.
type URLConfig struct {
	BaseURL         string            `koanf:"base_url"`
	FilesBaseURL    string            `koanf:"files_base_url"`
	Group           string            `koanf:"group"`
	Routes          map[string]string `koanf:"routes"`
	ImageStyleRoute string            `koanf:"image_style_route"`
	StyleParam      string            `koanf:"style_param"`
}

// CatalogConfig points at the YAML catalog and item fixtures.
type CatalogConfig struct {
	File     string `koanf:"file"`
	Fixtures string `koanf:"fixtures"`
}

// Features toggles module functionality.
type Features struct {
	Logger      bool `koanf:"logger"`
	Themes      bool `koanf:"themes"`
	Validation  bool `koanf:"validation"`
	Projections bool `koanf:"projections"`
}

// DefaultConfig returns the stock configuration: memory storage, an enabled
// cache and the console logger.
func DefaultConfig() Config {
	return Config{
		Builder: BuilderConfig{
			SchemaEntityType:     "paragraphs_item",
			ReferenceEntityTypes: []string{"field_collection_item", "paragraphs_item"},
			SchemaPropertyNames:  []string{"name"},
			EntitySchemaName:     "pb_entity",
			RawSchemaName:        "pb_raw",
			DefaultViewMode:      "full",
			FieldViewMode:        "default",
		},
		Schemas: SchemaConfig{
			Glob:        "*.json",
			MaxRefDepth: 30,
			Bundles:     map[string]string{},
			Statuses:    map[string]string{},
		},
		Templates: TemplateConfig{
			Extension: ".html",
			CSSPrefix: "pb",
		},
		Storage: StorageConfig{
			Driver: StorageMemory,
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Hour,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		URLs: URLConfig{
			Group:      "frontend",
			Routes:     map[string]string{},
			StyleParam: "style",
		},
		Features: Features{},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if err := cfg.Builder.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrBuilderInvalid, err)
	}
	if cfg.Schemas.MaxRefDepth < 0 {
		return fmt.Errorf("%w: %d", ErrSchemaRefDepthInvalid, cfg.Schemas.MaxRefDepth)
	}
	if cfg.Features.Validation && len(cfg.Schemas.Dirs) == 0 {
		return ErrValidationFeatureRequiresSchemas
	}
	if !cfg.Features.Themes && strings.TrimSpace(cfg.Templates.Theme) != "" {
		return ErrThemesFeatureRequired
	}
	if cfg.Cache.Repository && !cfg.Cache.Enabled {
		return ErrRepositoryCacheRequiresEnabledCache
	}
	driver := NormalizeDriver(cfg.Storage.Driver)
	if !isSupportedDriver(driver) {
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, driver)
	}
	if driver != StorageMemory && strings.TrimSpace(cfg.Storage.DSN) == "" {
		return fmt.Errorf("%w: %s", ErrStorageDSNRequired, driver)
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func (b BuilderConfig) validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.SchemaEntityType, validation.Required),
		validation.Field(&b.EntitySchemaName, validation.Required),
		validation.Field(&b.RawSchemaName, validation.Required, validation.By(func(value any) error {
			if name, _ := value.(string); name == b.EntitySchemaName {
				return errors.New("must differ from entity_schema_name")
			}
			return nil
		})),
		validation.Field(&b.DefaultViewMode, validation.Required),
		validation.Field(&b.FieldViewMode, validation.Required),
		validation.Field(&b.SchemaPropertyNames, validation.Each(validation.Required)),
		validation.Field(&b.ReferenceEntityTypes, validation.Each(validation.Required)),
	)
}

// NormalizeDriver folds driver aliases onto the supported names.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", StorageMemory:
		return StorageMemory
	case StorageSQLite, "sqlite3":
		return StorageSQLite
	case StoragePostgres, "postgresql", "pg":
		return StoragePostgres
	default:
		return strings.ToLower(strings.TrimSpace(driver))
	}
}

func isSupportedDriver(driver string) bool {
	switch driver {
	case StorageMemory, StorageSQLite, StoragePostgres:
		return true
	default:
		return false
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	_, err := logging.ParseLevel(level)
	return err == nil
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
