package patternbuilder

import "github.com/goliatone/go-patternbuilder/internal/runtimeconfig"

var (
	ErrThemesFeatureRequired               = runtimeconfig.ErrThemesFeatureRequired
	ErrRepositoryCacheRequiresEnabledCache = runtimeconfig.ErrRepositoryCacheRequiresEnabledCache
	ErrValidationFeatureRequiresSchemas    = runtimeconfig.ErrValidationFeatureRequiresSchemas
	ErrStorageDriverUnknown                = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired                  = runtimeconfig.ErrStorageDSNRequired
	ErrSchemaRefDepthInvalid               = runtimeconfig.ErrSchemaRefDepthInvalid
	ErrBuilderInvalid                      = runtimeconfig.ErrBuilderInvalid
	ErrLoggingProviderRequired             = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown              = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid                 = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid                = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	BuilderConfig  = runtimeconfig.BuilderConfig
	SchemaConfig   = runtimeconfig.SchemaConfig
	TemplateConfig = runtimeconfig.TemplateConfig
	StorageConfig  = runtimeconfig.StorageConfig
	CacheConfig    = runtimeconfig.CacheConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	URLConfig      = runtimeconfig.URLConfig
	CatalogConfig  = runtimeconfig.CatalogConfig
	Features       = runtimeconfig.Features
	LoadOptions    = runtimeconfig.LoadOptions
)

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads the config file, environment and overrides on top of the defaults.
func LoadConfig(opts LoadOptions) (Config, string, error) {
	return runtimeconfig.Load(opts)
}
