package di

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-patternbuilder/internal/adapters/noop"
	"github.com/goliatone/go-patternbuilder/internal/adapters/storage"
	"github.com/goliatone/go-patternbuilder/internal/builder"
	"github.com/goliatone/go-patternbuilder/internal/cache"
	patternscmd "github.com/goliatone/go-patternbuilder/internal/commands/patterns"
	"github.com/goliatone/go-patternbuilder/internal/content"
	"github.com/goliatone/go-patternbuilder/internal/display"
	"github.com/goliatone/go-patternbuilder/internal/fieldview"
	"github.com/goliatone/go-patternbuilder/internal/logging"
	"github.com/goliatone/go-patternbuilder/internal/logging/console"
	"github.com/goliatone/go-patternbuilder/internal/logging/gologger"
	"github.com/goliatone/go-patternbuilder/internal/render"
	"github.com/goliatone/go-patternbuilder/internal/runtimeconfig"
	"github.com/goliatone/go-patternbuilder/internal/schema"
	"github.com/goliatone/go-patternbuilder/internal/urls"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"
)

// DefaultProjectionPrefix prefixes pattern resources published to go-crud.
const DefaultProjectionPrefix = "pattern_"

// ItemStore is the store surface the container needs: lookups for builders,
// type registration for catalogs and saves for fixtures.
type ItemStore interface {
	interfaces.EntityStore
	content.TypeRegistrar
	content.ItemSaver
}

// Container wires the pattern builder dependencies from a Config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	cache         interfaces.CacheProvider
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	bunDB  *bun.DB
	ownsDB bool
	store  ItemStore

	catalog   *content.Catalog
	access    interfaces.AccessChecker
	registry  *schema.Registry
	loader    *schema.Loader
	documents schema.DocumentRegistry

	routeManager *urlkit.RouteManager
	urls         *urls.Generator
	viewer       *fieldview.Viewer
	displays     *display.Registry

	templateFS fs.FS
	theme      *render.Theme
	engine     *render.Engine

	activity interfaces.ActivitySink
	service  *builder.Service

	clearSchemaCache *patternscmd.ClearSchemaCacheHandler
	renderPattern    *patternscmd.RenderPatternHandler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithCache overrides the schema cache backend.
func WithCache(provider interfaces.CacheProvider) Option {
	return func(c *Container) {
		c.cache = provider
	}
}

// WithRepositoryCache supplies the go-repository-cache service used by SQL stores.
func WithRepositoryCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithBunDB supplies an open database. The container does not close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithStore supplies the item store, bypassing the storage config.
func WithStore(store ItemStore) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithCatalog supplies a pre-populated field catalog.
func WithCatalog(catalog *content.Catalog) Option {
	return func(c *Container) {
		c.catalog = catalog
	}
}

// WithAccess supplies the access checker. Every item is visible by default.
func WithAccess(access interfaces.AccessChecker) Option {
	return func(c *Container) {
		c.access = access
	}
}

// WithSchemaRegistry supplies a pattern registry.
func WithSchemaRegistry(registry *schema.Registry) Option {
	return func(c *Container) {
		c.registry = registry
	}
}

// WithDocumentRegistry overrides where pattern projections are published.
func WithDocumentRegistry(documents schema.DocumentRegistry) Option {
	return func(c *Container) {
		c.documents = documents
	}
}

// WithRouteManager supplies the urlkit manager used for links and images.
func WithRouteManager(manager *urlkit.RouteManager) Option {
	return func(c *Container) {
		c.routeManager = manager
	}
}

// WithTemplateFS adds a template filesystem consulted after the template dir.
func WithTemplateFS(files fs.FS) Option {
	return func(c *Container) {
		c.templateFS = files
	}
}

// WithActivitySink records command activity.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return func(c *Container) {
		c.activity = sink
	}
}

// NewContainer validates cfg and wires every collaborator.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cfg.Cache.DefaultTTL,
	}
	if c.cacheTTL <= 0 {
		c.cacheTTL = time.Hour
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	ctx := context.Background()
	steps := []func(context.Context) error{
		c.configureLogging,
		c.configureCache,
		c.configureStorage,
		c.configureSchemas,
		c.configureCatalog,
		c.configureURLs,
		c.configureViews,
		c.configureTemplates,
		c.configureFixtures,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	c.configureService()
	c.configureCommands()

	c.logger.Info("patternbuilder.container.ready",
		"storage", runtimeconfig.NormalizeDriver(cfg.Storage.Driver),
		"patterns", len(c.registry.Patterns()),
		"cache", cfg.Cache.Enabled,
	)
	return c, nil
}

func (c *Container) configureLogging(context.Context) error {
	if c.loggerProvider == nil && c.Config.Features.Logger {
		provider, err := newLoggerProvider(c.Config.Logging)
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "patternbuilder")
	return nil
}

func newLoggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return console.NewProvider(console.Options{Level: cfg.Level})
	}
}

func (c *Container) configureCache(context.Context) error {
	if c.cache == nil {
		if c.Config.Cache.Enabled {
			c.cache = cache.NewMemory(cache.WithDefaultTTL(c.cacheTTL))
		} else {
			c.cache = noop.Cache()
		}
	}

	if !c.Config.Cache.Enabled || !c.Config.Cache.Repository {
		return nil
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		cfg.TTL = c.cacheTTL
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("di: repository cache: %w", err)
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	if c.store != nil {
		return nil
	}
	driver := runtimeconfig.NormalizeDriver(c.Config.Storage.Driver)
	if c.bunDB == nil && driver == runtimeconfig.StorageMemory {
		c.store = content.NewMemoryStore()
		return nil
	}
	if c.bunDB == nil {
		db, err := storage.Open(driver, c.Config.Storage.DSN)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}

	store := content.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer,
		content.WithStoreLogger(logging.StoreLogger(c.loggerProvider)),
	)
	if c.Config.Storage.Migrate {
		if err := store.CreateSchema(ctx); err != nil {
			return err
		}
	}
	c.store = store
	return nil
}

func (c *Container) configureSchemas(ctx context.Context) error {
	if c.registry == nil {
		c.registry = schema.NewRegistry()
	}
	cfg := c.Config.Schemas
	for _, dir := range cfg.Dirs {
		count, err := c.registry.Discover(ctx, dir, cfg.Glob)
		if err != nil {
			return err
		}
		c.logger.Debug("patternbuilder.schemas.discovered", "dir", dir, "count", count)
	}
	for bundle, pattern := range cfg.Bundles {
		c.registry.BindBundle(bundle, pattern)
	}
	for name, status := range cfg.Statuses {
		if err := c.registry.SetStatus(name, status); err != nil {
			return err
		}
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = c.cacheTTL
	}
	schemaLogger := logging.SchemaLogger(c.loggerProvider)
	resolver := schema.NewResolver(c.registry,
		schema.WithResolverCache(c.cache, ttl),
		schema.WithMaxRefDepth(cfg.MaxRefDepth),
		schema.WithResolverLogger(schemaLogger),
	)
	loaderOpts := []schema.LoaderOption{
		schema.WithCache(c.cache, ttl),
		schema.WithLogger(schemaLogger),
		schema.WithResolver(resolver),
	}
	if c.documents == nil && c.Config.Features.Projections {
		c.documents = schema.CRUDRegistry{Prefix: DefaultProjectionPrefix}
	}
	if c.documents != nil {
		loaderOpts = append(loaderOpts, schema.WithDocumentRegistry(c.documents))
	}
	c.loader = schema.NewLoader(c.registry, loaderOpts...)
	return nil
}

func (c *Container) configureCatalog(context.Context) error {
	if c.catalog == nil {
		c.catalog = content.NewCatalog()
	}
	if c.access == nil {
		c.access = content.NewRuleAccess()
	}
	path := strings.TrimSpace(c.Config.Catalog.File)
	if path == "" {
		return nil
	}
	doc, err := content.LoadCatalogFile(path)
	if err != nil {
		return err
	}
	if err := doc.Apply(c.catalog, c.store); err != nil {
		return err
	}
	doc.ApplyPatterns(c.registry)
	return nil
}

func (c *Container) configureURLs(context.Context) error {
	cfg := c.Config.URLs
	if c.routeManager == nil && len(cfg.Routes) > 0 {
		c.routeManager = urlkit.NewRouteManager(&urlkit.Config{
			Groups: []urlkit.GroupConfig{
				{
					Name:    cfg.Group,
					BaseURL: cfg.BaseURL,
					Paths:   cfg.Routes,
				},
			},
		})
	}
	c.urls = urls.New(urls.Options{
		Manager:         c.routeManager,
		Group:           cfg.Group,
		BaseURL:         cfg.BaseURL,
		FilesBaseURL:    cfg.FilesBaseURL,
		ImageStyleRoute: cfg.ImageStyleRoute,
		StyleParam:      cfg.StyleParam,
	})
	return nil
}

func (c *Container) configureViews(context.Context) error {
	displayLogger := logging.DisplayLogger(c.loggerProvider)
	c.viewer = fieldview.New(c.catalog,
		fieldview.WithAccess(c.access),
		fieldview.WithStore(c.store),
		fieldview.WithURLs(c.urls),
		fieldview.WithLogger(displayLogger),
	)
	c.displays = display.NewRegistry(display.Deps{
		Catalog: c.catalog,
		Viewer:  c.viewer,
		URLs:    c.urls,
		Logger:  displayLogger,
	})
	return nil
}

func (c *Container) configureTemplates(context.Context) error {
	cfg := c.Config.Templates
	if c.Config.Features.Themes && strings.TrimSpace(cfg.Theme) != "" {
		manifests, err := render.LoadThemes(cfg.ThemeDir)
		if err != nil {
			return err
		}
		theme, err := render.SelectTheme(render.ThemeOptions{
			Theme:          cfg.Theme,
			Variant:        cfg.Variant,
			CSSVarPrefix:   cfg.CSSPrefix,
			DefaultTheme:   cfg.Theme,
			DefaultVariant: cfg.Variant,
		}, manifests...)
		if err != nil {
			return err
		}
		c.theme = theme
	}

	opts := []render.Option{
		render.WithExtension(cfg.Extension),
		render.WithLogger(logging.ModuleLogger(c.loggerProvider, "patternbuilder.render")),
	}
	if dir := strings.TrimSpace(cfg.Dir); dir != "" {
		opts = append(opts, render.WithBaseDir(dir))
	}
	if c.templateFS != nil {
		opts = append(opts, render.WithFS(c.templateFS))
	}
	if c.theme != nil {
		opts = append(opts, render.WithTheme(c.theme))
	}
	engine, err := render.New(opts...)
	if err != nil {
		return err
	}
	c.engine = engine
	return nil
}

func (c *Container) configureFixtures(ctx context.Context) error {
	dir := strings.TrimSpace(c.Config.Catalog.Fixtures)
	if dir == "" {
		return nil
	}
	count, err := content.LoadFixtures(ctx, os.DirFS(dir), ".", c.store)
	if err != nil {
		return err
	}
	c.logger.Debug("patternbuilder.fixtures.loaded", "dir", dir, "count", count)
	return nil
}

func (c *Container) configureService() {
	cfg := c.Config.Builder
	deps := builder.Dependencies{
		Store:    c.store,
		Catalog:  c.catalog,
		Access:   c.access,
		Viewer:   c.viewer,
		Patterns: c.registry,
		Schemas:  c.loader,
		Displays: c.displays,
		Logger:   logging.BuilderLogger(c.loggerProvider),
		Options: builder.Options{
			SchemaEntityType:     cfg.SchemaEntityType,
			ReferenceEntityTypes: cfg.ReferenceEntityTypes,
			SchemaPropertyNames:  cfg.SchemaPropertyNames,
			EntitySchemaName:     cfg.EntitySchemaName,
			RawSchemaName:        cfg.RawSchemaName,
			DefaultViewMode:      cfg.DefaultViewMode,
			FieldViewMode:        cfg.FieldViewMode,
		},
	}
	serviceOpts := []builder.ServiceOption{builder.WithTreeRenderer(c.engine)}
	if c.Config.Features.Validation {
		serviceOpts = append(serviceOpts, builder.WithValidator(c.loader))
	}
	c.service = builder.NewService(deps, serviceOpts...)
}

func (c *Container) configureCommands() {
	options := patternscmd.Options{
		Activity: c.activity,
	}
	options.Logger = logging.ModuleLogger(c.loggerProvider, "patternbuilder.commands.schemas")
	c.clearSchemaCache = patternscmd.NewClearSchemaCacheHandler(c.loader, options)
	options.Logger = logging.ModuleLogger(c.loggerProvider, "patternbuilder.commands.render")
	c.renderPattern = patternscmd.NewRenderPatternHandler(c.service, options)
}

// Close releases the database when the container opened it.
func (c *Container) Close() error {
	if c.ownsDB && c.bunDB != nil {
		err := c.bunDB.Close()
		c.bunDB = nil
		return err
	}
	return nil
}

// InvalidateStoreCache drops cached item lookups of SQL stores.
func (c *Container) InvalidateStoreCache(ctx context.Context) error {
	invalidator, ok := c.store.(interface {
		InvalidateCache(ctx context.Context) error
	})
	if !ok {
		return nil
	}
	return invalidator.InvalidateCache(ctx)
}

// Logger returns the root module logger.
func (c *Container) Logger() interfaces.Logger {
	return c.logger
}

// LoggerProvider returns the configured provider, nil when logging is off.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Cache returns the schema cache backend.
func (c *Container) Cache() interfaces.CacheProvider {
	return c.cache
}

// Store returns the item store.
func (c *Container) Store() ItemStore {
	return c.store
}

// Catalog returns the field catalog.
func (c *Container) Catalog() *content.Catalog {
	return c.catalog
}

// Access returns the access checker.
func (c *Container) Access() interfaces.AccessChecker {
	return c.access
}

// SchemaRegistry returns the pattern registry.
func (c *Container) SchemaRegistry() *schema.Registry {
	return c.registry
}

// SchemaLoader returns the schema loader.
func (c *Container) SchemaLoader() *schema.Loader {
	return c.loader
}

// URLGenerator returns the link and file URL generator.
func (c *Container) URLGenerator() interfaces.URLGenerator {
	return c.urls
}

// FieldViewer returns the field formatter registry.
func (c *Container) FieldViewer() *fieldview.Viewer {
	return c.viewer
}

// Displays returns the display handler registry.
func (c *Container) Displays() *display.Registry {
	return c.displays
}

// TemplateRenderer returns the pongo2 engine.
func (c *Container) TemplateRenderer() *render.Engine {
	return c.engine
}

// Theme returns the selected theme, nil when themes are off.
func (c *Container) Theme() *render.Theme {
	return c.theme
}

// Service returns the render service.
func (c *Container) Service() *builder.Service {
	return c.service
}

// BuilderDependencies returns the collaborators for standalone builders.
func (c *Container) BuilderDependencies() builder.Dependencies {
	return c.service.Dependencies()
}

// ClearSchemaCacheHandler returns the schema cache command handler.
func (c *Container) ClearSchemaCacheHandler() *patternscmd.ClearSchemaCacheHandler {
	return c.clearSchemaCache
}

// RenderPatternHandler returns the render command handler.
func (c *Container) RenderPatternHandler() *patternscmd.RenderPatternHandler {
	return c.renderPattern
}
