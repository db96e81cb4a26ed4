package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-patternbuilder/internal/logging"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

// DefaultExtension is appended to template names without one.
const DefaultExtension = ".html"

// Option configures the engine.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
	extension string
	globals   map[string]any
	theme     ThemeResolver
	logger    interfaces.Logger
}

// WithBaseDir loads templates from a directory.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from files.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the template extension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithGlobals seeds values visible to every template.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if cfg.globals == nil {
			cfg.globals = map[string]any{}
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// WithTheme maps pattern names to theme templates.
func WithTheme(theme ThemeResolver) Option {
	return func(cfg *config) {
		cfg.theme = theme
	}
}

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// ThemeResolver picks the template used for a pattern.
type ThemeResolver interface {
	Template(name, fallback string) string
	Globals() map[string]any
}

// Engine renders component trees with pongo2. Output is not autoescaped;
// field values are sanitized before they reach the tree.
type Engine struct {
	mu          sync.RWMutex
	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	ext         string
	theme       ThemeResolver
	logger      interfaces.Logger
}

var _ interfaces.TemplateRenderer = (*Engine)(nil)

var autoescapeOnce sync.Once

// New creates an engine. Templates from the configured directory and FS take
// precedence over the embedded pb_raw and pb_entity defaults.
func New(opts ...Option) (*Engine, error) {
	cfg := &config{extension: DefaultExtension}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = logging.NoOp()
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("render: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	embedded, err := fs.Sub(defaultTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("render: embedded templates: %w", err)
	}
	loaders = append(loaders, pongo2.NewFSLoader(embedded))

	autoescapeOnce.Do(func() { pongo2.SetAutoescape(false) })

	engine := &Engine{
		templateSet: pongo2.NewSet("patternbuilder", loaders...),
		templates:   map[string]*pongo2.Template{},
		ext:         cfg.extension,
		theme:       cfg.theme,
		logger:      cfg.logger,
	}
	if cfg.theme != nil {
		if err := engine.GlobalContext(cfg.theme.Globals()); err != nil {
			return nil, err
		}
	}
	if err := engine.GlobalContext(cfg.globals); err != nil {
		return nil, err
	}
	return engine, nil
}

// Render renders a named template, or inline template content.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if strings.Contains(name, "{{") || strings.Contains(name, "{%") {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate renders the template registered for name.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.template(e.templatePath(name))
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, name, data, out)
}

// RenderString renders inline template content.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.templateSet.FromString(templateContent)
	if err != nil {
		return "", fmt.Errorf("render: parse template string: %w", err)
	}
	return e.execute(tmpl, "inline", data, out)
}

// RegisterFilter adds a global pongo2 filter.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("render: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("render: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramValue any
		if param != nil {
			paramValue = param.Interface()
		}
		result, err := fn(in.Interface(), paramValue)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

// GlobalContext merges data into the values visible to every template.
func (e *Engine) GlobalContext(data any) error {
	if data == nil {
		return nil
	}
	values, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("render: global context must be a map, got %T", data)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.templateSet.Globals == nil {
		e.templateSet.Globals = pongo2.Context{}
	}
	e.templateSet.Globals.Update(pongo2.Context(values))
	return nil
}

// RenderTree renders a rendered component tree bottom-up. Every map carrying
// a name is replaced by the output of the template of that name.
func (e *Engine) RenderTree(ctx context.Context, tree map[string]any) (string, error) {
	out, err := e.renderNode(ctx, tree)
	if err != nil {
		return "", err
	}
	markup, _ := out.(string)
	return markup, nil
}

func (e *Engine) renderNode(ctx context.Context, node any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch typed := node.(type) {
	case map[string]any:
		data := make(map[string]any, len(typed))
		for _, key := range sortedKeys(typed) {
			value, err := e.renderNode(ctx, typed[key])
			if err != nil {
				return nil, err
			}
			data[key] = value
		}
		name, ok := typed["name"].(string)
		if !ok || strings.TrimSpace(name) == "" {
			return data, nil
		}
		return e.RenderTemplate(name, data)
	case []any:
		out := make([]any, 0, len(typed))
		for _, value := range typed {
			rendered, err := e.renderNode(ctx, value)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered)
		}
		return out, nil
	default:
		return node, nil
	}
}

func (e *Engine) templatePath(name string) string {
	path := strings.TrimSpace(name)
	if !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}
	if e.theme != nil {
		path = e.theme.Template(strings.TrimSuffix(path, e.ext), path)
	}
	return path
}

func (e *Engine) template(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: load template %q: %w", path, err)
	}
	e.templates[path] = tmpl
	return tmpl, nil
}

func (e *Engine) execute(tmpl *pongo2.Template, name string, data any, out []io.Writer) (string, error) {
	viewContext := pongo2.Context{}
	switch typed := data.(type) {
	case nil:
	case map[string]any:
		viewContext = pongo2.Context(typed)
	case pongo2.Context:
		viewContext = typed
	default:
		viewContext["data"] = typed
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err := tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("render: execute %q: %w", name, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
