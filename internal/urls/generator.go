package urls

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

const (
	// RoutePrefix marks link values that name a urlkit route ("route:page").
	RoutePrefix = "route:"

	optionParams   = "params"
	optionQuery    = "query"
	optionFragment = "fragment"
)

// Options configures the generator.
type Options struct {
	Manager *urlkit.RouteManager
	// Group is the dotted urlkit group path used for named routes.
	Group string
	// BaseURL prefixes relative link paths.
	BaseURL string
	// FilesBaseURL replaces the public:// scheme of stored file URIs.
	FilesBaseURL string
	// ImageStyleRoute is the route building the style prefix of image URLs.
	ImageStyleRoute string
	StyleParam      string
}

// Generator builds link, file and image URLs.
type Generator struct {
	opts Options

	mu    sync.RWMutex
	group *urlkit.Group
}

var _ interfaces.URLGenerator = (*Generator)(nil)

// New creates a generator.
func New(opts Options) *Generator {
	opts.Group = strings.TrimSpace(opts.Group)
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	opts.FilesBaseURL = strings.TrimRight(strings.TrimSpace(opts.FilesBaseURL), "/")
	if opts.StyleParam == "" {
		opts.StyleParam = "style"
	}
	return &Generator{opts: opts}
}

// URL builds a link. Paths prefixed with "route:" are built through urlkit
// using the "params" and "query" options; "fragment" is appended to any URL.
func (g *Generator) URL(path string, options map[string]any) (string, error) {
	path = strings.TrimSpace(path)
	var (
		out string
		err error
	)
	switch {
	case strings.HasPrefix(path, RoutePrefix):
		out, err = g.route(strings.TrimPrefix(path, RoutePrefix), options)
		if err != nil {
			return "", err
		}
		return withFragment(out, options), nil
	case hasScheme(path):
		out = path
	default:
		out = g.opts.BaseURL + "/" + strings.TrimPrefix(path, "/")
	}
	out, err = withQuery(out, queryValues(options[optionQuery]))
	if err != nil {
		return "", err
	}
	return withFragment(out, options), nil
}

// FileURL maps a stored file URI to a public URL.
func (g *Generator) FileURL(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", fmt.Errorf("urls: file uri required")
	}
	rest, ok := strings.CutPrefix(uri, "public://")
	if !ok {
		return uri, nil
	}
	return g.opts.FilesBaseURL + "/" + rest, nil
}

// ImageStyleURL builds the URL of an image derivative.
func (g *Generator) ImageStyleURL(style, uri string) (string, error) {
	style = strings.TrimSpace(style)
	if style == "" || g.opts.ImageStyleRoute == "" {
		return g.FileURL(uri)
	}
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "public://")
	if !ok {
		return g.FileURL(uri)
	}
	prefix, err := g.route(g.opts.ImageStyleRoute, map[string]any{
		optionParams: map[string]any{g.opts.StyleParam: style},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(prefix, "/") + "/" + rest, nil
}

func (g *Generator) route(name string, options map[string]any) (string, error) {
	group, err := g.resolveGroup()
	if err != nil {
		return "", err
	}
	builder, err := safeBuilder(group, strings.TrimSpace(name))
	if err != nil {
		return "", err
	}
	for key, value := range paramValues(options[optionParams]) {
		builder.WithParam(key, value)
	}
	query := queryValues(options[optionQuery])
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range query[key] {
			builder.WithQuery(key, value)
		}
	}
	return builder.Build()
}

func (g *Generator) resolveGroup() (*urlkit.Group, error) {
	g.mu.RLock()
	group := g.group
	g.mu.RUnlock()
	if group != nil {
		return group, nil
	}
	if g.opts.Manager == nil || g.opts.Group == "" {
		return nil, fmt.Errorf("urls: route manager not configured")
	}

	parts := strings.Split(g.opts.Group, ".")
	current, err := lookupGroup(g.opts.Manager, parts[0])
	if err != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		if current, err = lookupChildGroup(current, part); err != nil {
			return nil, err
		}
	}

	g.mu.Lock()
	g.group = current
	g.mu.Unlock()
	return current, nil
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			builder, err = nil, fmt.Errorf("urls: route %q not found", route)
		}
	}()
	return group.Builder(route), nil
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			group, err = nil, fmt.Errorf("urls: route group %q not found", name)
		}
	}()
	return manager.Group(name), nil
}

func lookupChildGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			group, err = nil, fmt.Errorf("urls: child group %q not found", name)
		}
	}()
	return parent.Group(name), nil
}

func hasScheme(path string) bool {
	parsed, err := url.Parse(path)
	return err == nil && parsed.Scheme != ""
}

func withQuery(raw string, values url.Values) (string, error) {
	if len(values) == 0 {
		return raw, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("urls: parse %q: %w", raw, err)
	}
	query := parsed.Query()
	for key, list := range values {
		for _, value := range list {
			query.Add(key, value)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func withFragment(raw string, options map[string]any) string {
	fragment, ok := options[optionFragment]
	if !ok || fragment == nil {
		return raw
	}
	value := strings.TrimPrefix(strings.TrimSpace(fmt.Sprint(fragment)), "#")
	if value == "" {
		return raw
	}
	return raw + "#" + value
}

func paramValues(raw any) map[string]any {
	out := map[string]any{}
	switch values := raw.(type) {
	case map[string]any:
		for key, value := range values {
			out[key] = value
		}
	case map[string]string:
		for key, value := range values {
			out[key] = value
		}
	}
	return out
}

func queryValues(raw any) url.Values {
	out := url.Values{}
	switch values := raw.(type) {
	case map[string]string:
		for key, value := range values {
			out.Add(key, value)
		}
	case map[string][]string:
		for key, list := range values {
			for _, value := range list {
				out.Add(key, value)
			}
		}
	case map[string]any:
		for key, value := range values {
			switch typed := value.(type) {
			case []string:
				for _, item := range typed {
					out.Add(key, item)
				}
			case []any:
				for _, item := range typed {
					out.Add(key, fmt.Sprint(item))
				}
			default:
				out.Add(key, fmt.Sprint(typed))
			}
		}
	}
	return out
}
