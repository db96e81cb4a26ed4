package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// ThemeOptions select a theme and variant.
type ThemeOptions struct {
	Theme          string
	Variant        string
	CSSVarPrefix   string
	DefaultTheme   string
	DefaultVariant string
}

// Theme exposes a go-theme selection to the engine.
type Theme struct {
	selection *gotheme.Selection
	cssPrefix string
}

var _ ThemeResolver = (*Theme)(nil)

// SelectTheme registers manifests and selects the configured theme.
func SelectTheme(opts ThemeOptions, manifests ...*gotheme.Manifest) (*Theme, error) {
	registry := gotheme.NewRegistry()
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("render: register theme %s: %w", manifest.Name, err)
		}
	}
	selector := gotheme.Selector{
		Registry:       registry,
		DefaultTheme:   strings.TrimSpace(opts.DefaultTheme),
		DefaultVariant: strings.TrimSpace(opts.DefaultVariant),
	}
	selection, err := selector.Select(strings.TrimSpace(opts.Theme), strings.TrimSpace(opts.Variant))
	if err != nil {
		return nil, fmt.Errorf("render: select theme %s: %w", opts.Theme, err)
	}
	return &Theme{selection: selection, cssPrefix: opts.CSSVarPrefix}, nil
}

// LoadThemes reads one manifest per subdirectory of dir. Subdirectories
// without a manifest are skipped.
func LoadThemes(dir string) ([]*gotheme.Manifest, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("render: read theme dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	manifests := make([]*gotheme.Manifest, 0, len(names))
	for _, name := range names {
		manifest, err := gotheme.LoadDir(os.DirFS(filepath.Join(dir, name)), ".")
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("render: load theme %s: %w", name, err)
		}
		if manifest != nil {
			manifests = append(manifests, manifest)
		}
	}
	return manifests, nil
}

// NewTheme wraps an existing selection.
func NewTheme(selection *gotheme.Selection, cssPrefix string) *Theme {
	return &Theme{selection: selection, cssPrefix: cssPrefix}
}

// Name returns the selected theme and variant.
func (t *Theme) Name() (string, string) {
	if t == nil || t.selection == nil {
		return "", ""
	}
	return t.selection.Theme, t.selection.Variant
}

func (t *Theme) Template(name, fallback string) string {
	if t == nil || t.selection == nil {
		return fallback
	}
	return t.selection.Template(name, fallback)
}

func (t *Theme) Globals() map[string]any {
	if t == nil || t.selection == nil {
		return nil
	}
	return map[string]any{
		"theme": map[string]any{
			"name":     t.selection.Theme,
			"variant":  t.selection.Variant,
			"tokens":   t.selection.Tokens(),
			"css_vars": t.selection.CSSVariables(t.cssPrefix),
		},
	}
}
