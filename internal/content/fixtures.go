package content

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-patternbuilder/entity"
)

// DefaultBodyField receives the markdown body of a fixture document.
const DefaultBodyField = "field_body"

// ItemSaver persists fixture items.
type ItemSaver interface {
	Save(ctx context.Context, item *entity.Item) error
}

// ParseItems decodes a YAML list of items.
func ParseItems(data []byte) ([]*entity.Item, error) {
	var items []*entity.Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("content: parse items: %w", err)
	}
	return items, nil
}

// LoadItemsFile reads a YAML list of items.
func LoadItemsFile(path string) ([]*entity.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read items %s: %w", path, err)
	}
	return ParseItems(data)
}

type fixtureEnvelope struct {
	Type       string                        `yaml:"type"`
	ID         string                        `yaml:"id"`
	RevisionID string                        `yaml:"revision_id"`
	Bundle     string                        `yaml:"bundle"`
	Label      string                        `yaml:"label"`
	BodyField  string                        `yaml:"body_field"`
	Format     string                        `yaml:"format"`
	Fields     map[string][]entity.FieldItem `yaml:"fields"`
}

// ParseMarkdownItem builds an item from a markdown document. The front
// matter carries the item keys and fields, the body becomes the value of
// body_field (default field_body).
func ParseMarkdownItem(source []byte) (*entity.Item, error) {
	var meta fixtureEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, fmt.Errorf("content: parse frontmatter: %w", err)
	}
	item := &entity.Item{
		Type:       meta.Type,
		ID:         meta.ID,
		RevisionID: meta.RevisionID,
		Bundle:     meta.Bundle,
		Label:      meta.Label,
		Fields:     meta.Fields,
	}
	if item.Fields == nil {
		item.Fields = map[string][]entity.FieldItem{}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		field := strings.TrimSpace(meta.BodyField)
		if field == "" {
			field = DefaultBodyField
		}
		format := meta.Format
		if format == "" {
			format = "markdown"
		}
		item.Fields[field] = append(item.Fields[field], entity.FieldItem{"value": text, "format": format})
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// LoadFixtures reads every *.yaml, *.yml and *.md file below root and saves
// the items in path order. It returns the number of items saved.
func LoadFixtures(ctx context.Context, fsys fs.FS, root string, saver ItemSaver) (int, error) {
	if root == "" {
		root = "."
	}
	var paths []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".yaml", ".yml", ".md":
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("content: walk fixtures: %w", err)
	}
	sort.Strings(paths)

	saved := 0
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return saved, fmt.Errorf("content: read fixture %s: %w", p, err)
		}
		var items []*entity.Item
		if strings.EqualFold(path.Ext(p), ".md") {
			item, err := ParseMarkdownItem(data)
			if err != nil {
				return saved, fmt.Errorf("content: fixture %s: %w", p, err)
			}
			items = []*entity.Item{item}
		} else if items, err = ParseItems(data); err != nil {
			return saved, fmt.Errorf("content: fixture %s: %w", p, err)
		}
		for _, item := range items {
			if err := saver.Save(ctx, item); err != nil {
				return saved, fmt.Errorf("content: save %s/%s: %w", item.Type, item.ID, err)
			}
			saved++
		}
	}
	return saved, nil
}
