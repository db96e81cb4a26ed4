package display

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

type stubCatalog struct {
	fields map[string]entity.FieldInfo
}

func (c stubCatalog) FieldInfo(name string) (entity.FieldInfo, bool) {
	info, ok := c.fields[name]
	return info, ok
}

func (stubCatalog) FieldInstances(string, string) []entity.FieldInstance {
	return nil
}

func (stubCatalog) FieldInstance(string, string, string) (entity.FieldInstance, bool) {
	return entity.FieldInstance{}, false
}

type stubViewer struct {
	prepared []string
	denied   map[int]bool
}

func (v *stubViewer) PrepareView(_ context.Context, _ string, _ *entity.Item, field entity.FieldInstance, display entity.Display) error {
	v.prepared = append(v.prepared, PreparedKey(field.FieldName, display))
	return nil
}

func (v *stubViewer) ViewField(_ context.Context, _ string, item *entity.Item, field entity.FieldInstance, display entity.Display) (interfaces.FieldRender, error) {
	out := interfaces.FieldRender{}
	for delta, fi := range item.Items(field.FieldName) {
		value, _ := fi.String("value")
		markup := ""
		if value != "" {
			markup = fmt.Sprintf("<p class=%q>%s</p>", display.Type, value)
		}
		out.Deltas = append(out.Deltas, interfaces.DeltaRender{Delta: delta, Markup: markup, Denied: v.denied[delta]})
	}
	return out, nil
}

func (v *stubViewer) ViewEntity(_ context.Context, entityType string, item *entity.Item, viewMode string) (string, error) {
	return fmt.Sprintf("<article>%s:%s:%s</article>", entityType, item.ID, viewMode), nil
}

type stubURLs struct{}

func (stubURLs) URL(path string, options map[string]any) (string, error) {
	if len(options) == 0 {
		return "https://example.com/" + strings.TrimPrefix(path, "/"), nil
	}
	return fmt.Sprintf("https://example.com/%s#%v", strings.TrimPrefix(path, "/"), options["fragment"]), nil
}

func (stubURLs) FileURL(uri string) (string, error) {
	return "https://cdn.example.com/files/" + strings.TrimPrefix(uri, "public://"), nil
}

func (stubURLs) ImageStyleURL(style, uri string) (string, error) {
	return "https://cdn.example.com/styles/" + style + "/" + strings.TrimPrefix(uri, "public://"), nil
}

func testDeps(viewer *stubViewer) Deps {
	return Deps{
		Catalog: stubCatalog{fields: map[string]entity.FieldInfo{
			"field_title":   {Name: "field_title", Type: "text", Module: "text", DefaultFormatter: "text_default"},
			"field_link":    {Name: "field_link", Type: "link_field", Module: "link", DefaultFormatter: "link_default"},
			"field_image":   {Name: "field_image", Type: "image", Module: "image", DefaultFormatter: "image"},
			"field_file":    {Name: "field_file", Type: "file", Module: "file", DefaultFormatter: "file_default"},
			"field_untyped": {Name: "field_untyped"},
			"field_toggle": {Name: "field_toggle", Type: FieldTypeBoolean, Module: "list", DefaultFormatter: "list_default", AllowedValues: []entity.AllowedValue{
				{Key: "5", Label: "On"},
				{Key: "0", Label: "Off"},
			}},
			"field_choice": {Name: "field_choice", Type: FieldTypeBoolean, Module: "list", AllowedValues: []entity.AllowedValue{
				{Key: "a"}, {Key: "b"}, {Key: "c"},
			}},
		}},
		Viewer: viewer,
		URLs:   stubURLs{},
	}
}

func instance(field, property string) entity.FieldInstance {
	return entity.FieldInstance{
		FieldName:  field,
		EntityType: "paragraphs_item",
		Bundle:     "hero",
		Displays: map[string]entity.Display{
			"default": {Type: "text_default"},
		},
		Pattern: entity.PatternSettings{PropertyName: property},
	}
}
