package openapi

// Version is the OpenAPI version stamped on pattern documents.
const Version = "3.1.0"

// PatternExtensionKey holds pattern metadata on a projected document.
const PatternExtensionKey = "x-patternbuilder"

// PatternDocument is an OpenAPI document exposing pattern schemas as
// components. It never carries paths.
type PatternDocument struct {
	Title   string
	Version string
	Schemas map[string]map[string]any
	Pattern PatternMeta
}

// PatternMeta describes the registry entry a document was projected from.
type PatternMeta struct {
	Name   string
	Status string
	Type   string
}

// NewPatternDocument returns an empty document for a pattern.
func NewPatternDocument(title, version string, meta PatternMeta) *PatternDocument {
	return &PatternDocument{
		Title:   title,
		Version: version,
		Schemas: map[string]map[string]any{},
		Pattern: meta,
	}
}

// WithSchema adds a component schema. Empty names and nil schemas are ignored.
func (d *PatternDocument) WithSchema(component string, schema map[string]any) *PatternDocument {
	if d == nil || component == "" || schema == nil {
		return d
	}
	if d.Schemas == nil {
		d.Schemas = map[string]map[string]any{}
	}
	d.Schemas[component] = schema
	return d
}

// Map renders the document in the shape schema registries consume.
func (d *PatternDocument) Map() map[string]any {
	if d == nil {
		return nil
	}
	schemas := make(map[string]any, len(d.Schemas))
	for name, schema := range d.Schemas {
		schemas[name] = schema
	}
	out := map[string]any{
		"openapi": Version,
		"info":    map[string]any{"title": d.Title, "version": d.Version},
		"paths":   map[string]any{},
	}
	if len(schemas) > 0 {
		out["components"] = map[string]any{"schemas": schemas}
	}
	if d.Pattern.Name != "" {
		out[PatternExtensionKey] = map[string]any{
			"pattern": d.Pattern.Name,
			"status":  d.Pattern.Status,
			"type":    d.Pattern.Type,
		}
	}
	return out
}
