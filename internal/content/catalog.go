package content

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// Catalog is an in-memory field catalog.
type Catalog struct {
	mu        sync.RWMutex
	fields    map[string]entity.FieldInfo
	instances map[string]map[string]entity.FieldInstance
}

var _ interfaces.FieldCatalog = (*Catalog)(nil)

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		fields:    make(map[string]entity.FieldInfo),
		instances: make(map[string]map[string]entity.FieldInstance),
	}
}

// RegisterField adds or replaces field storage information.
func (c *Catalog) RegisterField(info entity.FieldInfo) {
	info.Name = strings.TrimSpace(info.Name)
	if info.Name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields[info.Name] = info
}

// RegisterInstance attaches a field to a bundle.
func (c *Catalog) RegisterInstance(instance entity.FieldInstance) error {
	if strings.TrimSpace(instance.FieldName) == "" || strings.TrimSpace(instance.EntityType) == "" || strings.TrimSpace(instance.Bundle) == "" {
		return fmt.Errorf("content: field instance requires field_name, entity_type and bundle")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := bundleKey(instance.EntityType, instance.Bundle)
	if c.instances[key] == nil {
		c.instances[key] = make(map[string]entity.FieldInstance)
	}
	c.instances[key][instance.FieldName] = instance
	return nil
}

func (c *Catalog) FieldInfo(fieldName string) (entity.FieldInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.fields[fieldName]
	return info, ok
}

// FieldInstances returns the bundle's instances ordered by weight, then name.
func (c *Catalog) FieldInstances(entityType, bundle string) []entity.FieldInstance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byName := c.instances[bundleKey(entityType, bundle)]
	out := make([]entity.FieldInstance, 0, len(byName))
	for _, instance := range byName {
		out = append(out, instance)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].FieldName < out[j].FieldName
	})
	return out
}

func (c *Catalog) FieldInstance(entityType, bundle, fieldName string) (entity.FieldInstance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	instance, ok := c.instances[bundleKey(entityType, bundle)][fieldName]
	return instance, ok
}

// CatalogDocument is the YAML form of a catalog and its pattern bindings.
type CatalogDocument struct {
	EntityTypes []entity.EntityInfo    `yaml:"entity_types"`
	Fields      []entity.FieldInfo     `yaml:"fields"`
	Instances   []entity.FieldInstance `yaml:"instances"`
	Bundles     map[string]string      `yaml:"bundles"`
	Wrapped     []WrappedField         `yaml:"wrapped"`
	Tuples      []BundleRef            `yaml:"tuples"`
}

// WrappedField names the field through which a bundle wraps a pattern item.
type WrappedField struct {
	EntityType string `yaml:"entity_type"`
	Bundle     string `yaml:"bundle"`
	Field      string `yaml:"field"`
}

// BundleRef identifies a bundle of an item type.
type BundleRef struct {
	EntityType string `yaml:"entity_type"`
	Bundle     string `yaml:"bundle"`
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*CatalogDocument, error) {
	var doc CatalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("content: parse catalog: %w", err)
	}
	return &doc, nil
}

// LoadCatalogFile reads and decodes a YAML catalog document.
func LoadCatalogFile(path string) (*CatalogDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// TypeRegistrar receives item type descriptions.
type TypeRegistrar interface {
	RegisterType(info entity.EntityInfo)
}

// Apply registers the document's fields and instances in catalog and its
// item types in every registrar.
func (d *CatalogDocument) Apply(catalog *Catalog, registrars ...TypeRegistrar) error {
	if d == nil {
		return nil
	}
	for _, info := range d.EntityTypes {
		for _, registrar := range registrars {
			if registrar != nil {
				registrar.RegisterType(info)
			}
		}
	}
	if catalog == nil {
		return nil
	}
	for _, field := range d.Fields {
		catalog.RegisterField(field)
	}
	for _, instance := range d.Instances {
		if err := catalog.RegisterInstance(instance); err != nil {
			return err
		}
	}
	return nil
}

// PatternBinder receives the pattern bindings of a catalog document.
type PatternBinder interface {
	BindBundle(bundle, pattern string)
	WrapField(entityType, bundle, field string)
	MarkTuple(entityType, bundle string)
}

// ApplyPatterns registers bundle bindings, wrapped fields and tuple bundles.
func (d *CatalogDocument) ApplyPatterns(binder PatternBinder) {
	if d == nil || binder == nil {
		return
	}
	for bundle, pattern := range d.Bundles {
		binder.BindBundle(bundle, pattern)
	}
	for _, wrapped := range d.Wrapped {
		binder.WrapField(wrapped.EntityType, wrapped.Bundle, wrapped.Field)
	}
	for _, tuple := range d.Tuples {
		binder.MarkTuple(tuple.EntityType, tuple.Bundle)
	}
}

func bundleKey(entityType, bundle string) string {
	return entityType + ":" + bundle
}
