package mustache

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"sync"
)

// TemplateSource loads template sources by name. Implementations must be
// safe for concurrent use and return an error matching
// ErrTemplateNotFound when the name does not exist.
type TemplateSource interface {
	Load(ctx context.Context, name string) (string, error)
}

// NamedTemplateSource is implemented by sources that resolve a top-level
// template name differently from a partial name. A name that already has
// an extension addresses the stored template as is.
type NamedTemplateSource interface {
	TemplateSource
	LoadTemplate(ctx context.Context, name string) (string, error)
}

// LoadTemplate loads a named template from src, through LoadTemplate when
// src implements NamedTemplateSource and through Load otherwise.
func LoadTemplate(ctx context.Context, src TemplateSource, name string) (string, error) {
	if named, ok := src.(NamedTemplateSource); ok {
		return named.LoadTemplate(ctx, name)
	}
	return src.Load(ctx, name)
}

// TemplateStore is a TemplateSource that can also be written to.
type TemplateStore interface {
	TemplateSource

	// Save creates or replaces the named template.
	Save(ctx context.Context, name, source string) error

	// Delete removes the named template.
	// Returns ErrTemplateNotFound if it doesn't exist.
	Delete(ctx context.Context, name string) error

	// List returns all template names in sorted order.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// SourceFunc adapts a function to TemplateSource
type SourceFunc func(ctx context.Context, name string) (string, error)

// Load calls f
func (f SourceFunc) Load(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// ChainSource consults each source in order and returns the first hit.
type ChainSource []TemplateSource

// Load implements TemplateSource. Errors other than not-found stop the chain.
func (c ChainSource) Load(ctx context.Context, name string) (string, error) {
	return c.first(name, func(src TemplateSource) (string, error) {
		return src.Load(ctx, name)
	})
}

// LoadTemplate implements NamedTemplateSource
func (c ChainSource) LoadTemplate(ctx context.Context, name string) (string, error) {
	return c.first(name, func(src TemplateSource) (string, error) {
		return LoadTemplate(ctx, src, name)
	})
}

func (c ChainSource) first(name string, load func(TemplateSource) (string, error)) (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		out, err := load(src)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrTemplateNotFound) {
			return "", err
		}
	}
	return "", NewTemplateNotFoundError(name)
}

// ValidateTemplateName rejects names a store cannot safely use as a key
// or relative path: empty names, absolute paths and parent references.
func ValidateTemplateName(name string) error {
	if name == "" || strings.ContainsRune(name, 0) || strings.Contains(name, `\`) {
		return NewInvalidTemplateNameError(name)
	}
	if strings.HasPrefix(name, "/") {
		return NewInvalidTemplateNameError(name)
	}
	cleaned := path.Clean(name)
	if cleaned != name || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return NewInvalidTemplateNameError(name)
	}
	return nil
}

// SourceDriver opens a TemplateStore from a driver-specific connection string.
type SourceDriver interface {
	Open(connectionString string) (TemplateStore, error)
}

// SourceDriverFunc adapts a function to SourceDriver
type SourceDriverFunc func(connectionString string) (TemplateStore, error)

// Open calls f
func (f SourceDriverFunc) Open(connectionString string) (TemplateStore, error) {
	return f(connectionString)
}

// Source driver registry
var (
	sourceDriversMu sync.RWMutex
	sourceDrivers   = make(map[string]SourceDriver)
)

// RegisterSourceDriver registers a source driver by name.
// This is typically called from a driver's init() function.
// Panics if a driver with the same name is already registered.
func RegisterSourceDriver(name string, driver SourceDriver) {
	sourceDriversMu.Lock()
	defer sourceDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilSourceDriver)
	}
	if _, exists := sourceDrivers[name]; exists {
		panic(ErrMsgDriverRegistered + ": " + name)
	}
	sourceDrivers[name] = driver
}

// OpenSource opens a store using the named driver.
//
// Example:
//
//	store, err := mustache.OpenSource("memory", "")
//	store, err := mustache.OpenSource("filesystem", "/path/to/templates")
//	store, err := mustache.OpenSource("sqlite", "templates.db")
func OpenSource(driverName, connectionString string) (TemplateStore, error) {
	sourceDriversMu.RLock()
	driver, ok := sourceDrivers[driverName]
	sourceDriversMu.RUnlock()

	if !ok {
		return nil, NewSourceDriverNotFoundError(driverName)
	}
	return driver.Open(connectionString)
}

// ListSourceDrivers returns the names of all registered drivers in sorted order.
func ListSourceDrivers() []string {
	sourceDriversMu.RLock()
	defer sourceDriversMu.RUnlock()

	names := make([]string, 0, len(sourceDrivers))
	for name := range sourceDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
