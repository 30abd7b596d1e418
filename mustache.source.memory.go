package mustache

import (
	"context"
	"sort"
	"sync"
)

// MemorySource is an in-memory TemplateStore.
// It is primarily intended for testing and development.
type MemorySource struct {
	mu        sync.RWMutex
	templates map[string]string
	closed    bool
}

func init() {
	RegisterSourceDriver(SourceDriverMemory, SourceDriverFunc(func(string) (TemplateStore, error) {
		return NewMemorySource(nil), nil
	}))
}

// NewMemorySource creates a store pre-populated with templates (may be nil).
func NewMemorySource(templates map[string]string) *MemorySource {
	s := &MemorySource{templates: make(map[string]string, len(templates))}
	for name, src := range templates {
		s.templates[name] = src
	}
	return s
}

// Load implements TemplateSource
func (s *MemorySource) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", NewSourceClosedError()
	}
	src, ok := s.templates[name]
	if !ok {
		return "", NewTemplateNotFoundError(name)
	}
	return src, nil
}

// Save implements TemplateStore
func (s *MemorySource) Save(ctx context.Context, name, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return NewInvalidTemplateNameError(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewSourceClosedError()
	}
	s.templates[name] = source
	return nil
}

// Delete implements TemplateStore
func (s *MemorySource) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewSourceClosedError()
	}
	if _, ok := s.templates[name]; !ok {
		return NewTemplateNotFoundError(name)
	}
	delete(s.templates, name)
	return nil
}

// List implements TemplateStore
func (s *MemorySource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewSourceClosedError()
	}
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Has reports whether name is stored
func (s *MemorySource) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.templates[name]
	return ok
}

// Len returns the number of stored templates
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.templates)
}

// Close implements TemplateStore
func (s *MemorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.templates = nil
	return nil
}
