package mustache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
)

// Filesystem permissions
const (
	FilesystemDirPermissions = 0o755
)

// Filesystem source error messages
const (
	ErrMsgInvalidSourceRoot = "source root directory cannot be empty"
	ErrMsgCreateSourceDir   = "failed to create source directory"
	ErrMsgReadTemplateFile  = "failed to read template file"
	ErrMsgWriteTemplateFile = "failed to write template file"
	ErrMsgListTemplateFiles = "failed to list template files"
)

// FilesystemSource stores one template per file:
//
//	<root>/<name>.<ext>
//
// Names may contain "/" to address subdirectories. Writes are atomic.
type FilesystemSource struct {
	mu     sync.RWMutex
	root   string
	ext    string
	closed bool
}

func init() {
	RegisterSourceDriver(SourceDriverFilesystem, SourceDriverFunc(func(conn string) (TemplateStore, error) {
		return NewFilesystemSource(conn, DefaultTemplateExtension)
	}))
}

// NewFilesystemSource creates a source rooted at root. The directory is
// created if it doesn't exist. ext defaults to "mustache".
func NewFilesystemSource(root, ext string) (*FilesystemSource, error) {
	if root == "" {
		return nil, NewConfigError(ErrMsgInvalidSourceRoot, MetaKeyPath, root)
	}
	if ext == "" {
		ext = DefaultTemplateExtension
	}
	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, NewSourceError(ErrMsgCreateSourceDir, root, err)
	}
	return &FilesystemSource{
		root: root,
		ext:  strings.TrimPrefix(ext, "."),
	}, nil
}

// Root returns the root directory
func (s *FilesystemSource) Root() string {
	return s.root
}

// Extension returns the template file extension, without the dot
func (s *FilesystemSource) Extension() string {
	return s.ext
}

// Path returns the file path a template name maps to. A name that
// already ends in the extension is used as is.
func (s *FilesystemSource) Path(name string) string {
	suffix := "." + s.ext
	if !strings.HasSuffix(name, suffix) {
		name += suffix
	}
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Load implements TemplateSource
func (s *FilesystemSource) Load(ctx context.Context, name string) (string, error) {
	return s.read(ctx, name, s.Path)
}

// LoadTemplate implements NamedTemplateSource. A name with an extension
// of its own is read as is, so "page.html" maps to <root>/page.html.
func (s *FilesystemSource) LoadTemplate(ctx context.Context, name string) (string, error) {
	if filepath.Ext(name) == "" {
		return s.Load(ctx, name)
	}
	return s.read(ctx, name, func(name string) string {
		return filepath.Join(s.root, filepath.FromSlash(name))
	})
}

func (s *FilesystemSource) read(ctx context.Context, name string, pathOf func(string) string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidateTemplateName(name); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", NewSourceClosedError()
	}

	data, err := os.ReadFile(pathOf(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", NewTemplateNotFoundError(name)
		}
		return "", NewSourceError(ErrMsgReadTemplateFile, name, err)
	}
	return string(data), nil
}

// Save implements TemplateStore. The file is replaced atomically.
func (s *FilesystemSource) Save(ctx context.Context, name, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateTemplateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewSourceClosedError()
	}

	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), FilesystemDirPermissions); err != nil {
		return NewSourceError(ErrMsgCreateSourceDir, name, err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(source)); err != nil {
		return NewSourceError(ErrMsgWriteTemplateFile, name, err)
	}
	return nil
}

// Delete implements TemplateStore
func (s *FilesystemSource) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateTemplateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewSourceClosedError()
	}

	if err := os.Remove(s.Path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewTemplateNotFoundError(name)
		}
		return NewSourceError(ErrMsgWriteTemplateFile, name, err)
	}
	return nil
}

// List implements TemplateStore. Names use "/" and carry no extension.
func (s *FilesystemSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewSourceClosedError()
	}

	suffix := "." + s.ext
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		names = append(names, strings.TrimSuffix(filepath.ToSlash(rel), suffix))
		return nil
	})
	if err != nil {
		return nil, NewSourceError(ErrMsgListTemplateFiles, s.root, err)
	}
	sort.Strings(names)
	return names, nil
}

// Close implements TemplateStore
func (s *FilesystemSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
