package mustache

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/itsatony/go-cuserr"
	"github.com/itsatony/go-mustache/internal"
	"go.uber.org/zap"
)

// Option names reported in configuration errors
const (
	OptionNameDelimiters     = "delimiters"
	OptionNameMaxDepth       = "max_depth"
	OptionNamePragma         = "pragma"
	OptionNameParseCacheSize = "parse_cache_size"
	OptionNameTemplateDir    = "template_dir"
)

// Engine is the main entry point for rendering mustache templates.
// It owns the partial registry, the parse cache and the template source.
// An Engine is safe for concurrent use; every render gets its own
// delimiter state, pragma set and context stack.
type Engine struct {
	config   *engineConfig
	executor *internal.Executor
	source   TemplateSource
	logger   *zap.Logger

	partials  map[string]string // Registered partial sources
	partialMu sync.RWMutex

	parsed   map[parseKey]*internal.RootNode
	parsedMu sync.RWMutex
}

// parseKey identifies a parse result: the same source scanned under
// different starting delimiters yields different trees.
type parseKey struct {
	open, close string
	source      string
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := validateDelimiters(config.openDelim, config.closeDelim); err != nil {
		return nil, err
	}
	if config.maxDepth < 0 {
		return nil, NewConfigError(ErrMsgInvalidOption, OptionNameMaxDepth, strconv.Itoa(config.maxDepth))
	}
	if config.parseCacheSize < 0 {
		return nil, NewConfigError(ErrMsgInvalidOption, OptionNameParseCacheSize, strconv.Itoa(config.parseCacheSize))
	}

	known := internal.NewPragmaSet(config.knownPragmas...)
	for name := range config.pragmas {
		if !known.IsKnown(name) {
			return nil, cuserr.WrapStdError(ErrUnknownPragma, ErrCodeConfig, ErrMsgInvalidOption).
				WithMetadata(MetaKeyOption, OptionNamePragma).
				WithMetadata(MetaKeyValue, name)
		}
	}

	escaper := config.escaper
	if escaper == nil {
		html, err := NewHTMLEscaper(config.charset)
		if err != nil {
			return nil, err
		}
		escaper = html
	}

	source := config.source
	if source == nil && config.templateDir != "" {
		dir, err := NewFilesystemSource(config.templateDir, config.templateExt)
		if err != nil {
			return nil, err
		}
		source = NewCachedSource(dir, DefaultCacheConfig(), logger)
	}

	executor := internal.NewExecutor(internal.ExecutorConfig{
		MaxDepth:       config.maxDepth,
		Policy:         internal.ErrorPolicy(config.policy).Clone(),
		Escape:         escaper.Escape,
		DefaultPragmas: config.pragmas,
		KnownPragmas:   config.knownPragmas,
	}, logger)

	partials := make(map[string]string, len(config.partials))
	for name, src := range config.partials {
		partials[name] = src
	}

	logger.Debug(LogMsgEngineCreated,
		zap.Int(LogFieldEntries, len(partials)),
		zap.Bool(LogFieldHasSource, source != nil))

	return &Engine{
		config:   config,
		executor: executor,
		source:   source,
		logger:   logger,
		partials: partials,
		parsed:   make(map[parseKey]*internal.RootNode),
	}, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// validateDelimiters applies the set-delimiter tag rules to an option pair.
func validateDelimiters(open, close string) error {
	o, c, err := internal.ParseDelimiters(open + " " + close)
	if err != nil || o != open || c != close {
		return cuserr.WrapStdError(ErrInvalidDelimiters, ErrCodeConfig, ErrMsgInvalidDelimiterOption).
			WithMetadata(MetaKeyOption, OptionNameDelimiters).
			WithMetadata(MetaKeyValue, open+" "+close)
	}
	return nil
}

// Parse parses a template source string and returns a Template.
// The returned Template can be rendered multiple times with different data.
func (e *Engine) Parse(source string) (*Template, error) {
	root, err := e.parse(source, e.config.openDelim, e.config.closeDelim)
	if err != nil {
		return nil, err
	}
	return newTemplate(source, root, e), nil
}

// Render is a convenience method that parses and renders in one step.
func (e *Engine) Render(ctx context.Context, source string, data any) (string, error) {
	return e.RenderWithPartials(ctx, source, data, nil)
}

// RenderWithPartials renders source with call-scoped partials that take
// precedence over the registry and the template source.
func (e *Engine) RenderWithPartials(ctx context.Context, source string, data any, partials map[string]string) (string, error) {
	tmpl, err := e.Parse(source)
	if err != nil {
		return "", err
	}
	return tmpl.RenderWithPartials(ctx, data, partials)
}

// RenderNamed loads a template by name from the template source and
// renders it. With WithTemplateDir the name maps to <dir>/<name>.<ext>,
// or to <dir>/<name> when the name has an extension of its own.
func (e *Engine) RenderNamed(ctx context.Context, name string, data any) (string, error) {
	tmpl, err := e.Load(ctx, name)
	if err != nil {
		return "", err
	}
	return tmpl.Render(ctx, data)
}

// Load fetches and parses a named template from the template source.
func (e *Engine) Load(ctx context.Context, name string) (*Template, error) {
	if e.source == nil {
		return nil, NewTemplateNotFoundError(name)
	}
	src, err := LoadTemplate(ctx, e.source, name)
	if err != nil {
		return nil, err
	}
	e.logger.Debug(LogMsgTemplateLoaded,
		zap.String(LogFieldName, name),
		zap.Int(LogFieldSourceLen, len(src)))

	tmpl, err := e.Parse(src)
	if err != nil {
		var customErr *cuserr.CustomError
		if errors.As(err, &customErr) {
			return nil, customErr.WithMetadata(MetaKeyTemplateName, name)
		}
		return nil, err
	}
	return tmpl, nil
}

// Source returns the engine's template source, or nil if none is configured.
func (e *Engine) Source() TemplateSource {
	return e.source
}

// RegisterPartial adds or replaces a named partial. The source is
// parsed eagerly so syntax errors surface here rather than mid-render.
func (e *Engine) RegisterPartial(name, source string) error {
	if name == "" {
		return cuserr.NewValidationError(ErrCodeConfig, ErrMsgEmptyPartialName)
	}
	if _, err := e.parse(source, DefaultOpenDelim, DefaultCloseDelim); err != nil {
		var customErr *cuserr.CustomError
		if errors.As(err, &customErr) {
			return customErr.WithMetadata(MetaKeyPartialName, name)
		}
		return err
	}

	e.partialMu.Lock()
	defer e.partialMu.Unlock()

	e.partials[name] = source
	e.logger.Debug(LogMsgPartialRegistered, zap.String(LogFieldName, name))
	return nil
}

// MustRegisterPartial registers a partial and panics on error.
func (e *Engine) MustRegisterPartial(name, source string) {
	if err := e.RegisterPartial(name, source); err != nil {
		panic(err)
	}
}

// UnregisterPartial removes a registered partial by name.
// Returns true if the partial existed and was removed, false otherwise.
func (e *Engine) UnregisterPartial(name string) bool {
	e.partialMu.Lock()
	defer e.partialMu.Unlock()

	if _, exists := e.partials[name]; exists {
		delete(e.partials, name)
		return true
	}
	return false
}

// HasPartial checks if a partial is registered with the given name.
func (e *Engine) HasPartial(name string) bool {
	e.partialMu.RLock()
	defer e.partialMu.RUnlock()

	_, ok := e.partials[name]
	return ok
}

// ListPartials returns all registered partial names in sorted order.
func (e *Engine) ListPartials() []string {
	e.partialMu.RLock()
	defer e.partialMu.RUnlock()

	names := make([]string, 0, len(e.partials))
	for name := range e.partials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PartialCount returns the number of registered partials.
func (e *Engine) PartialCount() int {
	e.partialMu.RLock()
	defer e.partialMu.RUnlock()

	return len(e.partials)
}

// ClearCache drops every parsed template and, when the template source
// is a CachedSource, its cached sources too.
func (e *Engine) ClearCache() {
	e.parsedMu.Lock()
	e.parsed = make(map[parseKey]*internal.RootNode)
	e.parsedMu.Unlock()

	if cached, ok := e.source.(*CachedSource); ok {
		cached.Clear()
	}
}

// CacheSize returns the number of parsed templates held in the cache.
func (e *Engine) CacheSize() int {
	e.parsedMu.RLock()
	defer e.parsedMu.RUnlock()

	return len(e.parsed)
}

// parse scans source starting with the given delimiters, consulting the
// parse cache first.
func (e *Engine) parse(source, open, close string) (*internal.RootNode, error) {
	key := parseKey{open: open, close: close, source: source}
	if e.config.parseCacheSize > 0 {
		e.parsedMu.RLock()
		root, ok := e.parsed[key]
		e.parsedMu.RUnlock()
		if ok {
			e.logger.Debug(LogMsgParseCacheHit, zap.Int(LogFieldSourceLen, len(source)))
			return root, nil
		}
	}

	lexer := internal.NewLexerWithConfig(source, internal.LexerConfig{
		OpenDelim:  open,
		CloseDelim: close,
	}, e.logger)
	parser := internal.NewParserWithConfig(lexer, internal.ParserConfig{
		TrimSectionWhitespace: e.config.sectionTrim,
	}, e.logger)

	root, err := parser.Parse()
	if err != nil {
		return nil, wrapError(err)
	}

	if e.config.parseCacheSize > 0 {
		e.parsedMu.Lock()
		if len(e.parsed) >= e.config.parseCacheSize {
			// Parsed trees are cheap to rebuild; drop an arbitrary entry.
			for k := range e.parsed {
				delete(e.parsed, k)
				break
			}
			e.logger.Debug(LogMsgParseCacheEvict, zap.Int(LogFieldEntries, len(e.parsed)))
		}
		e.parsed[key] = root
		e.parsedMu.Unlock()
	}
	return root, nil
}

// partialLoader resolves partials for one render: call-scoped partials
// first, then the registry, then the template source.
func (e *Engine) partialLoader(call map[string]string) internal.PartialLoader {
	return internal.PartialLoaderFunc(func(ctx context.Context, name string) (*internal.RootNode, bool, error) {
		src, origin, found, err := e.partialSource(ctx, name, call)
		if err != nil || !found {
			return nil, false, err
		}
		root, err := e.parse(src, DefaultOpenDelim, DefaultCloseDelim)
		if err != nil {
			return nil, false, err
		}
		e.logger.Debug(LogMsgPartialResolved,
			zap.String(LogFieldName, name),
			zap.String(LogFieldOrigin, origin))
		return root, true, nil
	})
}

func (e *Engine) partialSource(ctx context.Context, name string, call map[string]string) (string, string, bool, error) {
	if src, ok := call[name]; ok {
		return src, PartialOriginCall, true, nil
	}

	e.partialMu.RLock()
	src, ok := e.partials[name]
	e.partialMu.RUnlock()
	if ok {
		return src, PartialOriginRegistry, true, nil
	}

	if e.source == nil {
		return "", "", false, nil
	}
	src, err := e.source.Load(ctx, name)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	return src, PartialOriginSource, true, nil
}
