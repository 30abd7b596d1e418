package mustache

import (
	"github.com/itsatony/go-mustache/internal"
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	openDelim      string
	closeDelim     string
	maxDepth       int
	policy         map[ErrorClass]ErrorStrategy
	escaper        Escaper
	charset        string
	pragmas        map[string]map[string]string
	knownPragmas   []string
	partials       map[string]string
	source         TemplateSource
	templateDir    string
	templateExt    string
	parseCacheSize int
	sectionTrim    bool
	logger         *zap.Logger
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		openDelim:      DefaultOpenDelim,
		closeDelim:     DefaultCloseDelim,
		maxDepth:       DefaultMaxDepth,
		policy:         defaultPolicy(),
		charset:        DefaultCharset,
		pragmas:        make(map[string]map[string]string),
		partials:       make(map[string]string),
		templateExt:    DefaultTemplateExtension,
		parseCacheSize: DefaultParseCacheSize,
		logger:         nil,
	}
}

// WithDelimiters sets the delimiters every top-level template starts
// with. Partials always start with "{{" and "}}".
// Default: "{{" and "}}"
func WithDelimiters(open, close string) Option {
	return func(c *engineConfig) {
		c.openDelim = open
		c.closeDelim = close
	}
}

// WithMaxDepth sets the maximum partial nesting depth.
// Use 0 for unlimited depth.
// Default: 100
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithErrorStrategy sets how one error class is handled.
func WithErrorStrategy(class ErrorClass, strategy ErrorStrategy) Option {
	return func(c *engineConfig) {
		c.policy[class] = strategy
	}
}

// WithErrorClass enables (throw) or disables (remove) an error class.
func WithErrorClass(class ErrorClass, enabled bool) Option {
	return func(c *engineConfig) {
		if enabled {
			c.policy[class] = ErrorStrategyThrow
		} else {
			c.policy[class] = ErrorStrategyRemove
		}
	}
}

// WithStrict enables every error class.
func WithStrict() Option {
	return func(c *engineConfig) {
		for _, class := range AllErrorClasses() {
			c.policy[class] = ErrorStrategyThrow
		}
	}
}

// WithEscaper replaces the HTML escaper used for plain variables.
func WithEscaper(escaper Escaper) Option {
	return func(c *engineConfig) {
		c.escaper = escaper
	}
}

// WithCharset sets the charset of the default HTML escaper.
// Default: "UTF-8"
func WithCharset(charset string) Option {
	return func(c *engineConfig) {
		c.charset = charset
	}
}

// WithPragma activates a pragma in every render, partials included.
// options may be nil.
func WithPragma(name string, options map[string]string) Option {
	return func(c *engineConfig) {
		opts := make(map[string]string, len(options))
		for k, v := range options {
			opts[k] = v
		}
		c.pragmas[name] = opts
	}
}

// WithKnownPragma accepts an additional pragma name in templates.
func WithKnownPragma(name string) Option {
	return func(c *engineConfig) {
		c.knownPragmas = append(c.knownPragmas, name)
	}
}

// WithPartials registers partial sources on the engine.
func WithPartials(partials map[string]string) Option {
	return func(c *engineConfig) {
		for name, src := range partials {
			c.partials[name] = src
		}
	}
}

// WithTemplateSource sets the source consulted for named templates and
// for partials not found in the registry.
func WithTemplateSource(source TemplateSource) Option {
	return func(c *engineConfig) {
		c.source = source
	}
}

// WithTemplateDir uses a FilesystemSource rooted at dir as the template
// source. Ignored when WithTemplateSource is also given.
func WithTemplateDir(dir string) Option {
	return func(c *engineConfig) {
		c.templateDir = dir
	}
}

// WithTemplateExtension sets the file extension of the directory source.
// Default: "mustache"
func WithTemplateExtension(ext string) Option {
	return func(c *engineConfig) {
		c.templateExt = ext
	}
}

// WithParseCacheSize bounds the number of parsed templates the engine
// keeps. Use 0 to disable the cache.
// Default: 1000
func WithParseCacheSize(n int) Option {
	return func(c *engineConfig) {
		c.parseCacheSize = n
	}
}

// WithSectionWhitespaceTrim drops whitespace that directly follows a
// section open or close tag.
// Default: false
func WithSectionWhitespaceTrim(enabled bool) Option {
	return func(c *engineConfig) {
		c.sectionTrim = enabled
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

func defaultPolicy() map[ErrorClass]ErrorStrategy {
	return map[ErrorClass]ErrorStrategy(internal.DefaultErrorPolicy())
}
