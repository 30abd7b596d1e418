package mustache

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Configuration error messages
const (
	ErrMsgConfigEnvParse      = "failed to parse environment configuration"
	ErrMsgConfigFileRead      = "failed to read configuration file"
	ErrMsgConfigFileParse     = "failed to parse configuration file"
	ErrMsgConfigLogLevel      = "log level must be one of: debug, info, warn, error"
	ErrMsgConfigStrategy      = "error strategy entry must be <class>=<strategy>"
	ErrMsgConfigNegativeValue = "value must not be negative"
)

// Configuration keys reported in errors
const (
	ConfigKeyMaxDepth        = "max_depth"
	ConfigKeyParseCacheSize  = "parse_cache_size"
	ConfigKeySourceCacheTTL  = "source_cache_ttl"
	ConfigKeyLogLevel        = "log_level"
	ConfigKeyErrorStrategies = "error_strategies"
	ConfigKeyPragmas         = "pragmas"
)

// DefaultLogLevel is the log level used when none is configured
const DefaultLogLevel = "info"

// Config is the declarative engine configuration. It is read from a
// YAML file, from MUSTACHE_* environment variables, or both; the
// environment wins.
type Config struct {
	// Template lookup
	TemplateDir       string `yaml:"template_dir" env:"TEMPLATE_DIR"`
	TemplateExtension string `yaml:"template_extension" env:"TEMPLATE_EXTENSION"`

	// Rendering
	Charset         string            `yaml:"charset" env:"CHARSET"`
	MaxDepth        int               `yaml:"max_depth" env:"MAX_DEPTH"`
	Pragmas         []string          `yaml:"pragmas" env:"PRAGMAS" envSeparator:","`
	KnownPragmas    []string          `yaml:"known_pragmas" env:"KNOWN_PRAGMAS" envSeparator:","`
	ErrorStrategies map[string]string `yaml:"error_strategies" env:"ERROR_STRATEGIES" envSeparator:"," envKeyValSeparator:"="`
	Strict          bool              `yaml:"strict" env:"STRICT"`
	SectionTrim     bool              `yaml:"section_trim" env:"SECTION_TRIM"`
	ParseCacheSize  int               `yaml:"parse_cache_size" env:"PARSE_CACHE_SIZE"`

	// Template stores, consulted after TemplateDir in this order
	SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	PostgresDSN string `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPrefix string `yaml:"redis_prefix" env:"REDIS_PREFIX"`

	// SourceCacheTTL caches loaded sources; 0 disables the cache
	SourceCacheTTL time.Duration `yaml:"source_cache_ttl" env:"SOURCE_CACHE_TTL"`

	// Logging
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		TemplateExtension: DefaultTemplateExtension,
		Charset:           DefaultCharset,
		MaxDepth:          DefaultMaxDepth,
		ParseCacheSize:    DefaultParseCacheSize,
		RedisPrefix:       RedisDefaultPrefix,
		SourceCacheTTL:    DefaultCacheTTL,
		LogLevel:          DefaultLogLevel,
	}
}

// LoadEnvConfig builds a configuration from defaults and MUSTACHE_*
// environment variables.
func LoadEnvConfig() (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML configuration file and then applies
// MUSTACHE_* environment overrides.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewSourceError(ErrMsgConfigFileRead, path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, NewSourceError(ErrMsgConfigFileParse, path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overwrites fields whose environment variable is set.
func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return NewConfigError(ErrMsgConfigEnvParse, EnvPrefix, err.Error())
	}
	return nil
}

// Validate checks every value that BuildOptions would otherwise reject.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return NewConfigError(ErrMsgConfigNegativeValue, ConfigKeyMaxDepth, strconv.Itoa(c.MaxDepth))
	}
	if c.ParseCacheSize < 0 {
		return NewConfigError(ErrMsgConfigNegativeValue, ConfigKeyParseCacheSize, strconv.Itoa(c.ParseCacheSize))
	}
	if c.SourceCacheTTL < 0 {
		return NewConfigError(ErrMsgConfigNegativeValue, ConfigKeySourceCacheTTL, c.SourceCacheTTL.String())
	}
	if _, err := NewHTMLEscaper(c.Charset); err != nil {
		return err
	}
	if _, err := c.zapLevel(); err != nil {
		return err
	}
	if _, err := c.policy(); err != nil {
		return err
	}
	known := map[string]bool{PragmaDotNotation: true, PragmaUnescaped: true}
	for _, name := range c.KnownPragmas {
		known[strings.TrimSpace(name)] = true
	}
	for _, name := range c.Pragmas {
		if !known[strings.TrimSpace(name)] {
			return NewConfigError(ErrMsgInvalidOption, ConfigKeyPragmas, name)
		}
	}
	return nil
}

// policy parses ErrorStrategies into class/strategy pairs.
func (c *Config) policy() (map[ErrorClass]ErrorStrategy, error) {
	out := make(map[ErrorClass]ErrorStrategy, len(c.ErrorStrategies))
	for className, strategyName := range c.ErrorStrategies {
		class, ok := ParseErrorClass(strings.TrimSpace(className))
		if !ok {
			return nil, NewConfigError(ErrMsgConfigStrategy, ConfigKeyErrorStrategies, className)
		}
		strategy, ok := ParseErrorStrategy(strings.TrimSpace(strategyName))
		if !ok {
			return nil, NewConfigError(ErrMsgConfigStrategy, ConfigKeyErrorStrategies, className+ConfigKeyValSeparator+strategyName)
		}
		out[class] = strategy
	}
	return out, nil
}

func (c *Config) zapLevel() (zapcore.Level, error) {
	level := c.LogLevel
	if level == "" {
		level = DefaultLogLevel
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel, NewConfigError(ErrMsgConfigLogLevel, ConfigKeyLogLevel, level)
	}
	return lvl, nil
}

// NewLogger builds a production zap logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := c.zapLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// BuildOptions converts the configuration into engine options. The
// template source is not included; see OpenSource.
func (c *Config) BuildOptions() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	opts := []Option{
		WithCharset(c.Charset),
		WithMaxDepth(c.MaxDepth),
		WithParseCacheSize(c.ParseCacheSize),
		WithSectionWhitespaceTrim(c.SectionTrim),
	}
	if c.TemplateExtension != "" {
		opts = append(opts, WithTemplateExtension(c.TemplateExtension))
	}
	if c.Strict {
		opts = append(opts, WithStrict())
	}
	policy, _ := c.policy()
	for class, strategy := range policy {
		opts = append(opts, WithErrorStrategy(class, strategy))
	}
	for _, name := range c.KnownPragmas {
		opts = append(opts, WithKnownPragma(strings.TrimSpace(name)))
	}
	for _, name := range c.Pragmas {
		opts = append(opts, WithPragma(strings.TrimSpace(name), nil))
	}
	return opts, nil
}

// OpenSource opens every configured template store and chains them in
// the order directory, SQLite, PostgreSQL, Redis. The returned closer
// releases them. A nil source means nothing is configured.
func (c *Config) OpenSource(ctx context.Context, logger *zap.Logger) (TemplateSource, func() error, error) {
	var (
		chain  ChainSource
		stores []TemplateStore
	)
	closeAll := func() error {
		var errs []error
		for _, s := range stores {
			errs = append(errs, s.Close())
		}
		return errors.Join(errs...)
	}

	add := func(driver string, open func() (TemplateStore, error)) error {
		store, err := open()
		if err != nil {
			_ = closeAll()
			return err
		}
		if logger != nil {
			logger.Debug(LogMsgSourceOpened, zap.String(LogFieldDriver, driver))
		}
		stores = append(stores, store)
		chain = append(chain, store)
		return nil
	}

	if c.TemplateDir != "" {
		if err := add(SourceDriverFilesystem, func() (TemplateStore, error) {
			return NewFilesystemSource(c.TemplateDir, c.TemplateExtension)
		}); err != nil {
			return nil, nil, err
		}
	}
	if c.SQLitePath != "" {
		if err := add(SourceDriverSQLite, func() (TemplateStore, error) {
			return NewSQLiteSource(c.SQLitePath)
		}); err != nil {
			return nil, nil, err
		}
	}
	if c.PostgresDSN != "" {
		if err := add(SourceDriverPostgres, func() (TemplateStore, error) {
			return NewPostgresSource(c.PostgresDSN)
		}); err != nil {
			return nil, nil, err
		}
	}
	if c.RedisAddr != "" {
		if err := add(SourceDriverRedis, func() (TemplateStore, error) {
			opts, err := ParseRedisConn(c.RedisAddr)
			if err != nil {
				return nil, err
			}
			return NewRedisSource(ctx, opts, c.RedisPrefix)
		}); err != nil {
			return nil, nil, err
		}
	}

	if len(chain) == 0 {
		return nil, closeAll, nil
	}

	var source TemplateSource = chain
	if len(chain) == 1 {
		source = chain[0]
	}
	if c.SourceCacheTTL > 0 {
		cfg := DefaultCacheConfig()
		cfg.TTL = c.SourceCacheTTL
		source = NewCachedSource(source, cfg, logger)
	}
	return source, closeAll, nil
}

// NewEngine builds an engine from the configuration. extra options are
// applied last. The returned closer releases the template stores.
func (c *Config) NewEngine(ctx context.Context, logger *zap.Logger, extra ...Option) (*Engine, func() error, error) {
	opts, err := c.BuildOptions()
	if err != nil {
		return nil, nil, err
	}
	source, closer, err := c.OpenSource(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	if source != nil {
		opts = append(opts, WithTemplateSource(source))
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	opts = append(opts, extra...)

	engine, err := New(opts...)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return engine, closer, nil
}
