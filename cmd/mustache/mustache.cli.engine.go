package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/itsatony/go-mustache"
)

// stringList collects a repeatable string flag
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// engineFlags holds the flags shared by every command that renders
type engineFlags struct {
	configPath  string
	partialsDir string
	pragmas     stringList
	strategies  stringList
	strict      bool
	delimiters  string
}

func (f *engineFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, FlagConfig, "", "")
	fs.StringVar(&f.configPath, FlagConfigShort, "", "")
	fs.StringVar(&f.partialsDir, FlagPartials, "", "")
	fs.StringVar(&f.partialsDir, FlagPartialsShort, "", "")
	fs.Var(&f.pragmas, FlagPragma, "")
	fs.Var(&f.strategies, FlagErrorStrategy, "")
	fs.Var(&f.strategies, FlagErrorStrategyShort, "")
	fs.BoolVar(&f.strict, FlagStrictMode, false, "")
	fs.StringVar(&f.delimiters, FlagDelimiters, "", "")
}

// validate checks flag values that do not need the engine
func (f *engineFlags) validate() error {
	for _, entry := range f.strategies {
		if _, _, err := parseStrategy(entry); err != nil {
			return err
		}
	}
	if f.delimiters != "" && len(strings.Fields(f.delimiters)) != 2 {
		return errors.New(ErrMsgInvalidDelimiters)
	}
	return nil
}

// loadConfig reads the configuration file, or the environment alone
// when no file was given, and applies the command-line overrides.
func (f *engineFlags) loadConfig() (*mustache.Config, error) {
	var (
		cfg *mustache.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = mustache.LoadConfigFile(f.configPath)
	} else {
		cfg, err = mustache.LoadEnvConfig()
	}
	if err != nil {
		return nil, err
	}

	if f.partialsDir != "" {
		cfg.TemplateDir = f.partialsDir
	}
	cfg.Pragmas = append(cfg.Pragmas, f.pragmas...)
	if f.strict {
		cfg.Strict = true
	}
	if len(f.strategies) > 0 && cfg.ErrorStrategies == nil {
		cfg.ErrorStrategies = make(map[string]string, len(f.strategies))
	}
	for _, entry := range f.strategies {
		class, strategy, _ := strings.Cut(entry, StrategySeparator)
		cfg.ErrorStrategies[strings.TrimSpace(class)] = strings.TrimSpace(strategy)
	}
	return cfg, cfg.Validate()
}

// buildEngine creates the engine and returns a closer for its template
// stores. Log output goes to stderr through the configured zap logger.
func (f *engineFlags) buildEngine(ctx context.Context) (*mustache.Engine, func() error, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgConfigFailed, err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgConfigFailed, err)
	}

	var extra []mustache.Option
	if f.delimiters != "" {
		parts := strings.Fields(f.delimiters)
		extra = append(extra, mustache.WithDelimiters(parts[0], parts[1]))
	}

	engine, closer, err := cfg.NewEngine(ctx, logger, extra...)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgEngineFailed, err)
	}
	return engine, func() error {
		_ = logger.Sync()
		return closer()
	}, nil
}

// parseStrategy splits "class=strategy" and checks both names
func parseStrategy(entry string) (mustache.ErrorClass, mustache.ErrorStrategy, error) {
	name, value, ok := strings.Cut(entry, StrategySeparator)
	if !ok {
		return 0, 0, errors.New(ErrMsgInvalidStrategy)
	}
	class, ok := mustache.ParseErrorClass(strings.TrimSpace(name))
	if !ok {
		return 0, 0, errors.New(ErrMsgInvalidStrategy)
	}
	strategy, ok := mustache.ParseErrorStrategy(strings.TrimSpace(value))
	if !ok {
		return 0, 0, errors.New(ErrMsgInvalidStrategy)
	}
	return class, strategy, nil
}

// renderSource renders either an inline template or a named one
func renderSource(ctx context.Context, engine *mustache.Engine, name string, source []byte, data any) (string, error) {
	if name != "" {
		return engine.RenderNamed(ctx, name, data)
	}
	return engine.Render(ctx, string(source), data)
}
