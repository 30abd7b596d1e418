package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	templatePath string
	templateName string
	dataInline   string
	dataFilePath string
	dataFormat   string
	outputPath   string
	engine       engineFlags
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseRenderFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	var templateSource []byte
	if cfg.templatePath != "" {
		templateSource, err = readInput(cfg.templatePath, stdin)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
			return ExitCodeInputError
		}
	}

	data, err := loadData(cfg.dataInline, cfg.dataFilePath, cfg.dataFormat)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidData, err)
		return ExitCodeInputError
	}

	ctx := context.Background()
	engine, closer, err := cfg.engine.buildEngine(ctx)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitCodeError
	}
	defer closer()

	result, err := renderSource(ctx, engine, cfg.templateName, templateSource, data)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderFailed, err)
		return ExitCodeError
	}

	if err := writeOutput(cfg.outputPath, []byte(result), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}

	return ExitCodeSuccess
}

func parseRenderFlags(args []string) (*renderConfig, error) {
	fs := flag.NewFlagSet(CmdNameRender, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &renderConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.templateName, FlagName, "", "")
	fs.StringVar(&cfg.templateName, FlagNameShort, "", "")
	fs.StringVar(&cfg.dataInline, FlagData, "", "")
	fs.StringVar(&cfg.dataInline, FlagDataShort, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFile, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFileShort, "", "")
	fs.StringVar(&cfg.dataFormat, FlagDataFormat, FlagDefaultDataFormat, "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	cfg.engine.register(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := validateTemplateFlags(cfg.templatePath, cfg.templateName); err != nil {
		return nil, err
	}
	if err := validateDataFormat(cfg.dataFormat); err != nil {
		return nil, err
	}
	if err := cfg.engine.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateTemplateFlags requires exactly one of -t and -n
func validateTemplateFlags(path, name string) error {
	switch {
	case path == "" && name == "":
		return errors.New(ErrMsgMissingTemplate)
	case path != "" && name != "":
		return errors.New(ErrMsgTemplateAndName)
	}
	return nil
}

func validateDataFormat(format string) error {
	switch format {
	case DataFormatAuto, DataFormatJSON, DataFormatYAML:
		return nil
	}
	return errors.New(ErrMsgInvalidDataFormat)
}
