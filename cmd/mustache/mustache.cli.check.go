package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// checkConfig holds parsed check command configuration
type checkConfig struct {
	templatePath string
	templateName string
	dataInline   string
	dataFilePath string
	dataFormat   string
	expectedPath string
	noColor      bool
	engine       engineFlags
}

func runCheck(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseCheckFlags(args)
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

	expected, err := os.ReadFile(cfg.expectedPath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
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

	rendered, err := renderSource(ctx, engine, cfg.templateName, templateSource, data)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderFailed, err)
		return ExitCodeError
	}

	if rendered == string(expected) {
		fmt.Fprintln(stdout, CheckTextMatch)
		return ExitCodeSuccess
	}

	fmt.Fprintln(stdout, ErrMsgOutputMismatch)
	fmt.Fprintln(stdout, CheckTextDiffHead)
	fmt.Fprint(stdout, formatDiff(string(expected), rendered, useColor(stdout, cfg.noColor)))
	return ExitCodeValidationError
}

func parseCheckFlags(args []string) (*checkConfig, error) {
	fs := flag.NewFlagSet(CmdNameCheck, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &checkConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.templateName, FlagName, "", "")
	fs.StringVar(&cfg.templateName, FlagNameShort, "", "")
	fs.StringVar(&cfg.dataInline, FlagData, "", "")
	fs.StringVar(&cfg.dataInline, FlagDataShort, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFile, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFileShort, "", "")
	fs.StringVar(&cfg.dataFormat, FlagDataFormat, FlagDefaultDataFormat, "")
	fs.StringVar(&cfg.expectedPath, FlagExpected, "", "")
	fs.StringVar(&cfg.expectedPath, FlagExpectedShort, "", "")
	fs.BoolVar(&cfg.noColor, FlagNoColor, false, "")
	cfg.engine.register(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := validateTemplateFlags(cfg.templatePath, cfg.templateName); err != nil {
		return nil, err
	}
	if cfg.expectedPath == "" {
		return nil, errors.New(ErrMsgMissingExpected)
	}
	if err := validateDataFormat(cfg.dataFormat); err != nil {
		return nil, err
	}
	if err := cfg.engine.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// useColor reports whether diff output should be colored: only for a
// terminal, and never with --no-color or NO_COLOR set.
func useColor(w io.Writer, disabled bool) bool {
	if disabled || color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// formatDiff renders a line-oriented diff of want against got. Lines
// only in want are prefixed "-", lines only in got "+".
func formatDiff(want, got string, colored bool) string {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	del := fmt.Sprint
	ins := fmt.Sprint
	if colored {
		del = color.New(color.FgRed).Sprint
		ins = color.New(color.FgGreen).Sprint
	}

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		paint := fmt.Sprint
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix, paint = "-", del
		case diffpatch.DiffInsert:
			prefix, paint = "+", ins
		default:
			prefix = " "
		}
		for _, line := range splitLines(d.Text) {
			sb.WriteString(paint(prefix + line))
			sb.WriteString(FmtNewline)
		}
	}
	return sb.String()
}

// splitLines splits text into lines, marking a missing final newline
// so that trailing-newline differences stay visible.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, FmtNewline)
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		if strings.HasSuffix(line, FmtNewline) {
			lines[i] = strings.TrimSuffix(line, FmtNewline)
		} else {
			lines[i] = line + NoNewlineMarker
		}
	}
	return lines
}
