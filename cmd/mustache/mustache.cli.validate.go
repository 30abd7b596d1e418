package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/itsatony/go-mustache"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	templatePath string
	partialsDir  string
	format       string
	strict       bool
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid  bool                    `json:"valid"`
	Issues []validationIssueOutput `json:"issues,omitempty"`
}

type validationIssueOutput struct {
	Severity string `json:"severity"`
	Class    string `json:"class,omitempty"`
	Message  string `json:"message"`
	Name     string `json:"name,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

func runValidate(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	templateSource, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	var opts []mustache.Option
	if cfg.partialsDir != "" {
		opts = append(opts, mustache.WithTemplateDir(cfg.partialsDir))
	}
	engine, err := mustache.New(opts...)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgEngineFailed, err)
		return ExitCodeError
	}

	result, err := engine.Validate(string(templateSource))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgParseTemplateFailed, err)
		return ExitCodeError
	}

	if cfg.format == OutputFormatJSON {
		return outputValidationJSON(result, cfg.strict, stdout)
	}
	return outputValidationText(result, cfg.strict, stdout)
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := flag.NewFlagSet(CmdNameValidate, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &validateConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.partialsDir, FlagPartials, "", "")
	fs.StringVar(&cfg.partialsDir, FlagPartialsShort, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.BoolVar(&cfg.strict, FlagStrictMode, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

func outputValidationText(result *mustache.ValidationResult, strict bool, stdout io.Writer) int {
	issues := result.Issues()
	errs := result.Errors()
	warnings := result.Warnings()

	if len(issues) == 0 {
		fmt.Fprintln(stdout, ValidationTextSuccess)
		return ExitCodeSuccess
	}

	fmt.Fprintln(stdout, ValidationTextIssueHeader)
	for _, issue := range issues {
		fmt.Fprintf(stdout, ValidationTextIssueFormat,
			severityToName(issue.Severity), issue.Message, issue.Position.Line, issue.Position.Column)
		if issue.Name != "" {
			fmt.Fprintf(stdout, ValidationTextIssueName, issue.Name)
		}
		fmt.Fprint(stdout, FmtNewline)
	}

	fmt.Fprintf(stdout, ValidationTextErrorSummary+FmtNewline, len(errs), len(warnings))

	if len(errs) > 0 || (strict && len(warnings) > 0) {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func outputValidationJSON(result *mustache.ValidationResult, strict bool, stdout io.Writer) int {
	issues := result.Issues()

	output := validationOutput{
		Valid:  result.IsValid() && (!strict || !result.HasWarnings()),
		Issues: make([]validationIssueOutput, 0, len(issues)),
	}

	for _, issue := range issues {
		output.Issues = append(output.Issues, validationIssueOutput{
			Severity: severityToName(issue.Severity),
			Class:    issue.ClassName(),
			Message:  issue.Message,
			Name:     issue.Name,
			Line:     issue.Position.Line,
			Column:   issue.Position.Column,
		})
	}

	jsonBytes, _ := json.MarshalIndent(output, "", "  ")
	fmt.Fprintln(stdout, string(jsonBytes))

	if !output.Valid {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func severityToName(s mustache.ValidationSeverity) string {
	if s == mustache.SeverityWarning {
		return SeverityNameWarning
	}
	return SeverityNameError
}
