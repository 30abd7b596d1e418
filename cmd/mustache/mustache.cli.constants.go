package main

// Command names
const (
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameCheck    = "check"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagTemplate      = "template"
	FlagName          = "name"
	FlagData          = "data"
	FlagDataFile      = "data-file"
	FlagDataFormat    = "data-format"
	FlagPartials      = "partials"
	FlagOutput        = "output"
	FlagExpected      = "expected"
	FlagFormat        = "format"
	FlagPragma        = "pragma"
	FlagStrictMode    = "strict"
	FlagErrorStrategy = "error-strategy"
	FlagDelimiters    = "delimiters"
	FlagConfig        = "config"
	FlagNoColor       = "no-color"
)

// Flag names - short form
const (
	FlagTemplateShort      = "t"
	FlagNameShort          = "n"
	FlagDataShort          = "d"
	FlagDataFileShort      = "f"
	FlagPartialsShort      = "p"
	FlagOutputShort        = "o"
	FlagExpectedShort      = "x"
	FlagFormatShort        = "F"
	FlagErrorStrategyShort = "e"
	FlagConfigShort        = "c"
)

// Flag default values
const (
	FlagDefaultOutput     = "-" // stdout
	FlagDefaultFormat     = "text"
	FlagDefaultDataFormat = "auto"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Data formats
const (
	DataFormatAuto = "auto"
	DataFormatJSON = "json"
	DataFormatYAML = "yaml"
)

// Data file extensions recognised by the auto format
const (
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Separators used by repeatable flags
const (
	StrategySeparator = "="
)

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand      = "unknown command"
	ErrMsgInvalidFlags        = "invalid arguments"
	ErrMsgMissingTemplate     = "template source required (use -t or -n)"
	ErrMsgTemplateAndName     = "use either -t or -n, not both"
	ErrMsgMissingExpected     = "expected output file required"
	ErrMsgInvalidData         = "invalid data"
	ErrMsgInvalidDataFormat   = "invalid data format"
	ErrMsgReadFileFailed      = "failed to read file"
	ErrMsgWriteOutputFailed   = "failed to write output"
	ErrMsgParseTemplateFailed = "template parsing failed"
	ErrMsgRenderFailed        = "template rendering failed"
	ErrMsgInvalidFormat       = "invalid output format"
	ErrMsgInvalidStrategy     = "invalid error strategy (want <class>=<strategy>)"
	ErrMsgInvalidDelimiters   = "invalid delimiters (want \"<open> <close>\")"
	ErrMsgConfigFailed        = "configuration failed"
	ErrMsgEngineFailed        = "failed to create engine"
	ErrMsgOutputMismatch      = "rendered output differs from expected"
)

// Help text templates
const (
	HelpMainUsage = `go-mustache - logic-less template rendering CLI

Usage:
    mustache <command> [options]

Commands:
    render      Render a template with data
    validate    Validate a template without rendering
    check       Render a template and compare it with expected output
    version     Show version information
    help        Show help for a command

Use "mustache help <command>" for more information about a command.`

	HelpEngineOptions = `Engine options:
    -c, --config <file>          YAML configuration file (MUSTACHE_* env vars override it)
    -p, --partials <dir>         Directory holding <name>.mustache partials
    --pragma <name>              Activate a pragma for the whole render (repeatable)
    --strict                     Treat every error class as fatal
    -e, --error-strategy <c=s>   Set a strategy per error class (repeatable)
                                 classes: unknown_variable, unclosed_section,
                                 unexpected_close_section, unknown_partial,
                                 unknown_pragma, partial_recursion
                                 strategies: throw, remove, log, keepraw
    --delimiters "<open> <close>" Starting delimiters of the template`

	HelpRenderUsage = `Render a template with data

Usage:
    mustache render [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -n, --name <name>       Named template from the configured sources
    -d, --data <text>       JSON or YAML data string
    -f, --data-file <file>  JSON or YAML data file
    --data-format <fmt>     Data format: auto, json, yaml (default: auto)
    -o, --output <file>     Output file, replaced atomically (default: stdout)

` + HelpEngineOptions + `

Examples:
    mustache render -t page.mustache -d '{"name": "Alice"}'
    mustache render -t page.mustache -f data.yaml -p ./partials
    cat page.mustache | mustache render -t - --pragma DOT-NOTATION -f data.json
    mustache render -c mustache.yaml -n welcome -f data.json -o welcome.html`

	HelpValidateUsage = `Validate a template without rendering

Usage:
    mustache validate [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -F, --format <format>   Output format: text, json (default: text)
    -p, --partials <dir>    Directory used to resolve partial names
    --strict                Treat warnings as errors

Examples:
    mustache validate -t page.mustache
    mustache validate -t page.mustache --strict -F json`

	HelpCheckUsage = `Render a template and compare it with expected output

Usage:
    mustache check [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -n, --name <name>       Named template from the configured sources
    -d, --data <text>       JSON or YAML data string
    -f, --data-file <file>  JSON or YAML data file
    --data-format <fmt>     Data format: auto, json, yaml (default: auto)
    -x, --expected <file>   File holding the expected output
    --no-color              Disable colored diff output

` + HelpEngineOptions + `

Examples:
    mustache check -t page.mustache -f data.json -x page.golden.html`

	HelpVersionUsage = `Show version information

Usage:
    mustache version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    mustache help [command]

Commands:
    render      Show help for render command
    validate    Show help for validate command
    check       Show help for check command
    version     Show help for version command`
)

// Version output format templates
const (
	VersionTextTemplate = "go-mustache version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Validation output format templates
const (
	ValidationTextSuccess      = "Template is valid"
	ValidationTextIssueHeader  = "Validation issues:"
	ValidationTextIssueFormat  = "  [%s] %s at line %d, column %d"
	ValidationTextIssueName    = " (%s)"
	ValidationTextErrorSummary = "%d error(s), %d warning(s)"
)

// Check output text
const (
	CheckTextMatch    = "Output matches expected"
	CheckTextDiffHead = "--- expected\n+++ rendered"
	NoNewlineMarker   = " (no newline at end)"
)

// Severity names for output
const (
	SeverityNameError   = "ERROR"
	SeverityNameWarning = "WARNING"
)

// CLI metadata
const (
	CLIName        = "mustache"
	CLIDescription = "logic-less template rendering CLI"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)
