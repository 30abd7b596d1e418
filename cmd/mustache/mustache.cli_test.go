package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test data constants
const (
	testTemplateContent = "Hello, {{user}}!"
	testDataJSON        = `{"user": "Alice"}`
	testDataYAML        = "user: Yaml\n"
	testExpectedOutput  = "Hello, Alice!"
	testInvalidContent  = "{{#open}}never closed{{/other}}"
	testPartialPage     = "<main>{{>footer}}</main>"
	testPartialFooter   = "(c) {{year}}"
)

// setupTestData creates test files in a temp directory
func setupTestData(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	files := map[string]string{
		"template.txt":             testTemplateContent,
		"data.json":                testDataJSON,
		"data.yaml":                testDataYAML,
		"invalid.txt":              testInvalidContent,
		"page.txt":                 testPartialPage,
		"partials/footer.mustache": testPartialFooter,
		"expected.txt":             testExpectedOutput,
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), FilePermissions))
	}
	return tmpDir
}

// runCLI runs the CLI and returns the exit code and both outputs
func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

// ==================== run() dispatch tests ====================

func TestRun_NoArgs_ShowsHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "")

	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, CLIName)
	assert.Contains(t, stdout, CmdNameRender)
	assert.Contains(t, stdout, CmdNameCheck)
}

func TestRun_UnknownCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "explode")

	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stdout, ErrMsgUnknownCommand)
}

// ==================== Help command tests ====================

func TestHelp(t *testing.T) {
	tests := map[string]string{
		CmdNameRender:   HelpRenderUsage,
		CmdNameValidate: HelpValidateUsage,
		CmdNameCheck:    HelpCheckUsage,
		CmdNameVersion:  HelpVersionUsage,
		CmdNameHelp:     HelpHelpUsage,
	}
	for cmd, want := range tests {
		t.Run(cmd, func(t *testing.T) {
			code, stdout, _ := runCLI(t, "", CmdNameHelp, cmd)
			assert.Equal(t, ExitCodeSuccess, code)
			assert.Contains(t, stdout, want)
		})
	}

	assert.Contains(t, HelpRenderUsage, HelpEngineOptions)
}

// ==================== Version command tests ====================

func TestVersion_TextFormat(t *testing.T) {
	code, stdout, _ := runCLI(t, "", CmdNameVersion)

	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, CLIName)
}

func TestVersion_JSONFormat(t *testing.T) {
	code, stdout, _ := runCLI(t, "", CmdNameVersion, "-F", OutputFormatJSON)

	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, "\"version\":")
	assert.Contains(t, stdout, "\"go_version\":")
}

func TestVersion_InvalidFormat(t *testing.T) {
	code, _, stderr := runCLI(t, "", CmdNameVersion, "-F", "xml")

	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, ErrMsgInvalidFormat)
}

// ==================== Render command tests ====================

func TestRender_WithDataString(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameRender,
		"-t", filepath.Join(dir, "template.txt"),
		"-d", testDataJSON)

	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, testExpectedOutput, stdout)
}

func TestRender_WithDataFiles(t *testing.T) {
	dir := setupTestData(t)

	tests := map[string]string{
		"data.json": "Hello, Alice!",
		"data.yaml": "Hello, Yaml!",
	}
	for file, want := range tests {
		t.Run(file, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", CmdNameRender,
				"-t", filepath.Join(dir, "template.txt"),
				"-f", filepath.Join(dir, file))

			require.Equal(t, ExitCodeSuccess, code, stderr)
			assert.Equal(t, want, stdout)
		})
	}
}

func TestRender_InlineYAML(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameRender,
		"-t", filepath.Join(dir, "template.txt"),
		"--data-format", DataFormatYAML,
		"-d", "user: Inline")

	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "Hello, Inline!", stdout)
}

func TestRender_FromStdin(t *testing.T) {
	code, stdout, stderr := runCLI(t, "Hi {{user}}", CmdNameRender,
		"-t", InputSourceStdin,
		"-d", testDataJSON)

	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "Hi Alice", stdout)
}

func TestRender_ToOutputFile(t *testing.T) {
	dir := setupTestData(t)
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("stale content that is longer"), FilePermissions))

	code, stdout, stderr := runCLI(t, "", CmdNameRender,
		"-t", filepath.Join(dir, "template.txt"),
		"-d", testDataJSON,
		"-o", out)

	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Empty(t, stdout)
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, testExpectedOutput, string(written))
}

func TestRender_PartialsDirectory(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameRender,
		"-t", filepath.Join(dir, "page.txt"),
		"-p", filepath.Join(dir, "partials"),
		"-d", `{"year": 2024}`)

	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "<main>(c) 2024</main>", stdout)
}

func TestRender_NamedTemplate(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameRender,
		"-n", "footer",
		"-p", filepath.Join(dir, "partials"),
		"-d", `{"year": 1999}`)

	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "(c) 1999", stdout)
}

func TestRender_EngineFlags(t *testing.T) {
	tests := []struct {
		name     string
		template string
		args     []string
		wantCode int
		want     string
	}{
		{"pragma", "{{a.b}}", []string{"--pragma", "DOT-NOTATION", "-d", `{"a":{"b":"deep"}}`}, ExitCodeSuccess, "deep"},
		{"unescaped pragma", "{{h}}", []string{"--pragma", "UNESCAPED", "-d", `{"h":"<b>"}`}, ExitCodeSuccess, "<b>"},
		{"keepraw strategy", "a{{nope}}b", []string{"-e", "unknown_variable=keepraw"}, ExitCodeSuccess, "a{{nope}}b"},
		{"delimiters", "<%user%> {{user}}", []string{"--delimiters", "<% %>", "-d", testDataJSON}, ExitCodeSuccess, "Alice {{user}}"},
		{"strict fails", "a{{nope}}b", []string{"--strict"}, ExitCodeError, ""},
		{"unknown pragma flag", "x", []string{"--pragma", "NOPE"}, ExitCodeError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{CmdNameRender, "-t", InputSourceStdin}, tt.args...)
			code, stdout, stderr := runCLI(t, tt.template, args...)

			require.Equal(t, tt.wantCode, code, stderr)
			if tt.wantCode == ExitCodeSuccess {
				assert.Equal(t, tt.want, stdout)
			}
		})
	}
}

func TestRender_ConfigFile(t *testing.T) {
	dir := setupTestData(t)
	configPath := filepath.Join(dir, "mustache.yaml")
	config := "template_dir: " + filepath.Join(dir, "partials") + "\npragmas: [DOT-NOTATION]\n"
	require.NoError(t, os.WriteFile(configPath, []byte(config), FilePermissions))

	code, stdout, stderr := runCLI(t, "{{>footer}} {{meta.v}}", CmdNameRender,
		"-t", InputSourceStdin,
		"-c", configPath,
		"-d", `{"year": 2001, "meta": {"v": 2}}`)

	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "(c) 2001 2", stdout)
}

func TestRender_UsageErrors(t *testing.T) {
	tests := map[string][]string{
		"missing template":  {},
		"template and name": {"-t", "x", "-n", "y"},
		"bad strategy":      {"-t", "x", "-e", "unknown_variable"},
		"bad class":         {"-t", "x", "-e", "nope=throw"},
		"bad delimiters":    {"-t", "x", "--delimiters", "<%"},
		"bad data format":   {"-t", "x", "--data-format", "xml"},
		"unknown flag":      {"-t", "x", "--bogus"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			code, _, stderr := runCLI(t, "", append([]string{CmdNameRender}, args...)...)
			assert.Equal(t, ExitCodeUsageError, code)
			assert.Contains(t, stderr, ErrMsgInvalidFlags)
		})
	}
}

func TestRender_InputErrors(t *testing.T) {
	dir := setupTestData(t)

	code, _, stderr := runCLI(t, "", CmdNameRender, "-t", filepath.Join(dir, "absent.txt"))
	assert.Equal(t, ExitCodeInputError, code)
	assert.Contains(t, stderr, ErrMsgReadFileFailed)

	code, _, stderr = runCLI(t, "", CmdNameRender,
		"-t", filepath.Join(dir, "template.txt"),
		"--data-format", DataFormatJSON,
		"-d", "{not json")
	assert.Equal(t, ExitCodeInputError, code)
	assert.Contains(t, stderr, ErrMsgInvalidData)
}

// ==================== Validate command tests ====================

func TestValidate_ValidTemplate(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, _ := runCLI(t, "", CmdNameValidate, "-t", filepath.Join(dir, "template.txt"))

	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, ValidationTextSuccess)
}

func TestValidate_InvalidTemplate(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, _ := runCLI(t, "", CmdNameValidate, "-t", filepath.Join(dir, "invalid.txt"))

	assert.Equal(t, ExitCodeValidationError, code)
	assert.Contains(t, stdout, ValidationTextIssueHeader)
	assert.Contains(t, stdout, SeverityNameError)
	assert.Contains(t, stdout, "(open)")
}

func TestValidate_JSONOutput(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, _ := runCLI(t, "", CmdNameValidate,
		"-t", filepath.Join(dir, "invalid.txt"),
		"-F", OutputFormatJSON)

	assert.Equal(t, ExitCodeValidationError, code)
	assert.Contains(t, stdout, `"valid": false`)
	assert.Contains(t, stdout, `"class": "unclosed_section"`)
}

func TestValidate_WarningsAndStrict(t *testing.T) {
	dir := setupTestData(t)
	page := filepath.Join(dir, "page.txt")

	code, stdout, _ := runCLI(t, "", CmdNameValidate, "-t", page)
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, SeverityNameWarning)

	code, _, _ = runCLI(t, "", CmdNameValidate, "-t", page, "--strict")
	assert.Equal(t, ExitCodeValidationError, code)

	code, stdout, _ = runCLI(t, "", CmdNameValidate, "-t", page, "-p", filepath.Join(dir, "partials"), "--strict")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, ValidationTextSuccess)
}

func TestValidate_UsageErrors(t *testing.T) {
	code, _, _ := runCLI(t, "", CmdNameValidate)
	assert.Equal(t, ExitCodeUsageError, code)

	code, _, _ = runCLI(t, "", CmdNameValidate, "-t", "x", "-F", "xml")
	assert.Equal(t, ExitCodeUsageError, code)
}

// ==================== Check command tests ====================

func TestCheck_Match(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameCheck,
		"-t", filepath.Join(dir, "template.txt"),
		"-f", filepath.Join(dir, "data.json"),
		"-x", filepath.Join(dir, "expected.txt"))

	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Contains(t, stdout, CheckTextMatch)
}

func TestCheck_Mismatch(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameCheck,
		"-t", filepath.Join(dir, "template.txt"),
		"-f", filepath.Join(dir, "data.yaml"),
		"-x", filepath.Join(dir, "expected.txt"))

	require.Equal(t, ExitCodeValidationError, code, stderr)
	assert.Contains(t, stdout, ErrMsgOutputMismatch)
	assert.Contains(t, stdout, "-Hello, Alice!")
	assert.Contains(t, stdout, "+Hello, Yaml!")
	assert.NotContains(t, stdout, "\x1b[")
}

func TestCheck_UsageErrors(t *testing.T) {
	code, _, stderr := runCLI(t, "", CmdNameCheck, "-t", "x")
	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, ErrMsgMissingExpected)

	dir := setupTestData(t)
	code, _, _ = runCLI(t, "", CmdNameCheck,
		"-t", filepath.Join(dir, "template.txt"),
		"-x", filepath.Join(dir, "absent.txt"))
	assert.Equal(t, ExitCodeInputError, code)
}

// ==================== Helper tests ====================

func TestDecodeData(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		format  string
		want    map[string]any
		wantErr bool
	}{
		{"json", `{"a": 1}`, DataFormatJSON, map[string]any{"a": float64(1)}, false},
		{"yaml", "a: 1", DataFormatYAML, map[string]any{"a": 1}, false},
		{"auto json", `{"a": "x"}`, DataFormatAuto, map[string]any{"a": "x"}, false},
		{"auto yaml", "a: x", DataFormatAuto, map[string]any{"a": "x"}, false},
		{"null", "null", DataFormatJSON, map[string]any{}, false},
		{"list", "[1, 2]", DataFormatJSON, nil, true},
		{"unknown format", "{}", "toml", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeData([]byte(tt.raw), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadData_NoData(t *testing.T) {
	data, err := loadData("", "", DataFormatAuto)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestParseStrategy(t *testing.T) {
	class, strategy, err := parseStrategy(" unknown_partial = log ")
	require.NoError(t, err)
	assert.Equal(t, "unknown_partial", class.String())
	assert.Equal(t, "log", strategy.String())

	for _, bad := range []string{"", "unknown_partial", "x=log", "unknown_partial=loud"} {
		_, _, err := parseStrategy(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatDiff(t *testing.T) {
	diff := formatDiff("a\nb\nc\n", "a\nB\nc", false)

	assert.True(t, strings.HasPrefix(diff, " a\n"))
	assert.Contains(t, diff, "-b\n")
	assert.Contains(t, diff, "-c\n")
	assert.Contains(t, diff, "+B\n")
	assert.Contains(t, diff, "+c"+NoNewlineMarker+"\n")
	assert.Empty(t, formatDiff("", "", false))

	colored := formatDiff("x\n", "y\n", true)
	assert.Contains(t, colored, "x")
	assert.Contains(t, colored, "y")
}

func TestUseColor(t *testing.T) {
	assert.False(t, useColor(&bytes.Buffer{}, false))
	assert.False(t, useColor(os.Stdout, true))
}
