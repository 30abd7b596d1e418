package mustache

import (
	"context"
	"testing"

	"github.com/aymerick/raymond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLEscaper(t *testing.T) {
	tests := []struct {
		name    string
		charset string
		input   string
		want    string
	}{
		{"utf8 markup", "UTF-8", `<a href="x">&</a>`, `&lt;a href=&quot;x&quot;&gt;&amp;&lt;/a&gt;`},
		{"utf8 keeps single quote", "", `it's`, `it's`},
		{"utf8 keeps non-ascii", "utf8", "café ☃", "café ☃"},
		{"latin1 keeps representable", "ISO-8859-1", "café", "café"},
		{"latin1 encodes snowman", "ISO-8859-1", "a☃b", "a&#9731;b"},
		{"windows-1252", "windows-1252", "€<", "€&lt;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewHTMLEscaper(tt.charset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Escape(tt.input))
		})
	}
}

func TestHTMLEscaper_UnknownCharset(t *testing.T) {
	_, err := NewHTMLEscaper("no-such-charset")
	require.Error(t, err)

	_, err = New(WithCharset("no-such-charset"))
	assert.Error(t, err)
}

func TestHTMLEscaper_Charset(t *testing.T) {
	e, err := NewHTMLEscaper("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCharset, e.Charset())
}

func TestEscapers(t *testing.T) {
	assert.Equal(t, "<x>", NoEscaper.Escape("<x>"))
	assert.Equal(t, "&lt;x&gt;", HandlebarsEscaper.Escape("<x>"))
	assert.NotEqual(t, "'", HandlebarsEscaper.Escape("'"))

	upper := EscaperFunc(func(s string) string { return "[" + s + "]" })
	engine := MustNew(WithEscaper(upper))
	out, err := engine.Render(context.Background(), "{{a}}{{{a}}}", map[string]any{"a": "v"})
	require.NoError(t, err)
	assert.Equal(t, "[v]v", out)
}

// Simple variable and section templates render the same way under
// Handlebars when both sides escape with the Handlebars rules.
func TestHandlebarsCompatibility(t *testing.T) {
	engine := MustNew(WithEscaper(HandlebarsEscaper))
	ctx := context.Background()

	templates := []string{
		"Hello {{name}}!",
		"{{{html}}} vs {{html}}",
		"{{#people}}<{{name}}>{{/people}}",
		"{{#flag}}on{{/flag}}{{^flag}}off{{/flag}}",
		"{{#user}}{{name}} ({{age}}){{/user}}",
	}
	data := map[string]any{
		"name":   "O'Neil & Sons",
		"html":   "<b>bold</b>",
		"people": []map[string]any{{"name": "a"}, {"name": "b"}},
		"flag":   false,
		"user":   map[string]any{"name": "Ada", "age": 36},
	}

	for _, src := range templates {
		t.Run(src, func(t *testing.T) {
			want, err := raymond.Render(src, data)
			require.NoError(t, err)

			got, err := engine.Render(ctx, src, data)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}
