package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLexer_Tokenize_PlainText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "empty string",
			input: "",
			expected: []Token{
				{Type: TokenTypeEOF, Position: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
		{
			name:  "simple text",
			input: "Hello, world!",
			expected: []Token{
				NewTextToken("Hello, world!", Position{Offset: 0, Line: 1, Column: 1}),
				{Type: TokenTypeEOF, Position: Position{Offset: 13, Line: 1, Column: 14}},
			},
		},
		{
			name:  "multiline text",
			input: "Line 1\nLine 2\nLine 3",
			expected: []Token{
				NewTextToken("Line 1\nLine 2\nLine 3", Position{Offset: 0, Line: 1, Column: 1}),
				{Type: TokenTypeEOF, Position: Position{Offset: 20, Line: 3, Column: 7}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(tt.input, zap.NewNop())
			tokens, err := lexer.Tokenize()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestLexer_Tokenize_Sigils(t *testing.T) {
	tests := []struct {
		input string
		sigil byte
		name  string
	}{
		{"{{name}}", SigilNone, "name"},
		{"{{ name }}", SigilNone, "name"},
		{"{{#items}}", SigilSection, "items"},
		{"{{^items}}", SigilInverted, "items"},
		{"{{/items}}", SigilClose, "items"},
		{"{{! a comment }}", SigilComment, "a comment"},
		{"{{> header}}", SigilPartial, "header"},
		{"{{{html}}}", SigilTriple, "html"},
		{"{{&html}}", SigilAmpersand, "html"},
		{"{{%DOT-NOTATION}}", SigilPragma, "DOT-NOTATION"},
		{"{{=<% %>=}}", SigilDelimiter, "<% %>"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexer := NewLexer(tt.input, nil)
			tok := lexer.Next()
			require.True(t, tok.IsTag(), "expected tag, got %s", tok)
			assert.Equal(t, tt.sigil, tok.Sigil)
			assert.Equal(t, tt.name, tok.Value)
			assert.Equal(t, tt.input, tok.Raw)
			assert.True(t, lexer.Next().IsEOF())
		})
	}
}

func TestLexer_Next_TextAndTags(t *testing.T) {
	lexer := NewLexer("Hello, {{name}}!\nBye", nil)

	tok := lexer.Next()
	assert.Equal(t, NewTextToken("Hello, ", Position{Offset: 0, Line: 1, Column: 1}), tok)

	tok = lexer.Next()
	assert.Equal(t, NewTagToken(SigilNone, "name", "{{name}}", Position{Offset: 7, Line: 1, Column: 8}), tok)

	tok = lexer.Next()
	assert.Equal(t, "!\nBye", tok.Value)

	tok = lexer.Next()
	assert.True(t, tok.IsEOF())
	assert.Equal(t, 2, tok.Position.Line)
}

func TestLexer_LiteralOpenDelimiters(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no close delimiter", "a {{ b"},
		{"close on next line", "a {{b\n}} c"},
		{"empty name", "a {{}} b"},
		{"whitespace name", "a {{  }} b"},
		{"open at end", "a {{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input, nil).Tokenize()
			require.NoError(t, err)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.input, tokens[0].Value)
			assert.True(t, tokens[1].IsEOF())
		})
	}
}

func TestLexer_LiteralThenTag(t *testing.T) {
	tokens, err := NewLexer("{{ oops\n{{x}}", nil).Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "{{ oops\n", tokens[0].Value)
	assert.Equal(t, "x", tokens[1].Value)
	assert.Equal(t, 2, tokens[1].Position.Line)
}

func TestLexer_MultilineComment(t *testing.T) {
	tokens, err := NewLexer("a{{! one\ntwo }}b", nil).Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, SigilComment, tokens[1].Sigil)
	assert.Equal(t, "one\ntwo", tokens[1].Value)
	assert.Equal(t, "b", tokens[2].Value)
	assert.Equal(t, 2, tokens[2].Position.Line)
}

func TestLexer_TripleFallsBackToSingleClose(t *testing.T) {
	tok := NewLexer("{{{x}}", nil).Next()
	require.True(t, tok.IsTag())
	assert.Equal(t, SigilTriple, tok.Sigil)
	assert.Equal(t, "x", tok.Value)
}

func TestLexer_SetDelimiters(t *testing.T) {
	tokens, err := NewLexer("{{=<% %>=}}<%x%>{{y}}", nil).Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, SigilDelimiter, tokens[0].Sigil)
	assert.Equal(t, "x", tokens[1].Value)
	assert.True(t, tokens[1].IsTag())
	assert.Equal(t, "{{y}}", tokens[2].Value)
	assert.True(t, tokens[2].IsText())
}

func TestLexer_SetDelimiters_Manual(t *testing.T) {
	lexer := NewLexer("[[a]] {{b}}", nil)
	lexer.SetDelimiters("[[", "]]")

	open, close := lexer.Delimiters()
	assert.Equal(t, "[[", open)
	assert.Equal(t, "]]", close)

	tok := lexer.Next()
	assert.True(t, tok.IsTag())
	assert.Equal(t, "a", tok.Value)
	assert.Equal(t, " {{b}}", lexer.Next().Value)
}

func TestLexer_Tokenize_InvalidDelimiters(t *testing.T) {
	_, err := NewLexer("{{=<%=}}", nil).Tokenize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDelimiters))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Position.Line)
}

func TestLexer_PragmaConsumesNewline(t *testing.T) {
	tests := []struct {
		input string
		rest  string
	}{
		{"{{%UNESCAPED}}\nbody", "body"},
		{"{{%UNESCAPED}}\r\nbody", "body"},
		{"{{%UNESCAPED}}\n\nbody", "\nbody"},
		{"{{%UNESCAPED}} body", " body"},
	}

	for _, tt := range tests {
		tokens, err := NewLexer(tt.input, nil).Tokenize()
		require.NoError(t, err)
		require.Len(t, tokens, 3)
		assert.Equal(t, tt.rest, tokens[1].Value)
	}
}

func TestParseDelimiters(t *testing.T) {
	tests := []struct {
		input   string
		open    string
		close   string
		wantErr bool
	}{
		{"<% %>", "<%", "%>", false},
		{"  | |  ", "|", "|", false},
		{"<%", "", "", true},
		{"a b c", "", "", true},
		{"<= %>", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			open, close, err := ParseDelimiters(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDelimiters)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.open, open)
			assert.Equal(t, tt.close, close)
		})
	}
}

func TestLexer_SkipWhitespace(t *testing.T) {
	lexer := NewLexer(" \t\r\n x", nil)
	lexer.SkipWhitespace()
	tok := lexer.Next()
	assert.Equal(t, "x", tok.Value)
	assert.Equal(t, 2, tok.Position.Line)
}

func TestToken_String(t *testing.T) {
	pos := Position{Line: 1, Column: 1}
	assert.Contains(t, NewTagToken(SigilSection, "a", "{{#a}}", pos).String(), "#")
	assert.Contains(t, NewTextToken("hi", pos).String(), `"hi"`)
	assert.Contains(t, NewEOFToken(pos).String(), "EOF")
}
