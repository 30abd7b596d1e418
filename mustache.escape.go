package mustache

import (
	"strings"

	"github.com/aymerick/raymond"
	"github.com/itsatony/go-mustache/internal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Escaper escapes variable output that is not explicitly unescaped.
type Escaper interface {
	Escape(s string) string
}

// EscaperFunc adapts a function to Escaper
type EscaperFunc func(string) string

// Escape calls f
func (f EscaperFunc) Escape(s string) string {
	return f(s)
}

var (
	// NoEscaper passes text through unchanged.
	NoEscaper Escaper = EscaperFunc(func(s string) string { return s })

	// HandlebarsEscaper escapes the way Handlebars does, which also covers
	// single quotes, backticks and equals signs.
	HandlebarsEscaper Escaper = EscaperFunc(raymond.Escape)
)

// HTMLEscaper escapes &, <, > and " for a target charset. Runes the
// charset cannot represent are written as numeric character references.
type HTMLEscaper struct {
	charset string
	enc     encoding.Encoding // nil for UTF-8
}

// NewHTMLEscaper creates an escaper for the named charset ("UTF-8",
// "ISO-8859-1", "windows-1252", ...). An empty name means UTF-8.
func NewHTMLEscaper(charset string) (*HTMLEscaper, error) {
	if charset == "" || isUTF8(charset) {
		return &HTMLEscaper{charset: DefaultCharset}, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, NewConfigError(ErrMsgUnknownCharset, MetaKeyCharset, charset)
	}
	return &HTMLEscaper{charset: charset, enc: enc}, nil
}

// Charset returns the charset the escaper targets
func (e *HTMLEscaper) Charset() string {
	return e.charset
}

// Escape implements Escaper
func (e *HTMLEscaper) Escape(s string) string {
	escaped := internal.EscapeHTML(s)
	if e.enc == nil {
		return escaped
	}

	// Round-trip through the charset so unsupported runes become &#NNN;.
	// Encoders carry state, so each call gets its own.
	encoded, err := encoding.HTMLEscapeUnsupported(e.enc.NewEncoder()).String(escaped)
	if err != nil {
		return escaped
	}
	decoded, err := e.enc.NewDecoder().String(encoded)
	if err != nil {
		return escaped
	}
	return decoded
}

func isUTF8(charset string) bool {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8":
		return true
	}
	return false
}
