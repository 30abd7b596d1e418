package internal

import (
	"strings"

	"go.uber.org/zap"
)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	OpenDelim  string // Opening delimiter (default: "{{")
	CloseDelim string // Closing delimiter (default: "}}")
}

// DefaultLexerConfig returns the default lexer configuration
func DefaultLexerConfig() LexerConfig {
	return LexerConfig{
		OpenDelim:  DefaultOpenDelim,
		CloseDelim: DefaultCloseDelim,
	}
}

// Lexer splits template source into text and tag tokens. The delimiters
// are mutable: a caller that sees a set-delimiter tag calls SetDelimiters
// and every following token is recognised under the new pair.
type Lexer struct {
	source string
	config LexerConfig
	pos    int // Current byte position
	line   int // Current line (1-indexed)
	column int // Current column (1-indexed)
	logger *zap.Logger
}

// NewLexer creates a new lexer with default configuration
func NewLexer(source string, logger *zap.Logger) *Lexer {
	return NewLexerWithConfig(source, DefaultLexerConfig(), logger)
}

// NewLexerWithConfig creates a lexer with custom configuration
func NewLexerWithConfig(source string, config LexerConfig, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{
		source: source,
		config: config,
		pos:    0,
		line:   1,
		column: 1,
		logger: logger,
	}
}

// Delimiters returns the delimiters currently in effect
func (l *Lexer) Delimiters() (string, string) {
	return l.config.OpenDelim, l.config.CloseDelim
}

// SetDelimiters changes the delimiters for every following token
func (l *Lexer) SetDelimiters(open, close string) {
	l.config.OpenDelim = open
	l.config.CloseDelim = close
	l.logger.Debug(LogMsgDelimitersChanged,
		zap.String(LogFieldOpen, open),
		zap.String(LogFieldClose, close),
		zap.Int(LogFieldLine, l.line))
}

// Next returns the next token. Text runs are returned whole; an open
// delimiter that does not start a complete tag is part of the text.
func (l *Lexer) Next() Token {
	if l.isAtEnd() {
		return NewEOFToken(l.currentPosition())
	}

	start := l.pos
	startPos := l.currentPosition()
	searchFrom := l.pos

	for {
		idx := strings.Index(l.source[searchFrom:], l.config.OpenDelim)
		if idx < 0 {
			l.advanceTo(len(l.source))
			return NewTextToken(l.source[start:], startPos)
		}

		at := searchFrom + idx
		sigil, name, end, ok := l.matchTag(at)
		if !ok {
			searchFrom = at + len(l.config.OpenDelim)
			continue
		}

		if at > start {
			l.advanceTo(at)
			return NewTextToken(l.source[start:at], startPos)
		}

		raw := l.source[at:end]
		l.advanceTo(end)
		return NewTagToken(sigil, name, raw, startPos)
	}
}

// Tokenize scans the whole source, applying set-delimiter tags as they
// appear and dropping the newline that follows a pragma tag.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.IsEOF() {
			return tokens, nil
		}
		if !tok.IsTag() {
			continue
		}
		switch tok.Sigil {
		case SigilDelimiter:
			open, close, err := ParseDelimiters(tok.Value)
			if err != nil {
				return nil, &ParseError{
					Message:  ErrMsgInvalidDelimiters,
					Detail:   tok.Value,
					Position: tok.Position,
					Cause:    err,
				}
			}
			l.SetDelimiters(open, close)
		case SigilPragma:
			l.SkipNewline()
		}
	}
}

// SkipNewline consumes a single "\n" or "\r\n" at the current position
func (l *Lexer) SkipNewline() {
	if l.matchStr("\r\n") {
		l.advanceTo(l.pos + 2)
	} else if l.matchStr("\n") {
		l.advanceTo(l.pos + 1)
	}
}

// SkipWhitespace consumes spaces, tabs and line breaks
func (l *Lexer) SkipWhitespace() {
	for !l.isAtEnd() {
		ch := l.source[l.pos]
		if ch != CharSpace && ch != CharTab && ch != CharNewline && ch != CharCarriageRet {
			return
		}
		l.advance()
	}
}

// matchTag reports whether a complete tag starts at offset at, without
// moving the lexer. end is the offset just past the close delimiter.
func (l *Lexer) matchTag(at int) (sigil byte, name string, end int, ok bool) {
	contentStart := at + len(l.config.OpenDelim)
	if contentStart >= len(l.source) {
		return SigilNone, "", 0, false
	}

	sigil = SigilNone
	if isSigil(l.source[contentStart]) {
		sigil = l.source[contentStart]
		contentStart++
	}

	closeDelim := l.config.CloseDelim
	contentEnd := -1

	switch sigil {
	case SigilTriple:
		if i := l.indexOnLine(contentStart, string(SigilTripleEnd)+closeDelim); i >= 0 {
			contentEnd, end = i, i+1+len(closeDelim)
		}
	case SigilDelimiter:
		if i := l.indexOnLine(contentStart, string(SigilDelimiter)+closeDelim); i >= 0 {
			contentEnd, end = i, i+1+len(closeDelim)
		}
	case SigilComment:
		if i := strings.Index(l.source[contentStart:], closeDelim); i >= 0 {
			contentEnd, end = contentStart+i, contentStart+i+len(closeDelim)
		}
	}

	if contentEnd < 0 && sigil != SigilComment {
		if i := l.indexOnLine(contentStart, closeDelim); i >= 0 {
			contentEnd, end = i, i+len(closeDelim)
		}
	}
	if contentEnd < 0 {
		return SigilNone, "", 0, false
	}

	name = strings.TrimSpace(l.source[contentStart:contentEnd])
	if name == "" && sigil != SigilComment {
		return SigilNone, "", 0, false
	}
	return sigil, name, end, true
}

// indexOnLine finds pattern at or after from without crossing a newline.
func (l *Lexer) indexOnLine(from int, pattern string) int {
	i := strings.Index(l.source[from:], pattern)
	if i < 0 {
		return -1
	}
	if strings.IndexByte(l.source[from:from+i], CharNewline) >= 0 {
		return -1
	}
	return from + i
}

// ParseDelimiters parses the body of a set-delimiter tag ("<% %>").
func ParseDelimiters(content string) (string, string, error) {
	parts := strings.Fields(content)
	if len(parts) != 2 {
		return "", "", ErrInvalidDelimiters
	}
	for _, p := range parts {
		if strings.ContainsRune(p, CharEquals) {
			return "", "", ErrInvalidDelimiters
		}
	}
	return parts[0], parts[1], nil
}

// Helper methods

// currentPosition returns the current position
func (l *Lexer) currentPosition() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

// isAtEnd returns true if we've reached the end of source
func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

// advance consumes and returns the current character
func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	if ch == CharNewline {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

// advanceTo advances up to the given offset
func (l *Lexer) advanceTo(offset int) {
	for l.pos < offset && !l.isAtEnd() {
		l.advance()
	}
}

// matchStr returns true if the remaining source starts with s
func (l *Lexer) matchStr(s string) bool {
	return strings.HasPrefix(l.source[l.pos:], s)
}

func isSigil(ch byte) bool {
	switch ch {
	case SigilSection, SigilInverted, SigilClose, SigilDelimiter, SigilComment,
		SigilPartial, SigilTriple, SigilAmpersand, SigilPragma:
		return true
	default:
		return false
	}
}
