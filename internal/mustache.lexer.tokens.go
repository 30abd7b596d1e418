package internal

import "fmt"

// Position represents a location in the source template
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// TokenType represents the type of a lexical token
type TokenType string

// Token type constants
const (
	TokenTypeText TokenType = "TEXT"
	TokenTypeTag  TokenType = "TAG"
	TokenTypeEOF  TokenType = "EOF"
)

// Token is a run of literal text or one complete tag.
type Token struct {
	Type     TokenType
	Sigil    byte     // Tag sigil, SigilNone for plain variables
	Value    string   // Text content, or the trimmed tag name
	Raw      string   // Exact source of the token
	Position Position // Source position of the first byte
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	if t.Type == TokenTypeTag {
		if t.Sigil == SigilNone {
			return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
		}
		return fmt.Sprintf("Token{%s %c: %q @ %s}", t.Type, t.Sigil, t.Value, t.Position)
	}
	if t.Value == "" {
		return fmt.Sprintf("Token{%s @ %s}", t.Type, t.Position)
	}
	return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
}

// IsEOF returns true if this is an end-of-file token
func (t Token) IsEOF() bool {
	return t.Type == TokenTypeEOF
}

// IsText returns true if this is a text token
func (t Token) IsText() bool {
	return t.Type == TokenTypeText
}

// IsTag returns true if this is a tag token
func (t Token) IsTag() bool {
	return t.Type == TokenTypeTag
}

// NewTextToken creates a text token with the given content
func NewTextToken(content string, pos Position) Token {
	return Token{
		Type:     TokenTypeText,
		Value:    content,
		Raw:      content,
		Position: pos,
	}
}

// NewTagToken creates a tag token
func NewTagToken(sigil byte, name, raw string, pos Position) Token {
	return Token{
		Type:     TokenTypeTag,
		Sigil:    sigil,
		Value:    name,
		Raw:      raw,
		Position: pos,
	}
}

// NewEOFToken creates an EOF token at the given position
func NewEOFToken(pos Position) Token {
	return Token{
		Type:     TokenTypeEOF,
		Position: pos,
	}
}
