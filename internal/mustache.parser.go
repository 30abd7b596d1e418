package internal

import (
	"strings"

	"go.uber.org/zap"
)

// ParserConfig holds parser configuration
type ParserConfig struct {
	// TrimSectionWhitespace consumes whitespace that directly follows a
	// section open or close tag.
	TrimSectionWhitespace bool
}

// Parser drives a Lexer and builds the node tree. Section matching is
// done with a stack of open section names, so a closer can terminate
// the innermost matching ancestor.
type Parser struct {
	lexer   *Lexer
	config  ParserConfig
	open    []string // Names of the sections currently open
	pending *Token   // Closer handed back to an enclosing section
	pragmas []PragmaDecl
	logger  *zap.Logger
}

// NewParser creates a parser over source using default delimiters
func NewParser(source string, logger *zap.Logger) *Parser {
	return NewParserWithConfig(NewLexer(source, logger), ParserConfig{}, logger)
}

// NewParserWithConfig creates a parser over an existing lexer
func NewParserWithConfig(lexer *Lexer, config ParserConfig, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgParserCreated, zap.Int(LogFieldSource, len(lexer.source)))
	return &Parser{
		lexer:  lexer,
		config: config,
		logger: logger,
	}
}

// Parse produces the AST root node. It only fails for malformed
// set-delimiter tags; unmatched sections become error nodes.
func (p *Parser) Parse() (*RootNode, error) {
	p.logger.Debug(LogMsgParserStart)

	nodes, _, err := p.parseNodes()
	if err != nil {
		return nil, err
	}

	root := &RootNode{Children: nodes, Pragmas: p.pragmas}
	p.logger.Debug(LogMsgParserEnd, zap.Int(LogFieldNodes, len(nodes)))
	return root, nil
}

// Parse is a convenience wrapper around NewParser(...).Parse()
func Parse(source string, logger *zap.Logger) (*RootNode, error) {
	return NewParser(source, logger).Parse()
}

// parseNodes collects nodes until EOF or a closer that names one of the
// open sections. That closer is returned to the caller unconsumed.
func (p *Parser) parseNodes() ([]Node, *Token, error) {
	var nodes []Node

	for {
		tok := p.next()

		switch tok.Type {
		case TokenTypeEOF:
			return nodes, nil, nil
		case TokenTypeText:
			nodes = append(nodes, NewTextNode(tok.Value, tok.Position))
			continue
		}

		switch tok.Sigil {
		case SigilClose:
			if p.isOpen(tok.Value) {
				return nodes, &tok, nil
			}
			p.logger.Debug(LogMsgStrayClose,
				zap.String(LogFieldName, tok.Value),
				zap.Int(LogFieldLine, tok.Position.Line))
			nodes = append(nodes, NewStrayCloseNode(tok.Value, tok.Raw, tok.Position))

		case SigilSection, SigilInverted:
			sectionNodes, err := p.parseSection(tok)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, sectionNodes...)

		case SigilDelimiter:
			open, close, err := ParseDelimiters(tok.Value)
			if err != nil {
				return nil, nil, &ParseError{
					Message:  ErrMsgInvalidDelimiters,
					Detail:   tok.Value,
					Position: tok.Position,
					Cause:    err,
				}
			}
			p.lexer.SetDelimiters(open, close)
			nodes = append(nodes, NewSetDelimiterNode(open, close, tok.Position))

		case SigilPragma:
			decl := parsePragma(tok)
			p.logger.Debug(LogMsgPragmaDeclared, zap.String(LogFieldPragma, decl.Name))
			p.pragmas = append(p.pragmas, decl)
			p.lexer.SkipNewline()

		case SigilComment:
			nodes = append(nodes, NewCommentNode(tok.Value, tok.Position))

		case SigilPartial:
			nodes = append(nodes, NewPartialNode(tok.Value, tok.Raw, tok.Position))

		case SigilTriple, SigilAmpersand:
			nodes = append(nodes, NewVariableNode(tok.Value, true, tok.Raw, tok.Position))

		default:
			nodes = append(nodes, NewVariableNode(tok.Value, false, tok.Raw, tok.Position))
		}
	}
}

// parseSection parses the body of a section opener. A matched section is
// returned as a single SectionNode; an unmatched one as an
// UnclosedSectionNode followed by the body nodes.
func (p *Parser) parseSection(openTok Token) ([]Node, error) {
	name := openTok.Value
	inverted := openTok.Sigil == SigilInverted
	savedOpen, savedClose := p.lexer.Delimiters()

	if p.config.TrimSectionWhitespace {
		p.lexer.SkipWhitespace()
	}

	p.open = append(p.open, name)
	children, closer, err := p.parseNodes()
	p.open = p.open[:len(p.open)-1]
	if err != nil {
		return nil, err
	}

	if closer != nil && closer.Value == name {
		p.lexer.SetDelimiters(savedOpen, savedClose)
		if p.config.TrimSectionWhitespace {
			p.lexer.SkipWhitespace()
		}
		return []Node{NewSectionNode(name, inverted, children, openTok.Raw, openTok.Position)}, nil
	}

	// Either EOF or a closer for an enclosing section: this one stays open.
	p.logger.Debug(LogMsgUnclosedSection,
		zap.String(LogFieldName, name),
		zap.Int(LogFieldLine, openTok.Position.Line))
	p.pending = closer

	nodes := make([]Node, 0, len(children)+1)
	nodes = append(nodes, NewUnclosedSectionNode(name, inverted, openTok.Raw, openTok.Position))
	return append(nodes, children...), nil
}

// next returns a pending closer, if any, before reading from the lexer
func (p *Parser) next() Token {
	if p.pending != nil {
		tok := *p.pending
		p.pending = nil
		return tok
	}
	return p.lexer.Next()
}

// isOpen reports whether name is one of the currently open sections
func (p *Parser) isOpen(name string) bool {
	for i := len(p.open) - 1; i >= 0; i-- {
		if p.open[i] == name {
			return true
		}
	}
	return false
}

// parsePragma splits "NAME key=value flag" into a declaration. Options
// without "=" are recorded with an empty value.
func parsePragma(tok Token) PragmaDecl {
	fields := strings.Fields(tok.Value)
	decl := PragmaDecl{
		Raw:      tok.Raw,
		Position: tok.Position,
	}
	if len(fields) == 0 {
		return decl
	}
	decl.Name = fields[0]
	if len(fields) > 1 {
		decl.Options = make(map[string]string, len(fields)-1)
		for _, f := range fields[1:] {
			key, value, _ := strings.Cut(f, string(CharEquals))
			decl.Options[key] = value
		}
	}
	return decl
}
