package internal

import (
	"fmt"
	"sort"
	"strings"
)

// NodeType identifies AST node types
type NodeType int

// Node type constants
const (
	NodeTypeRoot NodeType = iota
	NodeTypeText
	NodeTypeVariable
	NodeTypeSection
	NodeTypePartial
	NodeTypeComment
	NodeTypeSetDelimiter
	NodeTypeUnclosedSection
	NodeTypeStrayClose
)

// Node type names
const (
	NodeTypeNameRoot            = "ROOT"
	NodeTypeNameText            = "TEXT"
	NodeTypeNameVariable        = "VARIABLE"
	NodeTypeNameSection         = "SECTION"
	NodeTypeNamePartial         = "PARTIAL"
	NodeTypeNameComment         = "COMMENT"
	NodeTypeNameSetDelimiter    = "SET_DELIMITER"
	NodeTypeNameUnclosedSection = "UNCLOSED_SECTION"
	NodeTypeNameStrayClose      = "STRAY_CLOSE"
	NodeTypeNameUnknown         = "UNKNOWN"
)

// String returns the string representation of the node type
func (t NodeType) String() string {
	switch t {
	case NodeTypeRoot:
		return NodeTypeNameRoot
	case NodeTypeText:
		return NodeTypeNameText
	case NodeTypeVariable:
		return NodeTypeNameVariable
	case NodeTypeSection:
		return NodeTypeNameSection
	case NodeTypePartial:
		return NodeTypeNamePartial
	case NodeTypeComment:
		return NodeTypeNameComment
	case NodeTypeSetDelimiter:
		return NodeTypeNameSetDelimiter
	case NodeTypeUnclosedSection:
		return NodeTypeNameUnclosedSection
	case NodeTypeStrayClose:
		return NodeTypeNameStrayClose
	default:
		return NodeTypeNameUnknown
	}
}

// Node is the interface all AST nodes implement
type Node interface {
	// Type returns the node type identifier
	Type() NodeType
	// Pos returns the source position of this node
	Pos() Position
	// String returns a human-readable representation
	String() string
}

// PragmaDecl is a pragma declared anywhere in a template
type PragmaDecl struct {
	Name     string
	Options  map[string]string
	Raw      string
	Position Position
}

// OptionKeys returns the option names in sorted order
func (d PragmaDecl) OptionKeys() []string {
	keys := make([]string, 0, len(d.Options))
	for k := range d.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RootNode is the top-level container for an AST. Pragmas holds every
// pragma tag found in the template, in source order.
type RootNode struct {
	Children []Node
	Pragmas  []PragmaDecl
}

// Type returns NodeTypeRoot
func (n *RootNode) Type() NodeType {
	return NodeTypeRoot
}

// Pos returns a zero position (root has no specific position)
func (n *RootNode) Pos() Position {
	return Position{Offset: 0, Line: 1, Column: 1}
}

// String returns a string representation of the root node
func (n *RootNode) String() string {
	var sb strings.Builder
	sb.WriteString("RootNode{\n")
	for _, decl := range n.Pragmas {
		sb.WriteString(fmt.Sprintf("  pragma %s @ %s\n", decl.Name, decl.Position))
	}
	for i, child := range n.Children {
		sb.WriteString(fmt.Sprintf("  [%d] %s\n", i, child.String()))
	}
	sb.WriteString("}")
	return sb.String()
}

// TextNode represents literal text content
type TextNode struct {
	pos     Position
	Content string
}

// Type returns NodeTypeText
func (n *TextNode) Type() NodeType {
	return NodeTypeText
}

// Pos returns the source position
func (n *TextNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *TextNode) String() string {
	return fmt.Sprintf("TextNode{%q @ %s}", truncate(n.Content), n.pos)
}

// NewTextNode creates a new text node
func NewTextNode(content string, pos Position) *TextNode {
	return &TextNode{
		pos:     pos,
		Content: content,
	}
}

// VariableNode is a {{name}}, {{{name}}} or {{&name}} tag
type VariableNode struct {
	pos       Position
	Name      string
	Unescaped bool   // Triple mustache or ampersand
	Raw       string // Original tag source for the keepraw strategy
}

// Type returns NodeTypeVariable
func (n *VariableNode) Type() NodeType {
	return NodeTypeVariable
}

// Pos returns the source position
func (n *VariableNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *VariableNode) String() string {
	if n.Unescaped {
		return fmt.Sprintf("VariableNode{%s, unescaped @ %s}", n.Name, n.pos)
	}
	return fmt.Sprintf("VariableNode{%s @ %s}", n.Name, n.pos)
}

// NewVariableNode creates a new variable node
func NewVariableNode(name string, unescaped bool, raw string, pos Position) *VariableNode {
	return &VariableNode{
		pos:       pos,
		Name:      name,
		Unescaped: unescaped,
		Raw:       raw,
	}
}

// SectionNode is a matched {{#name}}...{{/name}} or {{^name}}...{{/name}} block
type SectionNode struct {
	pos      Position
	Name     string
	Inverted bool
	Children []Node
	Raw      string // Original opening tag source
}

// Type returns NodeTypeSection
func (n *SectionNode) Type() NodeType {
	return NodeTypeSection
}

// Pos returns the source position
func (n *SectionNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *SectionNode) String() string {
	kind := "section"
	if n.Inverted {
		kind = "inverted"
	}
	return fmt.Sprintf("SectionNode{%s, %s, children=%d @ %s}", n.Name, kind, len(n.Children), n.pos)
}

// NewSectionNode creates a new section node
func NewSectionNode(name string, inverted bool, children []Node, raw string, pos Position) *SectionNode {
	return &SectionNode{
		pos:      pos,
		Name:     name,
		Inverted: inverted,
		Children: children,
		Raw:      raw,
	}
}

// PartialNode is a {{>name}} tag
type PartialNode struct {
	pos  Position
	Name string
	Raw  string
}

// Type returns NodeTypePartial
func (n *PartialNode) Type() NodeType {
	return NodeTypePartial
}

// Pos returns the source position
func (n *PartialNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *PartialNode) String() string {
	return fmt.Sprintf("PartialNode{%s @ %s}", n.Name, n.pos)
}

// NewPartialNode creates a new partial node
func NewPartialNode(name, raw string, pos Position) *PartialNode {
	return &PartialNode{
		pos:  pos,
		Name: name,
		Raw:  raw,
	}
}

// CommentNode is a {{! ...}} tag; it renders nothing
type CommentNode struct {
	pos     Position
	Content string
}

// Type returns NodeTypeComment
func (n *CommentNode) Type() NodeType {
	return NodeTypeComment
}

// Pos returns the source position
func (n *CommentNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *CommentNode) String() string {
	return fmt.Sprintf("CommentNode{%q @ %s}", truncate(n.Content), n.pos)
}

// NewCommentNode creates a new comment node
func NewCommentNode(content string, pos Position) *CommentNode {
	return &CommentNode{
		pos:     pos,
		Content: content,
	}
}

// SetDelimiterNode records a {{=open close=}} tag. The switch itself
// happens during parsing; the node renders nothing.
type SetDelimiterNode struct {
	pos   Position
	Open  string
	Close string
}

// Type returns NodeTypeSetDelimiter
func (n *SetDelimiterNode) Type() NodeType {
	return NodeTypeSetDelimiter
}

// Pos returns the source position
func (n *SetDelimiterNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *SetDelimiterNode) String() string {
	return fmt.Sprintf("SetDelimiterNode{%s %s @ %s}", n.Open, n.Close, n.pos)
}

// NewSetDelimiterNode creates a new set-delimiter node
func NewSetDelimiterNode(open, close string, pos Position) *SetDelimiterNode {
	return &SetDelimiterNode{
		pos:   pos,
		Open:  open,
		Close: close,
	}
}

// UnclosedSectionNode marks a section opener that has no closer. The
// tokens that followed it are parsed as its siblings.
type UnclosedSectionNode struct {
	pos      Position
	Name     string
	Inverted bool
	Raw      string
}

// Type returns NodeTypeUnclosedSection
func (n *UnclosedSectionNode) Type() NodeType {
	return NodeTypeUnclosedSection
}

// Pos returns the source position
func (n *UnclosedSectionNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *UnclosedSectionNode) String() string {
	return fmt.Sprintf("UnclosedSectionNode{%s @ %s}", n.Name, n.pos)
}

// NewUnclosedSectionNode creates a new unclosed section node
func NewUnclosedSectionNode(name string, inverted bool, raw string, pos Position) *UnclosedSectionNode {
	return &UnclosedSectionNode{
		pos:      pos,
		Name:     name,
		Inverted: inverted,
		Raw:      raw,
	}
}

// StrayCloseNode marks a {{/name}} with no open section to close
type StrayCloseNode struct {
	pos  Position
	Name string
	Raw  string
}

// Type returns NodeTypeStrayClose
func (n *StrayCloseNode) Type() NodeType {
	return NodeTypeStrayClose
}

// Pos returns the source position
func (n *StrayCloseNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *StrayCloseNode) String() string {
	return fmt.Sprintf("StrayCloseNode{%s @ %s}", n.Name, n.pos)
}

// NewStrayCloseNode creates a new stray close node
func NewStrayCloseNode(name, raw string, pos Position) *StrayCloseNode {
	return &StrayCloseNode{
		pos:  pos,
		Name: name,
		Raw:  raw,
	}
}

// Walk visits n and its descendants depth-first. Returning false from
// fn stops descent into that node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch node := n.(type) {
	case *RootNode:
		for _, child := range node.Children {
			Walk(child, fn)
		}
	case *SectionNode:
		for _, child := range node.Children {
			Walk(child, fn)
		}
	}
}

func truncate(s string) string {
	if len(s) > MaxStringDisplayLength {
		return s[:TruncatedStringLength] + TruncationSuffix
	}
	return s
}
