package internal

import (
	"errors"
	"fmt"
)

// ErrorClass identifies a category of render failure that can be
// configured independently.
type ErrorClass int

const (
	// ErrorClassUnknownVariable is raised when a name resolves in no frame.
	ErrorClassUnknownVariable ErrorClass = iota
	// ErrorClassUnclosedSection is raised for a section opener with no closer.
	ErrorClassUnclosedSection
	// ErrorClassUnexpectedCloseSection is raised for a closer with no opener.
	ErrorClassUnexpectedCloseSection
	// ErrorClassUnknownPartial is raised when a partial cannot be found.
	ErrorClassUnknownPartial
	// ErrorClassUnknownPragma is raised for an unrecognised pragma name.
	ErrorClassUnknownPragma
	// ErrorClassPartialRecursion is raised when partial nesting exceeds the maximum depth.
	ErrorClassPartialRecursion
)

// Error class names
const (
	ErrorClassNameUnknownVariable        = "unknown_variable"
	ErrorClassNameUnclosedSection        = "unclosed_section"
	ErrorClassNameUnexpectedCloseSection = "unexpected_close_section"
	ErrorClassNameUnknownPartial         = "unknown_partial"
	ErrorClassNameUnknownPragma          = "unknown_pragma"
	ErrorClassNamePartialRecursion       = "partial_recursion"
	ErrorClassNameUnknown                = "unknown"
)

// AllErrorClasses lists every configurable class in declaration order.
var AllErrorClasses = []ErrorClass{
	ErrorClassUnknownVariable,
	ErrorClassUnclosedSection,
	ErrorClassUnexpectedCloseSection,
	ErrorClassUnknownPartial,
	ErrorClassUnknownPragma,
	ErrorClassPartialRecursion,
}

// String returns the configuration name of the class
func (c ErrorClass) String() string {
	switch c {
	case ErrorClassUnknownVariable:
		return ErrorClassNameUnknownVariable
	case ErrorClassUnclosedSection:
		return ErrorClassNameUnclosedSection
	case ErrorClassUnexpectedCloseSection:
		return ErrorClassNameUnexpectedCloseSection
	case ErrorClassUnknownPartial:
		return ErrorClassNameUnknownPartial
	case ErrorClassUnknownPragma:
		return ErrorClassNameUnknownPragma
	case ErrorClassPartialRecursion:
		return ErrorClassNamePartialRecursion
	default:
		return ErrorClassNameUnknown
	}
}

// ParseErrorClass parses a class name. Returns false for unknown names.
func ParseErrorClass(s string) (ErrorClass, bool) {
	for _, c := range AllErrorClasses {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// Sentinel returns the sentinel error for the class
func (c ErrorClass) Sentinel() error {
	switch c {
	case ErrorClassUnknownVariable:
		return ErrUnknownVariable
	case ErrorClassUnclosedSection:
		return ErrUnclosedSection
	case ErrorClassUnexpectedCloseSection:
		return ErrUnexpectedCloseSection
	case ErrorClassUnknownPartial:
		return ErrUnknownPartial
	case ErrorClassUnknownPragma:
		return ErrUnknownPragma
	case ErrorClassPartialRecursion:
		return ErrPartialRecursion
	default:
		return nil
	}
}

// ErrorStrategy defines how a render error of a given class is handled.
type ErrorStrategy int

const (
	// ErrorStrategyThrow stops the render and returns the error
	ErrorStrategyThrow ErrorStrategy = iota
	// ErrorStrategyRemove substitutes an empty string silently
	ErrorStrategyRemove
	// ErrorStrategyLog logs a warning and substitutes an empty string
	ErrorStrategyLog
	// ErrorStrategyKeepRaw keeps the original tag text in the output
	ErrorStrategyKeepRaw
)

// Error strategy names
const (
	ErrorStrategyNameThrow   = "throw"
	ErrorStrategyNameRemove  = "remove"
	ErrorStrategyNameLog     = "log"
	ErrorStrategyNameKeepRaw = "keepraw"
)

// String returns the string representation of the error strategy
func (s ErrorStrategy) String() string {
	switch s {
	case ErrorStrategyRemove:
		return ErrorStrategyNameRemove
	case ErrorStrategyLog:
		return ErrorStrategyNameLog
	case ErrorStrategyKeepRaw:
		return ErrorStrategyNameKeepRaw
	default:
		return ErrorStrategyNameThrow
	}
}

// ParseErrorStrategy parses a strategy name. Returns false for unknown names.
func ParseErrorStrategy(s string) (ErrorStrategy, bool) {
	switch s {
	case ErrorStrategyNameThrow:
		return ErrorStrategyThrow, true
	case ErrorStrategyNameRemove:
		return ErrorStrategyRemove, true
	case ErrorStrategyNameLog:
		return ErrorStrategyLog, true
	case ErrorStrategyNameKeepRaw:
		return ErrorStrategyKeepRaw, true
	default:
		return ErrorStrategyThrow, false
	}
}

// ErrorPolicy maps each error class to its strategy.
type ErrorPolicy map[ErrorClass]ErrorStrategy

// DefaultErrorPolicy returns the default enablement of every class.
func DefaultErrorPolicy() ErrorPolicy {
	return ErrorPolicy{
		ErrorClassUnknownVariable:        ErrorStrategyRemove,
		ErrorClassUnclosedSection:        ErrorStrategyThrow,
		ErrorClassUnexpectedCloseSection: ErrorStrategyThrow,
		ErrorClassUnknownPartial:         ErrorStrategyRemove,
		ErrorClassUnknownPragma:          ErrorStrategyThrow,
		ErrorClassPartialRecursion:       ErrorStrategyThrow,
	}
}

// Strategy returns the strategy for a class, throwing for unconfigured classes.
func (p ErrorPolicy) Strategy(c ErrorClass) ErrorStrategy {
	if p == nil {
		return DefaultErrorPolicy()[c]
	}
	if s, ok := p[c]; ok {
		return s
	}
	return ErrorStrategyThrow
}

// Clone returns a copy of the policy
func (p ErrorPolicy) Clone() ErrorPolicy {
	out := make(ErrorPolicy, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Sentinel errors
var (
	ErrUnknownVariable        = errors.New(ErrMsgUnknownVariable)
	ErrUnclosedSection        = errors.New(ErrMsgUnclosedSection)
	ErrUnexpectedCloseSection = errors.New(ErrMsgUnexpectedCloseSection)
	ErrUnknownPartial         = errors.New(ErrMsgUnknownPartial)
	ErrUnknownPragma          = errors.New(ErrMsgUnknownPragma)
	ErrPartialRecursion       = errors.New(ErrMsgPartialRecursion)
	ErrInvalidDelimiters      = errors.New(ErrMsgInvalidDelimiters)
	ErrAccessorFailed         = errors.New(ErrMsgAccessorFailed)
	ErrPopRootFrame           = errors.New(ErrMsgPopRootFrame)
)

// Error message constants
const (
	ErrMsgUnknownVariable        = "unknown variable"
	ErrMsgUnclosedSection        = "unclosed section"
	ErrMsgUnexpectedCloseSection = "unexpected close section"
	ErrMsgUnknownPartial         = "unknown partial"
	ErrMsgUnknownPragma          = "unknown pragma"
	ErrMsgPartialRecursion       = "maximum partial depth exceeded"
	ErrMsgInvalidDelimiters      = "invalid delimiters"
	ErrMsgAccessorFailed         = "accessor failed"
	ErrMsgPopRootFrame           = "cannot pop the root context frame"
	ErrMsgUnknownNodeType        = "unknown node type"
)

// RenderError is a classified failure raised while interpreting a template.
type RenderError struct {
	Class    ErrorClass
	Name     string
	Position Position
}

// NewRenderError creates a render error for a class
func NewRenderError(class ErrorClass, name string, pos Position) *RenderError {
	return &RenderError{
		Class:    class,
		Name:     name,
		Position: pos,
	}
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	msg := ErrMsgUnknownNodeType
	if sentinel := e.Class.Sentinel(); sentinel != nil {
		msg = sentinel.Error()
	}
	if e.Name != StringValueEmpty {
		return fmt.Sprintf(ErrFmtWithName, msg, e.Name, e.Position.String())
	}
	return fmt.Sprintf(ErrFmtWithPosition, msg, e.Position.String())
}

// Is matches the class sentinel
func (e *RenderError) Is(target error) bool {
	sentinel := e.Class.Sentinel()
	return sentinel != nil && target == sentinel
}

// ParseError represents a structural failure while building the node tree.
type ParseError struct {
	Message  string
	Detail   string
	Position Position
	Cause    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	result := fmt.Sprintf(ErrFmtWithPosition, e.Message, e.Position.String())
	if e.Detail != StringValueEmpty {
		result = fmt.Sprintf(ErrFmtWithName, e.Message, e.Detail, e.Position.String())
	}
	if e.Cause != nil {
		result = fmt.Sprintf(ErrFmtWithCause, result, e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// AccessorError wraps an error returned by a zero-argument accessor.
type AccessorError struct {
	Name  string
	Cause error
}

// Error implements the error interface.
func (e *AccessorError) Error() string {
	return fmt.Sprintf(ErrFmtWithCause, ErrMsgAccessorFailed+": "+e.Name, e.Cause)
}

// Unwrap returns the accessor's error.
func (e *AccessorError) Unwrap() error {
	return e.Cause
}

// Is matches ErrAccessorFailed
func (e *AccessorError) Is(target error) bool {
	return target == ErrAccessorFailed
}
