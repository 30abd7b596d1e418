package mustache

import (
	"context"
	"errors"
	"strconv"

	"github.com/itsatony/go-cuserr"
	"github.com/itsatony/go-mustache/internal"
)

// Error message constants
const (
	ErrMsgParseFailed            = "template parsing failed"
	ErrMsgRenderFailed           = "template rendering failed"
	ErrMsgAccessorFailed         = "accessor returned an error"
	ErrMsgTemplateNotFound       = "template not found"
	ErrMsgLoadTemplateFailed     = "cannot load template"
	ErrMsgSourceFailed           = "template source failed"
	ErrMsgSourceClosed           = "template source is closed"
	ErrMsgReadOnlySource         = "template source is read-only"
	ErrMsgInvalidTemplateName    = "invalid template name"
	ErrMsgEmptyPartialName       = "partial name cannot be empty"
	ErrMsgInvalidOption          = "invalid engine option"
	ErrMsgInvalidConfig          = "invalid configuration"
	ErrMsgUnknownCharset         = "unknown charset"
	ErrMsgInvalidDelimiterOption = "delimiters must be non-empty and contain neither whitespace nor '='"
	ErrMsgNilSourceDriver        = "source driver is nil"
	ErrMsgDriverRegistered       = "source driver already registered"
	ErrMsgSourceDriverNotFound   = "source driver not found"
)

// Error code constants for categorization
const (
	ErrCodeParse  = "MUSTACHE_PARSE"
	ErrCodeRender = "MUSTACHE_RENDER"
	ErrCodeSource = "MUSTACHE_SOURCE"
	ErrCodeConfig = "MUSTACHE_CONFIG"
)

// Position represents a location in the source template
type Position = internal.Position

// ErrorClass identifies a configurable category of render failure.
type ErrorClass = internal.ErrorClass

// Error classes
const (
	ErrorClassUnknownVariable        = internal.ErrorClassUnknownVariable
	ErrorClassUnclosedSection        = internal.ErrorClassUnclosedSection
	ErrorClassUnexpectedCloseSection = internal.ErrorClassUnexpectedCloseSection
	ErrorClassUnknownPartial         = internal.ErrorClassUnknownPartial
	ErrorClassUnknownPragma          = internal.ErrorClassUnknownPragma
	ErrorClassPartialRecursion       = internal.ErrorClassPartialRecursion
)

// ErrorStrategy defines how an error class is handled during rendering.
type ErrorStrategy = internal.ErrorStrategy

// Error strategies
const (
	// ErrorStrategyThrow fails the render and returns the error.
	ErrorStrategyThrow = internal.ErrorStrategyThrow
	// ErrorStrategyRemove renders the failing tag as an empty string.
	ErrorStrategyRemove = internal.ErrorStrategyRemove
	// ErrorStrategyLog logs a warning and renders an empty string.
	ErrorStrategyLog = internal.ErrorStrategyLog
	// ErrorStrategyKeepRaw renders the failing tag's original text.
	ErrorStrategyKeepRaw = internal.ErrorStrategyKeepRaw
)

// Sentinel errors, usable with errors.Is on any error this package returns.
var (
	ErrUnknownVariable        = internal.ErrUnknownVariable
	ErrUnclosedSection        = internal.ErrUnclosedSection
	ErrUnexpectedCloseSection = internal.ErrUnexpectedCloseSection
	ErrUnknownPartial         = internal.ErrUnknownPartial
	ErrUnknownPragma          = internal.ErrUnknownPragma
	ErrPartialRecursion       = internal.ErrPartialRecursion
	ErrInvalidDelimiters      = internal.ErrInvalidDelimiters
	ErrAccessorFailed         = internal.ErrAccessorFailed
	ErrTemplateNotFound       = errors.New(ErrMsgTemplateNotFound)
)

// AllErrorClasses returns every configurable error class.
func AllErrorClasses() []ErrorClass {
	out := make([]ErrorClass, len(internal.AllErrorClasses))
	copy(out, internal.AllErrorClasses)
	return out
}

// ParseErrorClass parses a class name such as "unknown_variable".
func ParseErrorClass(s string) (ErrorClass, bool) {
	return internal.ParseErrorClass(s)
}

// ParseErrorStrategy parses a strategy name such as "keepraw".
func ParseErrorStrategy(s string) (ErrorStrategy, bool) {
	return internal.ParseErrorStrategy(s)
}

// ErrorClassOf reports the error class of a render error.
func ErrorClassOf(err error) (ErrorClass, bool) {
	var customErr *cuserr.CustomError
	if errors.As(err, &customErr) {
		if name, ok := customErr.GetMetadata(MetaKeyErrorClass); ok {
			return ParseErrorClass(name)
		}
	}
	var renderErr *internal.RenderError
	if errors.As(err, &renderErr) {
		return renderErr.Class, true
	}
	return 0, false
}

// NewParseError creates a parse error with position context
func NewParseError(msg string, pos Position, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeParse, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeParse, msg)
	}
	return withPosition(err, pos)
}

// NewRenderError creates a classified render error. cause is normally
// the internal error carrying the class sentinel.
func NewRenderError(class ErrorClass, name string, pos Position, cause error) error {
	if cause == nil {
		cause = internal.NewRenderError(class, name, pos)
	}
	err := cuserr.WrapStdError(cause, ErrCodeRender, ErrMsgRenderFailed).
		WithMetadata(MetaKeyErrorClass, class.String()).
		WithMetadata(MetaKeyName, name)
	return withPosition(err, pos)
}

// NewAccessorError wraps a failure returned by a data accessor
func NewAccessorError(name string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeRender, ErrMsgAccessorFailed).
		WithMetadata(MetaKeyName, name)
}

// NewTemplateNotFoundError creates an error matching ErrTemplateNotFound
func NewTemplateNotFoundError(name string) error {
	return cuserr.WrapStdError(ErrTemplateNotFound, ErrCodeSource, ErrMsgLoadTemplateFailed).
		WithMetadata(MetaKeyTemplateName, name)
}

// NewSourceError wraps a failure of a template source backend
func NewSourceError(msg, name string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeSource, msg)
	} else {
		err = cuserr.NewInternalError(ErrCodeSource, nil)
		err = err.WithMetadata(MetaKeyDetail, msg)
	}
	return err.WithMetadata(MetaKeyTemplateName, name)
}

// NewInvalidTemplateNameError reports a name a source refuses to store or load
func NewInvalidTemplateNameError(name string) error {
	return cuserr.NewValidationError(ErrCodeSource, ErrMsgInvalidTemplateName).
		WithMetadata(MetaKeyTemplateName, name)
}

// NewSourceClosedError reports use of a closed source
func NewSourceClosedError() error {
	return cuserr.NewValidationError(ErrCodeSource, ErrMsgSourceClosed)
}

// NewConfigError creates a configuration error for an option value
func NewConfigError(msg, option, value string) error {
	return cuserr.NewValidationError(ErrCodeConfig, msg).
		WithMetadata(MetaKeyOption, option).
		WithMetadata(MetaKeyValue, value)
}

// NewSourceDriverNotFoundError reports an unregistered source driver name
func NewSourceDriverNotFoundError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyDriverName, ErrMsgSourceDriverNotFound).
		WithMetadata(MetaKeyDriverName, name)
}

func withPosition(err *cuserr.CustomError, pos Position) error {
	return err.
		WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(pos.Offset))
}

// wrapError converts errors raised by the internal packages into the
// public error types. Context and source errors pass through.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var customErr *cuserr.CustomError
	if errors.As(err, &customErr) {
		return err
	}

	var renderErr *internal.RenderError
	if errors.As(err, &renderErr) {
		return NewRenderError(renderErr.Class, renderErr.Name, renderErr.Position, err)
	}

	var accessorErr *internal.AccessorError
	if errors.As(err, &accessorErr) {
		return NewAccessorError(accessorErr.Name, err)
	}

	var parseErr *internal.ParseError
	if errors.As(err, &parseErr) {
		return NewParseError(ErrMsgParseFailed, parseErr.Position, err)
	}

	return cuserr.WrapStdError(err, ErrCodeRender, ErrMsgRenderFailed)
}
