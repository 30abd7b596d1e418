package mustache

import (
	"errors"

	"github.com/itsatony/go-mustache/internal"
)

// ValidationSeverity indicates the severity of a validation issue.
type ValidationSeverity int

const (
	// SeverityError marks a problem a strict render would fail on
	SeverityError ValidationSeverity = iota
	// SeverityWarning marks a likely mistake that still renders
	SeverityWarning
)

// Validation severity string names
const (
	SeverityNameError   = "error"
	SeverityNameWarning = "warning"
)

// Validation messages
const (
	ValidationMsgUnclosedSection = "section is never closed"
	ValidationMsgStrayClose      = "closing tag has no matching open section"
	ValidationMsgUnknownPragma   = "pragma is not recognised"
	ValidationMsgDuplicatePragma = "pragma is declared more than once"
	ValidationMsgUnknownPartial  = "partial is not registered"
)

// String returns the severity name
func (s ValidationSeverity) String() string {
	if s == SeverityWarning {
		return SeverityNameWarning
	}
	return SeverityNameError
}

// MarshalText implements encoding.TextMarshaler
func (s ValidationSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ValidationIssue represents a single validation finding. Class is set
// when the issue corresponds to a render error class.
type ValidationIssue struct {
	Severity ValidationSeverity `json:"severity"`
	Class    *ErrorClass        `json:"-"`
	Name     string             `json:"name"`
	Message  string             `json:"message"`
	Position Position           `json:"position"`
}

// ClassName returns the error class name, or "" when Class is nil.
func (i ValidationIssue) ClassName() string {
	if i.Class == nil {
		return ""
	}
	return i.Class.String()
}

// ValidationResult contains the results of template validation.
type ValidationResult struct {
	issues []ValidationIssue
}

// Issues returns all validation issues found.
func (r *ValidationResult) Issues() []ValidationIssue {
	return r.issues
}

// Errors returns only issues with error severity.
func (r *ValidationResult) Errors() []ValidationIssue {
	return r.filter(SeverityError)
}

// Warnings returns only issues with warning severity.
func (r *ValidationResult) Warnings() []ValidationIssue {
	return r.filter(SeverityWarning)
}

// HasErrors returns true if there are any error-severity issues.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors()) > 0
}

// HasWarnings returns true if there are any warning-severity issues.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings()) > 0
}

// IsValid returns true if there are no error-severity issues.
func (r *ValidationResult) IsValid() bool {
	return !r.HasErrors()
}

func (r *ValidationResult) filter(sev ValidationSeverity) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

func (r *ValidationResult) add(sev ValidationSeverity, class *ErrorClass, name, msg string, pos Position) {
	r.issues = append(r.issues, ValidationIssue{
		Severity: sev,
		Class:    class,
		Name:     name,
		Message:  msg,
		Position: pos,
	})
}

// Validate parses and validates a template without rendering it.
// A malformed set-delimiter tag is reported as an error issue.
func (e *Engine) Validate(source string) (*ValidationResult, error) {
	result := &ValidationResult{issues: make([]ValidationIssue, 0)}

	root, err := e.parse(source, e.config.openDelim, e.config.closeDelim)
	if err != nil {
		var pos Position
		var parseErr *internal.ParseError
		if errors.As(err, &parseErr) {
			pos = parseErr.Position
		}
		result.add(SeverityError, nil, "", err.Error(), pos)
		return result, nil
	}

	e.validateRoot(root, result)
	return result, nil
}

// validateRoot walks the node tree collecting issues.
func (e *Engine) validateRoot(root *internal.RootNode, result *ValidationResult) {
	known := internal.NewPragmaSet(e.config.knownPragmas...)
	seen := make(map[string]bool, len(root.Pragmas))
	for _, decl := range root.Pragmas {
		if !known.IsKnown(decl.Name) {
			result.add(SeverityError, classRef(ErrorClassUnknownPragma), decl.Name, ValidationMsgUnknownPragma, decl.Position)
			continue
		}
		if seen[decl.Name] {
			result.add(SeverityWarning, nil, decl.Name, ValidationMsgDuplicatePragma, decl.Position)
		}
		seen[decl.Name] = true
	}

	internal.Walk(root, func(n internal.Node) bool {
		switch node := n.(type) {
		case *internal.UnclosedSectionNode:
			result.add(SeverityError, classRef(ErrorClassUnclosedSection), node.Name, ValidationMsgUnclosedSection, node.Pos())
		case *internal.StrayCloseNode:
			result.add(SeverityError, classRef(ErrorClassUnexpectedCloseSection), node.Name, ValidationMsgStrayClose, node.Pos())
		case *internal.PartialNode:
			// Partials behind a template source can only be checked at render time.
			if e.source == nil && !e.HasPartial(node.Name) {
				result.add(SeverityWarning, classRef(ErrorClassUnknownPartial), node.Name, ValidationMsgUnknownPartial, node.Pos())
			}
		}
		return true
	})
}

func classRef(c ErrorClass) *ErrorClass {
	return &c
}
