package mustache

import (
	"context"

	"github.com/itsatony/go-mustache/internal"
)

// Lookuper lets a custom type act as a context frame. Lookup reports
// whether name is defined on the frame and its value.
type Lookuper = internal.Lookuper

// PragmaDecl is a pragma declaration found in a template, such as
// {{%DOT-NOTATION}} or {{%CUSTOM key=value}}.
type PragmaDecl struct {
	Name     string
	Options  map[string]string
	Position Position
}

// Template represents a parsed template that can be rendered multiple times.
type Template struct {
	source string
	root   *internal.RootNode
	engine *Engine
}

func newTemplate(source string, root *internal.RootNode, engine *Engine) *Template {
	return &Template{
		source: source,
		root:   root,
		engine: engine,
	}
}

// Render renders the template with the given data. data may be a map,
// a struct (or pointer to one), a Lookuper, or nil.
func (t *Template) Render(ctx context.Context, data any) (string, error) {
	return t.RenderWithPartials(ctx, data, nil)
}

// RenderWithPartials renders with call-scoped partials that take
// precedence over the engine's registry and template source.
func (t *Template) RenderWithPartials(ctx context.Context, data any, partials map[string]string) (string, error) {
	stack := internal.NewContextStack(data)
	out, err := t.engine.executor.Execute(ctx, t.root, stack, t.engine.partialLoader(partials))
	if err != nil {
		return "", wrapError(err)
	}
	return out, nil
}

// Source returns the original template source.
func (t *Template) Source() string {
	return t.source
}

// Pragmas returns the pragmas the template declares, in source order.
func (t *Template) Pragmas() []PragmaDecl {
	out := make([]PragmaDecl, 0, len(t.root.Pragmas))
	for _, decl := range t.root.Pragmas {
		opts := make(map[string]string, len(decl.Options))
		for k, v := range decl.Options {
			opts[k] = v
		}
		out = append(out, PragmaDecl{
			Name:     decl.Name,
			Options:  opts,
			Position: decl.Position,
		})
	}
	return out
}

// Validate reports structural problems in the template regardless of
// the engine's error strategies.
func (t *Template) Validate() *ValidationResult {
	result := &ValidationResult{issues: make([]ValidationIssue, 0)}
	t.engine.validateRoot(t.root, result)
	return result
}
