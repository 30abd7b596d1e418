package mustache

import (
	"context"
)

// View binds a template source to its data and partials so it can be
// rendered later or printed directly.
type View struct {
	engine   *Engine
	source   string
	data     any
	partials map[string]string
}

// NewView creates a View. partials may be nil.
func (e *Engine) NewView(source string, data any, partials map[string]string) *View {
	return &View{
		engine:   e,
		source:   source,
		data:     data,
		partials: partials,
	}
}

// Render renders the view.
func (v *View) Render(ctx context.Context) (string, error) {
	return v.engine.RenderWithPartials(ctx, v.source, v.data, v.partials)
}

// String implements fmt.Stringer. A failed render yields the error
// message prefixed with "Error rendering mustache: ".
func (v *View) String() string {
	out, err := v.Render(context.Background())
	if err != nil {
		return ViewErrorPrefix + err.Error()
	}
	return out
}
