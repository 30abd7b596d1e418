package internal

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// PartialLoader resolves a partial name to its parsed node tree. found is
// false when no partial of that name exists; err is reserved for
// failures of the underlying source.
type PartialLoader interface {
	LoadPartial(ctx context.Context, name string) (root *RootNode, found bool, err error)
}

// PartialLoaderFunc adapts a function to PartialLoader
type PartialLoaderFunc func(ctx context.Context, name string) (*RootNode, bool, error)

// LoadPartial calls f
func (f PartialLoaderFunc) LoadPartial(ctx context.Context, name string) (*RootNode, bool, error) {
	return f(ctx, name)
}

// MapPartials is a PartialLoader over in-memory sources. Each lookup
// parses the source with default delimiters.
type MapPartials map[string]string

// LoadPartial parses the named source if present
func (m MapPartials) LoadPartial(_ context.Context, name string) (*RootNode, bool, error) {
	src, ok := m[name]
	if !ok {
		return nil, false, nil
	}
	root, err := Parse(src, nil)
	if err != nil {
		return nil, false, err
	}
	return root, true, nil
}

// ExecutorConfig holds executor configuration options.
type ExecutorConfig struct {
	MaxDepth       int                          // Maximum partial nesting depth (0 = unlimited)
	Policy         ErrorPolicy                  // Strategy per error class (nil = defaults)
	Escape         func(string) string          // Escaper for plain variables
	DefaultPragmas map[string]map[string]string // Activated at the start of every pass
	KnownPragmas   []string                     // Accepted in addition to the built-in names
}

// DefaultExecutorConfig returns the default executor configuration.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxDepth: DefaultMaxDepth,
		Policy:   DefaultErrorPolicy(),
		Escape:   EscapeHTML,
	}
}

// Executor interprets a node tree against a context stack.
type Executor struct {
	config ExecutorConfig
	logger *zap.Logger
}

// NewExecutor creates a new executor with the given configuration.
func NewExecutor(config ExecutorConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Escape == nil {
		config.Escape = EscapeHTML
	}
	logger.Debug(LogMsgExecutorCreated, zap.Int(LogFieldDepth, config.MaxDepth))
	return &Executor{
		config: config,
		logger: logger,
	}
}

// renderState is the per-pass state threaded through every call
type renderState struct {
	stack   *ContextStack
	pragmas *PragmaSet
	loader  PartialLoader
	depth   int
}

// Execute renders root against stack. loader may be nil, in which case
// every partial is unknown.
func (e *Executor) Execute(ctx context.Context, root *RootNode, stack *ContextStack, loader PartialLoader) (string, error) {
	if stack == nil {
		stack = NewContextStack(nil)
	}
	e.logger.Debug(LogMsgExecutorStart, zap.Int(LogFieldFrames, stack.Len()))

	pragmas, err := e.pragmaSet(root)
	if err != nil {
		return "", err
	}

	st := &renderState{
		stack:   stack,
		pragmas: pragmas,
		loader:  loader,
	}

	var sb strings.Builder
	if err := e.executeNodes(ctx, &sb, root.Children, st); err != nil {
		return "", err
	}

	e.logger.Debug(LogMsgExecutorEnd)
	return sb.String(), nil
}

// pragmaSet builds the fresh pragma set for one pass: engine defaults
// first, then every pragma the template declares.
func (e *Executor) pragmaSet(root *RootNode) (*PragmaSet, error) {
	set := NewPragmaSet(e.config.KnownPragmas...)
	for name, opts := range e.config.DefaultPragmas {
		if err := set.Activate(name, opts); err != nil {
			if _, ferr := e.fail(ErrorClassUnknownPragma, name, StringValueEmpty, Position{}); ferr != nil {
				return nil, ferr
			}
		}
	}
	for _, decl := range root.Pragmas {
		if err := set.Activate(decl.Name, decl.Options); err != nil {
			if _, ferr := e.fail(ErrorClassUnknownPragma, decl.Name, decl.Raw, decl.Position); ferr != nil {
				return nil, ferr
			}
			continue
		}
		e.logger.Debug(LogMsgPragmaActivated, zap.String(LogFieldPragma, decl.Name))
	}
	return set, nil
}

// executeNodes renders nodes in order, checking for cancellation between them.
func (e *Executor) executeNodes(ctx context.Context, sb *strings.Builder, nodes []Node, st *renderState) error {
	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.executeNode(ctx, sb, node, st); err != nil {
			return err
		}
	}
	return nil
}

// executeNode renders a single node.
func (e *Executor) executeNode(ctx context.Context, sb *strings.Builder, node Node, st *renderState) error {
	switch n := node.(type) {
	case *TextNode:
		sb.WriteString(n.Content)
		return nil

	case *VariableNode:
		return e.executeVariable(sb, n, st)

	case *SectionNode:
		return e.executeSection(ctx, sb, n, st)

	case *PartialNode:
		return e.executePartial(ctx, sb, n, st)

	case *CommentNode, *SetDelimiterNode:
		return nil

	case *UnclosedSectionNode:
		out, err := e.fail(ErrorClassUnclosedSection, n.Name, n.Raw, n.Pos())
		sb.WriteString(out)
		return err

	case *StrayCloseNode:
		out, err := e.fail(ErrorClassUnexpectedCloseSection, n.Name, n.Raw, n.Pos())
		sb.WriteString(out)
		return err

	default:
		return &ParseError{Message: ErrMsgUnknownNodeType, Detail: node.Type().String(), Position: node.Pos()}
	}
}

// executeVariable writes a resolved value, escaped unless the tag or the
// UNESCAPED pragma says otherwise.
func (e *Executor) executeVariable(sb *strings.Builder, n *VariableNode, st *renderState) error {
	val, ok, err := e.lookup(n.Name, st)
	if err != nil {
		return err
	}
	if !ok {
		out, err := e.fail(ErrorClassUnknownVariable, n.Name, n.Raw, n.Pos())
		sb.WriteString(out)
		return err
	}

	escape := !n.Unescaped
	if st.pragmas.IsActive(PragmaUnescaped) {
		escape = !escape
	}

	text := Stringify(val)
	if escape {
		text = e.config.Escape(text)
	}
	sb.WriteString(text)
	return nil
}

// executeSection dispatches on the value kind: lists iterate, maps and
// objects are pushed once, truthy scalars render once without a push.
func (e *Executor) executeSection(ctx context.Context, sb *strings.Builder, n *SectionNode, st *renderState) error {
	val, ok, err := e.lookup(n.Name, st)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := e.fail(ErrorClassUnknownVariable, n.Name, n.Raw, n.Pos()); err != nil {
			return err
		}
	}

	kind := Classify(val)
	if n.Inverted {
		if kind == ValueKindFalsy {
			return e.executeNodes(ctx, sb, n.Children, st)
		}
		return nil
	}

	switch kind {
	case ValueKindList:
		items := ListItems(val)
		e.logger.Debug(LogMsgSectionRendered,
			zap.String(LogFieldName, n.Name),
			zap.Int(LogFieldItems, len(items)))
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.withFrame(ctx, sb, item, n.Children, st); err != nil {
				return err
			}
		}
		return nil

	case ValueKindFrame:
		return e.withFrame(ctx, sb, val, n.Children, st)

	case ValueKindScalar:
		return e.executeNodes(ctx, sb, n.Children, st)
	}
	return nil
}

// withFrame renders children with frame pushed, popping it afterwards.
func (e *Executor) withFrame(ctx context.Context, sb *strings.Builder, frame any, children []Node, st *renderState) error {
	st.stack.Push(frame)
	err := e.executeNodes(ctx, sb, children, st)
	if _, perr := st.stack.Pop(); perr != nil && err == nil {
		err = perr
	}
	return err
}

// executePartial renders a partial as a nested pass: its own pragma set,
// the shared context stack and one more level of depth.
func (e *Executor) executePartial(ctx context.Context, sb *strings.Builder, n *PartialNode, st *renderState) error {
	depth := st.depth + 1
	if e.config.MaxDepth > 0 && depth > e.config.MaxDepth {
		out, err := e.fail(ErrorClassPartialRecursion, n.Name, n.Raw, n.Pos())
		sb.WriteString(out)
		return err
	}

	var (
		root  *RootNode
		found bool
		err   error
	)
	if st.loader != nil {
		root, found, err = st.loader.LoadPartial(ctx, n.Name)
		if err != nil {
			return err
		}
	}
	if !found {
		out, err := e.fail(ErrorClassUnknownPartial, n.Name, n.Raw, n.Pos())
		sb.WriteString(out)
		return err
	}

	pragmas, err := e.pragmaSet(root)
	if err != nil {
		return err
	}

	e.logger.Debug(LogMsgPartialRendered,
		zap.String(LogFieldName, n.Name),
		zap.Int(LogFieldDepth, depth))

	child := &renderState{
		stack:   st.stack,
		pragmas: pragmas,
		loader:  st.loader,
		depth:   depth,
	}
	return e.executeNodes(ctx, sb, root.Children, child)
}

// lookup resolves a name, honouring DOT-NOTATION when it is active.
func (e *Executor) lookup(name string, st *renderState) (any, bool, error) {
	if st.pragmas.IsActive(PragmaDotNotation) {
		return st.stack.LookupDotted(name)
	}
	return st.stack.Lookup(name)
}

// fail applies the configured strategy for a class. It returns the text
// to emit in place of the failing tag, or the error under throw.
func (e *Executor) fail(class ErrorClass, name, raw string, pos Position) (string, error) {
	strategy := e.config.Policy.Strategy(class)
	err := NewRenderError(class, name, pos)

	e.logger.Debug(LogMsgErrorStrategyUsed,
		zap.String(LogFieldClass, class.String()),
		zap.String(LogFieldStrategy, strategy.String()),
		zap.String(LogFieldErrorMsg, err.Error()))

	switch strategy {
	case ErrorStrategyRemove:
		return StringValueEmpty, nil

	case ErrorStrategyKeepRaw:
		return raw, nil

	case ErrorStrategyLog:
		e.logger.Warn(LogMsgErrorLogged,
			zap.String(LogFieldClass, class.String()),
			zap.String(LogFieldName, name),
			zap.Int(LogFieldLine, pos.Line),
			zap.Int(LogFieldColumn, pos.Column))
		return StringValueEmpty, nil

	default:
		return StringValueEmpty, err
	}
}
