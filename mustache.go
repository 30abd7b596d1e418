// Package mustache implements logic-less Mustache templates with
// pragmas, configurable error handling and pluggable template sources.
//
// # Basic Usage
//
//	engine := mustache.MustNew()
//	out, err := engine.Render(ctx, "Hello, {{name}}!", map[string]any{
//	    "name": "World",
//	})
//	// out: "Hello, World!"
//
// Templates that are rendered repeatedly should be parsed once:
//
//	tmpl, err := engine.Parse("{{#items}}- {{.}}\n{{/items}}")
//	out, err := tmpl.Render(ctx, map[string]any{"items": []string{"a", "b"}})
//
// # Template Syntax
//
//	{{name}}          escaped variable
//	{{{name}}}        unescaped variable ({{&name}} is equivalent)
//	{{#name}}..{{/name}}  section: repeated for lists, entered for maps and structs
//	{{^name}}..{{/name}}  inverted section: rendered when name is falsy
//	{{>name}}         partial
//	{{!comment}}      comment
//	{{=<% %>=}}       change delimiters
//	{{%PRAGMA}}       enable a pragma for the whole template
//
// Falsy values are nil, false, zero numbers, "", "0" and empty lists.
//
// # Pragmas
//
// DOT-NOTATION resolves {{a.b.c}} by walking nested frames.
// UNESCAPED swaps the meaning of {{x}} and {{{x}}}.
// Pragmas are scoped to one template; a partial starts with the engine
// defaults only:
//
//	engine := mustache.MustNew(mustache.WithPragma(mustache.PragmaDotNotation, nil))
//
// # Data
//
// Frames may be maps, structs (fields by name or `mustache:"..."` tag,
// zero-argument methods), or any type implementing Lookuper.
// A method returning (value, error) fails the render when the error is
// non-nil.
//
// # Errors
//
// Each error class can throw, be removed silently, be logged, or keep
// the tag's raw text:
//
//	engine := mustache.MustNew(
//	    mustache.WithErrorStrategy(mustache.ErrorClassUnknownVariable, mustache.ErrorStrategyKeepRaw),
//	)
//
// Errors match their class sentinel with errors.Is, and ErrorClassOf
// reports the class:
//
//	if errors.Is(err, mustache.ErrUnclosedSection) { ... }
//
// # Partials and Template Sources
//
// Partials are resolved from, in order, the partials passed to the
// render call, the engine registry, and the template source. Sources
// include MemorySource, FilesystemSource, SQLSource (PostgreSQL and
// SQLite) and RedisSource, and can be wrapped in CachedSource or
// combined with ChainSource:
//
//	engine := mustache.MustNew(mustache.WithTemplateDir("./templates"))
//	out, err := engine.RenderNamed(ctx, "page", data) // ./templates/page.mustache
package mustache
