package mustache_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/itsatony/go-mustache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, engine *mustache.Engine, source string, data any) string {
	t.Helper()
	out, err := engine.Render(context.Background(), source, data)
	require.NoError(t, err)
	return out
}

func TestE2E_TextWithoutTagsIsIdentity(t *testing.T) {
	engine := mustache.MustNew()
	inputs := []string{
		"",
		"plain text",
		"line one\nline two\n",
		"{ single braces }",
		"unterminated {{ open\nnext line",
		"<b>markup & entities</b>",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, in, render(t, engine, in, map[string]any{"x": 1}))
		})
	}
}

func TestE2E_Escaping(t *testing.T) {
	engine := mustache.MustNew()
	data := map[string]any{"x": `<b>"hi" & 'bye'</b>`}

	assert.Equal(t, `&lt;b&gt;&quot;hi&quot; &amp; 'bye'&lt;/b&gt;`, render(t, engine, "{{x}}", data))
	assert.Equal(t, `<b>"hi" & 'bye'</b>`, render(t, engine, "{{{x}}}", data))
	assert.Equal(t, `<b>"hi" & 'bye'</b>`, render(t, engine, "{{&x}}", data))
}

func TestE2E_ListSections(t *testing.T) {
	engine := mustache.MustNew()

	assert.Equal(t, "123", render(t, engine, "{{#list}}{{.}}{{/list}}", map[string]any{"list": []int{1, 2, 3}}))
	assert.Equal(t, "", render(t, engine, "{{#list}}{{.}}{{/list}}", map[string]any{"list": []int{}}))
	assert.Equal(t, "ab", render(t, engine, "{{#people}}{{name}}{{/people}}", map[string]any{
		"people": []map[string]any{{"name": "a"}, {"name": "b"}},
	}))
}

func TestE2E_InvertedIsComplement(t *testing.T) {
	engine := mustache.MustNew()
	values := []any{
		nil, false, true, 0, 1, 0.0, 2.5, "", "0", "x",
		[]int{}, []int{1}, map[string]any{}, map[string]any{"a": 1},
		struct{ A int }{1},
	}
	for _, v := range values {
		t.Run(fmt.Sprintf("%#v", v), func(t *testing.T) {
			out := render(t, engine, "{{#v}}T{{/v}}{{^v}}F{{/v}}", map[string]any{"v": v})
			assert.Contains(t, []string{"T", "F"}, out)
		})
	}
}

func TestE2E_SetDelimiters(t *testing.T) {
	engine := mustache.MustNew()
	out := render(t, engine, "{{=<% %>=}}<%x%>{{y}}", map[string]any{"x": "X", "y": "Y"})
	assert.Equal(t, "X{{y}}", out)
}

func TestE2E_SetDelimitersDoNotLeakIntoPartials(t *testing.T) {
	engine := mustache.MustNew()
	out, err := engine.RenderWithPartials(context.Background(),
		"{{=<% %>=}}<%>p%>", map[string]any{"x": "X"},
		map[string]string{"p": "{{x}}"})
	require.NoError(t, err)
	assert.Equal(t, "X", out)
}

func TestE2E_UnescapedPragmaIsScopedToPartial(t *testing.T) {
	engine := mustache.MustNew()
	data := map[string]any{"x": "<i>"}
	partials := map[string]string{"p": "{{%UNESCAPED}}\n{{x}}"}

	out, err := engine.RenderWithPartials(context.Background(), "{{>p}}|{{x}}", data, partials)
	require.NoError(t, err)
	assert.Equal(t, "<i>|&lt;i&gt;", out)
}

func TestE2E_DotNotation(t *testing.T) {
	engine := mustache.MustNew()
	data := map[string]any{"a": map[string]any{"b": map[string]any{"c": 5}}}

	assert.Equal(t, "5", render(t, engine, "{{%DOT-NOTATION}}{{a.b.c}}", data))
	assert.Equal(t, "", render(t, engine, "{{%DOT-NOTATION}}{{a.x.c}}", data))
	assert.Equal(t, "", render(t, engine, "{{a.b.c}}", data), "dotted names are plain names without the pragma")

	withDefault := mustache.MustNew(mustache.WithPragma(mustache.PragmaDotNotation, nil))
	assert.Equal(t, "5", render(t, withDefault, "{{a.b.c}}", data))
}

func TestE2E_UnclosedSection(t *testing.T) {
	ctx := context.Background()

	strict := mustache.MustNew()
	_, err := strict.Render(ctx, "{{#s}}x", map[string]any{"s": true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, mustache.ErrUnclosedSection))

	class, ok := mustache.ErrorClassOf(err)
	require.True(t, ok)
	assert.Equal(t, mustache.ErrorClassUnclosedSection, class)

	lenient := mustache.MustNew(mustache.WithErrorClass(mustache.ErrorClassUnclosedSection, false))
	out, err := lenient.Render(ctx, "{{#s}}x", map[string]any{"s": true})
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestE2E_RenderIsFixedPointForTagFreeOutput(t *testing.T) {
	engine := mustache.MustNew()
	data := map[string]any{"name": "World", "items": []string{"a", "b"}}

	first := render(t, engine, "Hello {{name}}{{#items}}, {{.}}{{/items}}!", data)
	assert.Equal(t, "Hello World, a, b!", first)
	assert.Equal(t, first, render(t, engine, first, data))
}

func TestE2E_StructData(t *testing.T) {
	type Address struct {
		City string `mustache:"city"`
	}
	type User struct {
		Name    string
		Address *Address
		Tags    []string
	}

	engine := mustache.MustNew()
	user := User{Name: "Ada", Address: &Address{City: "London"}, Tags: []string{"x", "y"}}

	out := render(t, engine, "{{Name}} in {{#Address}}{{city}}{{/Address}}: {{#Tags}}[{{.}}]{{/Tags}}", user)
	assert.Equal(t, "Ada in London: [x][y]", out)
}

func TestE2E_PartialSources(t *testing.T) {
	ctx := context.Background()
	source := mustache.NewMemorySource(map[string]string{
		"footer": "from source",
		"header": "source header",
	})
	engine := mustache.MustNew(
		mustache.WithTemplateSource(source),
		mustache.WithPartials(map[string]string{"header": "registry header"}),
	)

	out, err := engine.Render(ctx, "{{>header}}|{{>footer}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "registry header|from source", out)

	out, err = engine.RenderWithPartials(ctx, "{{>header}}", nil, map[string]string{"header": "call header"})
	require.NoError(t, err)
	assert.Equal(t, "call header", out)
}

func TestE2E_RenderNamedFromDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := mustache.NewFilesystemSource(dir, "")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "page", "<h1>{{title}}</h1>{{>parts/footer}}"))
	require.NoError(t, store.Save(ctx, "parts/footer", "<footer>{{year}}</footer>"))

	engine := mustache.MustNew(mustache.WithTemplateDir(dir))
	out, err := engine.RenderNamed(ctx, "page", map[string]any{"title": "Hi", "year": 2024})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1><footer>2024</footer>", out)

	out, err = engine.RenderNamed(ctx, "page.mustache", map[string]any{"title": "Again"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Again</h1><footer></footer>", out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte("<p>{{x}}</p>{{>parts/footer}}"), 0o644))
	out, err = engine.RenderNamed(ctx, "page.html", map[string]any{"x": "X", "year": 2025})
	require.NoError(t, err)
	assert.Equal(t, "<p>X</p><footer>2025</footer>", out)

	_, err = engine.RenderNamed(ctx, "missing", nil)
	assert.True(t, errors.Is(err, mustache.ErrTemplateNotFound))
}

func TestE2E_PartialRecursionLimit(t *testing.T) {
	engine := mustache.MustNew(
		mustache.WithMaxDepth(5),
		mustache.WithPartials(map[string]string{"loop": "x{{>loop}}"}),
	)
	_, err := engine.Render(context.Background(), "{{>loop}}", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mustache.ErrPartialRecursion))

	// Recursion that terminates on data is fine
	tree := mustache.MustNew(mustache.WithPartials(map[string]string{
		"node": "{{name}}{{#children}}({{>node}}){{/children}}",
	}))
	// Leaves carry an empty list so lookups don't fall through to the parent.
	leaf := func(name string) map[string]any {
		return map[string]any{"name": name, "children": []map[string]any{}}
	}
	out := render(t, tree, "{{>node}}", map[string]any{
		"name": "root",
		"children": []map[string]any{
			leaf("a"),
			{"name": "b", "children": []map[string]any{leaf("c")}},
		},
	})
	assert.Equal(t, "root(a)(b(c))", out)
}

func TestE2E_ViewString(t *testing.T) {
	engine := mustache.MustNew()

	ok := engine.NewView("Hi {{name}}", map[string]any{"name": "Bo"}, nil)
	assert.Equal(t, "Hi Bo", ok.String())
	assert.Equal(t, "Hi Bo", fmt.Sprint(ok))

	broken := engine.NewView("{{#open}}", nil, nil)
	assert.True(t, strings.HasPrefix(broken.String(), mustache.ViewErrorPrefix))
	assert.Equal(t, 1, strings.Count(broken.String(), "unclosed section"))
}

func TestE2E_ConcurrentRenders(t *testing.T) {
	engine := mustache.MustNew(mustache.WithPartials(map[string]string{"p": "<{{n}}>"}))
	tmpl, err := engine.Parse("{{#items}}{{>p}}{{/items}}")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items := []map[string]any{{"n": i}, {"n": i + 1}}
			out, err := tmpl.Render(context.Background(), map[string]any{"items": items})
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("<%d><%d>", i, i+1), out)
		}(i)
	}
	wg.Wait()
}
