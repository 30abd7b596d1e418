package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUser struct {
	Name     string
	Email    string `mustache:"email_address"`
	Nickname *string
	secret   string
}

func (u testUser) Greeting() string { return "hi " + u.Name }

func (u *testUser) Shout() string { return u.Name + "!" }

func (u testUser) Fails() (string, error) { return "", errors.New("boom") }

func (u testUser) Works() (string, error) { return "ok", nil }

type testLookuper map[string]int

func (l testLookuper) Lookup(name string) (any, bool) {
	v, ok := l[name]
	return v, ok
}

func TestContextStack_RootFrame(t *testing.T) {
	s := NewContextStack(nil)
	assert.Equal(t, 1, s.Len())

	_, err := s.Pop()
	assert.ErrorIs(t, err, ErrPopRootFrame)
	assert.Equal(t, 1, s.Len())
}

func TestContextStack_PushPop(t *testing.T) {
	s := NewContextStack(map[string]any{"a": 1})
	assert.Equal(t, 2, s.Len())

	s.Push(map[string]any{"a": 2})
	v, ok, err := s.Lookup("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	top, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 2}, top)

	v, _, _ = s.Lookup("a")
	assert.Equal(t, 1, v)
}

func TestContextStack_Lookup_FallsThroughFrames(t *testing.T) {
	s := NewContextStack(map[string]any{"outer": "o", "shadow": "bottom"})
	s.Push(map[string]any{"inner": "i", "shadow": "top", "nothing": nil})

	tests := []struct {
		name  string
		want  any
		found bool
	}{
		{"inner", "i", true},
		{"outer", "o", true},
		{"shadow", "top", true},
		{"nothing", nil, false},
		{"missing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok, err := s.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestContextStack_NilValueFallsBackToLowerFrame(t *testing.T) {
	s := NewContextStack(map[string]any{"x": "low"})
	s.Push(map[string]any{"x": nil})
	v, ok, err := s.Lookup("x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "low", v)
}

func TestContextStack_ImplicitIterator(t *testing.T) {
	s := NewContextStack(map[string]any{})
	s.Push(42)
	v, ok, err := s.Lookup(".")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestContextStack_LookupDotted(t *testing.T) {
	s := NewContextStack(map[string]any{
		"a":    map[string]any{"b": map[string]any{"c": 5}},
		"c":    "outer c",
		"user": testUser{Name: "Ann"},
	})

	tests := []struct {
		path  string
		want  any
		found bool
	}{
		{"a.b.c", 5, true},
		{"a.b", map[string]any{"c": 5}, true},
		{"a.x.c", nil, false},
		{"a.b.c.d", nil, false},
		{"x.b", nil, false},
		{"user.Name", "Ann", true},
		{"user.greeting", "hi Ann", true},
		{"c", "outer c", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v, ok, err := s.LookupDotted(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestContextStack_DottedSegmentsDoNotSearchLowerFrames(t *testing.T) {
	s := NewContextStack(map[string]any{"c": "outer"})
	s.Push(map[string]any{"a": map[string]any{}})
	_, ok, err := s.LookupDotted("a.c")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveIn_Struct(t *testing.T) {
	nick := "annie"
	u := testUser{Name: "Ann", Email: "ann@example.com", Nickname: &nick, secret: "x"}

	tests := []struct {
		name  string
		frame any
		key   string
		want  any
		found bool
	}{
		{"exact field", u, "Name", "Ann", true},
		{"capitalized field", u, "name", "Ann", true},
		{"tagged field", u, "email_address", "ann@example.com", true},
		{"pointer field", u, "Nickname", &nick, true},
		{"unexported field", u, "secret", nil, false},
		{"value method", u, "Greeting", "hi Ann", true},
		{"capitalized method", u, "greeting", "hi Ann", true},
		{"pointer method on value", u, "Shout", "Ann!", true},
		{"pointer method on pointer", &u, "shout", "Ann!", true},
		{"field through pointer", &u, "Name", "Ann", true},
		{"method with nil error", u, "works", "ok", true},
		{"missing", u, "nope", nil, false},
		{"nil pointer field", testUser{}, "Nickname", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok, err := ResolveIn(tt.frame, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestResolveIn_AccessorError(t *testing.T) {
	_, ok, err := ResolveIn(testUser{}, "Fails")
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrAccessorFailed)

	var accErr *AccessorError
	require.ErrorAs(t, err, &accErr)
	assert.Equal(t, "Fails", accErr.Name)
	assert.EqualError(t, errors.Unwrap(err), "boom")
}

func TestResolveIn_MapFunc(t *testing.T) {
	calls := 0
	frame := map[string]any{
		"lazy": func() string { calls++; return "computed" },
		"bad":  func() (int, error) { return 0, errors.New("nope") },
		"arg":  func(int) string { return "x" },
	}

	v, ok, err := ResolveIn(frame, "lazy")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "computed", v)
	assert.Equal(t, 1, calls)

	_, _, err = ResolveIn(frame, "bad")
	assert.ErrorIs(t, err, ErrAccessorFailed)

	v, ok, err = ResolveIn(frame, "arg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestResolveIn_Maps(t *testing.T) {
	type key string
	v, ok, err := ResolveIn(map[key]int{"n": 3}, "n")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok, _ = ResolveIn(map[string]string{"s": "v"}, "s")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok, _ = ResolveIn(map[int]string{1: "v"}, "1")
	assert.False(t, ok)
}

func TestResolveIn_Lookuper(t *testing.T) {
	v, ok, err := ResolveIn(testLookuper{"n": 7}, "n")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok, _ = ResolveIn(testLookuper{}, "n")
	assert.False(t, ok)
}

func TestResolveIn_Scalars(t *testing.T) {
	for _, frame := range []any{nil, 1, "s", true, []int{1}} {
		_, ok, err := ResolveIn(frame, "x")
		require.NoError(t, err)
		assert.False(t, ok)
	}
}
