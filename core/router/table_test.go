package router

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchktools/webserver/core/bind"
)

func handler(t *testing.T, fn any, params ...string) *bind.Handler {
	t.Helper()
	h, err := bind.NewHandler(nil, fn, params...)
	require.NoError(t, err)
	return h
}

// TestTableStatic tests basic static routing
func TestTableStatic(t *testing.T) {
	table := NewTable()

	noop := handler(t, func() {})
	_, err := table.Add("GET", "/", noop)
	require.NoError(t, err)
	_, err = table.Add("GET", "/hello", noop)
	require.NoError(t, err)
	_, err = table.Add("get", "hello/world", noop)
	require.NoError(t, err)

	testCases := []struct {
		Verb  string
		Path  string
		Match bool
	}{
		{Verb: "GET", Path: "index", Match: true},
		{Verb: "GET", Path: "hello", Match: true},
		{Verb: "get", Path: "hello", Match: true},
		{Verb: "GET", Path: "hello/world", Match: true},
		{Verb: "POST", Path: "hello", Match: false},
		{Verb: "GET", Path: "notfound", Match: false},
		{Verb: "GET", Path: "hello/world/again", Match: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Verb+" "+testCase.Path, func(t *testing.T) {
			e, params, err := table.Resolve(testCase.Verb, testCase.Path)
			if !testCase.Match {
				assert.ErrorIs(t, err, ErrRouteNotFound)
				assert.Nil(t, e)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, params)
		})
	}
}

func TestTableParams(t *testing.T) {
	table := NewTable()

	file := handler(t, func(file string) string { return file }, "file")
	_, err := table.Add("GET", "/staticUrl/:file", file)
	require.NoError(t, err)

	e, params, err := table.Resolve("GET", "staticUrl/teste.txt")
	require.NoError(t, err)
	assert.Equal(t, "staticUrl/:file", e.Pattern)
	assert.Equal(t, []string{"file"}, e.Params())
	assert.Equal(t, map[string]string{"file": "teste.txt"}, params)

	testCases := []string{
		"staticUrl",
		"staticUrl/",
		"staticUrl/a/b",
		"staticUrl/bad-name",
		"staticUrl/a_b",
		"staticurl/teste.txt",
	}
	for _, path := range testCases {
		t.Run(path, func(t *testing.T) {
			_, _, err := table.Resolve("GET", path)
			assert.ErrorIs(t, err, ErrRouteNotFound)
		})
	}
}

func TestTableMultipleParams(t *testing.T) {
	table := NewTable()
	_, err := table.Add("GET", "repos/:owner/files/:name", handler(t, func(owner, name string) {}, "owner", "name"))
	require.NoError(t, err)

	_, params, err := table.Resolve("GET", "repos/natan/files/a.go")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"owner": "natan", "name": "a.go"}, params)
}

// TestTableOrder tests that the first registered match wins
func TestTableOrder(t *testing.T) {
	table := NewTable()

	exact, err := table.Add("GET", "user/admin", handler(t, func() {}))
	require.NoError(t, err)
	byID, err := table.Add("GET", "user/:id", handler(t, func(id int) {}, "id"))
	require.NoError(t, err)
	byName, err := table.Add("GET", "user/:name", handler(t, func(name string) {}, "name"))
	require.NoError(t, err)

	testCases := []struct {
		Path   string
		Entry  *Entry
		Params map[string]string
	}{
		{Path: "user/admin", Entry: exact},
		{Path: "user/123", Entry: byID, Params: map[string]string{"id": "123"}},
		{Path: "user/bob", Entry: byName, Params: map[string]string{"name": "bob"}},
		{Path: "user/1.5", Entry: byName, Params: map[string]string{"name": "1.5"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Path, func(t *testing.T) {
			e, params, err := table.Resolve("GET", testCase.Path)
			require.NoError(t, err)
			assert.Same(t, testCase.Entry, e)
			assert.Equal(t, testCase.Params, params)
		})
	}
}

func TestTableRejectsUnbindableParams(t *testing.T) {
	table := NewTable()
	_, err := table.Add("GET", "items/:id", handler(t, func(id int) {}, "id"))
	require.NoError(t, err)

	_, _, err = table.Resolve("GET", "items/abc")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestTableRoundTrip(t *testing.T) {
	routes := []struct {
		Verb string
		Path string
	}{
		{Verb: "GET", Path: "ola"},
		{Verb: "POST", Path: "ola"},
		{Verb: "GET", Path: "a/b"},
		{Verb: "DELETE", Path: "a/b"},
		{Verb: "PUT", Path: "index"},
	}

	// every rotation of the registration order resolves each route to itself
	for shift := range routes {
		t.Run(fmt.Sprintf("rotation %d", shift), func(t *testing.T) {
			table := NewTable()
			want := make(map[string]*Entry)
			for i := range routes {
				r := routes[(i+shift)%len(routes)]
				e, err := table.Add(r.Verb, r.Path, handler(t, func() {}))
				require.NoError(t, err)
				want[r.Verb+" "+r.Path] = e
			}

			for _, r := range routes {
				e, _, err := table.Resolve(r.Verb, r.Path)
				require.NoError(t, err)
				assert.Same(t, want[r.Verb+" "+r.Path], e)
			}
		})
	}
}

func TestTableInvalidPatterns(t *testing.T) {
	table := NewTable()
	noop := handler(t, func(a string) {}, "a")

	_, err := table.Add("GET", "x/:", noop)
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = table.Add("GET", "x/:a/:a", noop)
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = table.Add("", "x", noop)
	assert.ErrorIs(t, err, ErrInvalidPattern)

	assert.Equal(t, 0, table.Len())
}

type hello struct{}

func (h *hello) Index() string           { return "ola!" }
func (h *hello) Ola(name string) string  { return "ola " + name + "!" }
func (h *hello) File(file string) string { return file }

func TestMountController(t *testing.T) {
	c := NewController("/", &hello{}).
		Get("index", (*hello).Index).
		Handle([]string{"get", "post"}, "ola", (*hello).Ola, "name").
		Get("/staticUrl/:file", (*hello).File, "file")

	table := NewTable()
	require.NoError(t, table.Mount(c))
	require.Equal(t, 4, table.Len())

	var keys []string
	for _, e := range table.Entries() {
		keys = append(keys, e.Verb+" "+e.Pattern)
	}
	assert.Equal(t, []string{"GET index", "GET ola", "POST ola", "GET staticUrl/:file"}, keys)

	get, _, err := table.Resolve("GET", "ola")
	require.NoError(t, err)
	post, _, err := table.Resolve("POST", "ola")
	require.NoError(t, err)
	assert.Same(t, get.Handler, post.Handler)
}

func TestMountPrefix(t *testing.T) {
	c := NewController("/api/", &hello{}).
		Get("index", (*hello).Index).
		Get("ola", (*hello).Ola, "name")

	table := NewTable()
	require.NoError(t, table.Mount(c))

	_, _, err := table.Resolve("GET", "api/ola")
	assert.NoError(t, err)
	_, _, err = table.Resolve("GET", "api/index")
	assert.NoError(t, err)
	_, _, err = table.Resolve("GET", "ola")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func healthCheck() string { return "ok" }

func TestMountDefaultPath(t *testing.T) {
	h := &hello{}
	c := NewController("/api", h).
		Get("", (*hello).Index).
		Handle([]string{"GET", "POST"}, "", (*hello).Ola, "name").
		Get("", h.File, "file").
		Get("", healthCheck)

	table := NewTable()
	require.NoError(t, table.Mount(c))

	var keys []string
	for _, e := range table.Entries() {
		keys = append(keys, e.Verb+" "+e.Pattern)
	}
	assert.Equal(t, []string{
		"GET api/index",
		"GET api/ola",
		"POST api/ola",
		"GET api/file",
		"GET api/healthCheck",
	}, keys)
}

func TestMountErrors(t *testing.T) {
	t.Run("should report a handler whose names do not fit", func(t *testing.T) {
		c := NewController("/", &hello{}).Get("ola", (*hello).Ola)
		assert.ErrorIs(t, NewTable().Mount(c), bind.ErrInvalidHandler)
	})

	t.Run("should report an anonymous handler without a path", func(t *testing.T) {
		c := NewController("/", nil).Get("", func() string { return "" })
		assert.ErrorIs(t, NewTable().Mount(c), ErrNoPath)
	})

	t.Run("should report a route without verbs", func(t *testing.T) {
		c := NewController("/", &hello{}).Handle(nil, "index", (*hello).Index)
		assert.ErrorIs(t, NewTable().Mount(c), ErrNoVerb)
	})
}

// Benchmarks
func BenchmarkTableStatic(b *testing.B) {
	table := NewTable()
	h, _ := bind.NewHandler(nil, func() {})
	table.Add("GET", "/hello/world", h)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table.Resolve("GET", "hello/world")
	}
}

func BenchmarkTableParam(b *testing.B) {
	table := NewTable()
	h, _ := bind.NewHandler(nil, func(id int) {}, "id")
	table.Add("GET", "/user/:id", h)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table.Resolve("GET", "user/123")
	}
}
