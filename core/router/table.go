package router

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/searchktools/webserver/core/bind"
)

var (
	ErrRouteNotFound  = errors.New("route not found")
	ErrInvalidPattern = errors.New("invalid route pattern")
)

// paramSegment is what a :name segment accepts
const paramSegment = `([A-Za-z0-9.]+)`

// Entry is one registered (verb, pattern, handler) route
type Entry struct {
	Verb    string
	Pattern string
	Handler *bind.Handler

	params  []string
	matcher *regexp.Regexp
}

// Params returns the path parameter names of the pattern, in order
func (e *Entry) Params() []string {
	return e.params
}

// match tests a route key against the entry. Parameterized entries return
// the captured segments.
func (e *Entry) match(verb, path string) (map[string]string, bool) {
	if !strings.EqualFold(e.Verb, verb) {
		return nil, false
	}
	if e.matcher == nil {
		return nil, e.Pattern == path
	}

	m := e.matcher.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(e.params))
	for i, name := range e.params {
		params[name] = m[i+1]
	}
	return params, true
}

// Table is the ordered route table. Routes are tried in registration order
// and the first match wins, so specific routes must be added before general
// ones. The table is built before serving and read-only afterwards.
type Table struct {
	entries []*Entry
}

// NewTable creates an empty route table
func NewTable() *Table {
	return &Table{}
}

// Add registers handler for verb and pattern. The pattern is a route key
// (see http.RouteKey); a leading '/' is ignored and ":name" segments bind
// path parameters.
func (t *Table) Add(verb, pattern string, handler *bind.Handler) (*Entry, error) {
	if verb == "" || handler == nil {
		return nil, fmt.Errorf("%w: verb and handler are required", ErrInvalidPattern)
	}

	e := &Entry{
		Verb:    strings.ToUpper(verb),
		Pattern: normalize(pattern),
		Handler: handler,
	}
	if err := e.compile(); err != nil {
		return nil, err
	}

	t.entries = append(t.entries, e)
	return e, nil
}

// Mount registers every route declared by c, prefixed with its path
func (t *Table) Mount(c *Controller) error {
	if c.err != nil {
		return c.err
	}
	for _, r := range c.routes {
		h, err := bind.NewHandler(c.instance, r.fn, r.params...)
		if err != nil {
			return fmt.Errorf("route %s: %w", join(c.prefix, r.path), err)
		}
		for _, verb := range r.verbs {
			if _, err := t.Add(verb, join(c.prefix, r.path), h); err != nil {
				return err
			}
		}
	}
	return nil
}

// Resolve returns the first entry matching verb and the route key path,
// with its captured path parameters.
//
// A parameterized entry only matches if every captured value converts to
// the type of the handler argument of the same name; otherwise resolution
// moves on to the next entry. The request is never modified.
func (t *Table) Resolve(verb, path string) (*Entry, map[string]string, error) {
	for _, e := range t.entries {
		params, ok := e.match(verb, path)
		if !ok {
			continue
		}
		if e.matcher != nil {
			if err := bind.CheckPathParams(e.Handler, params); err != nil {
				continue
			}
		}
		return e, params, nil
	}
	return nil, nil, fmt.Errorf("%w: %s /%s", ErrRouteNotFound, verb, path)
}

// Entries returns the registered entries in registration order
func (t *Table) Entries() []*Entry {
	return t.entries
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

func (e *Entry) compile() error {
	segments := strings.Split(e.Pattern, "/")
	var expr strings.Builder
	expr.WriteByte('^')

	seen := make(map[string]bool)
	for i, seg := range segments {
		if i > 0 {
			expr.WriteByte('/')
		}
		if !strings.HasPrefix(seg, ":") {
			expr.WriteString(regexp.QuoteMeta(seg))
			continue
		}

		name := seg[1:]
		if name == "" || seen[name] {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, e.Pattern)
		}
		seen[name] = true
		e.params = append(e.params, name)
		expr.WriteString(paramSegment)
	}
	expr.WriteByte('$')

	if len(e.params) == 0 {
		return nil
	}

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, e.Pattern, err)
	}
	e.matcher = re
	return nil
}

// normalize turns a declared path into the route key form
func normalize(pattern string) string {
	p := strings.TrimPrefix(pattern, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index"
	}
	return p
}

func join(prefix, path string) string {
	prefix = strings.Trim(prefix, "/")
	path = strings.TrimPrefix(path, "/")
	if prefix == "" {
		return path
	}
	return prefix + "/" + path
}
