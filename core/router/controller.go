package router

import (
	"errors"
	"reflect"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrNoVerb = errors.New("route declares no verb")
	ErrNoPath = errors.New("route declares no path and its handler has no name")
)

type route struct {
	verbs  []string
	path   string
	fn     any
	params []string
}

// Controller groups handlers under a path prefix. It replaces annotation
// scanning: routes are declared explicitly and mounted on a Table before
// the server starts.
//
//	c := router.NewController("/", hello)
//	c.Get("index", (*Hello).Index)
//	c.Handle([]string{"GET", "POST"}, "ola", (*Hello).Ola, "name")
//	c.Get("staticUrl/:file", (*Hello).StaticURL, "file")
type Controller struct {
	prefix   string
	instance any
	routes   []route
	err      error
}

// NewController creates a controller mounted under prefix. instance is
// injected into handler arguments of its type; it may be nil.
func NewController(prefix string, instance any) *Controller {
	return &Controller{prefix: prefix, instance: instance}
}

// Prefix returns the controller path prefix
func (c *Controller) Prefix() string {
	return c.prefix
}

// Instance returns the controller value
func (c *Controller) Instance() any {
	return c.instance
}

// Get declares a GET handler. path is an explicit sub path; when empty the
// handler's name is used, with its first letter lower-cased ("WhoAre"
// mounts as "whoAre"). params name the bindable arguments of fn in order.
func (c *Controller) Get(path string, fn any, params ...string) *Controller {
	return c.Handle([]string{"GET"}, path, fn, params...)
}

// Post declares a POST handler
func (c *Controller) Post(path string, fn any, params ...string) *Controller {
	return c.Handle([]string{"POST"}, path, fn, params...)
}

// Put declares a PUT handler
func (c *Controller) Put(path string, fn any, params ...string) *Controller {
	return c.Handle([]string{"PUT"}, path, fn, params...)
}

// Delete declares a DELETE handler
func (c *Controller) Delete(path string, fn any, params ...string) *Controller {
	return c.Handle([]string{"DELETE"}, path, fn, params...)
}

// Patch declares a PATCH handler
func (c *Controller) Patch(path string, fn any, params ...string) *Controller {
	return c.Handle([]string{"PATCH"}, path, fn, params...)
}

// Handle declares fn for every verb in verbs. The first error is kept and
// returned by Table.Mount.
func (c *Controller) Handle(verbs []string, path string, fn any, params ...string) *Controller {
	if len(verbs) == 0 && c.err == nil {
		c.err = ErrNoVerb
		return c
	}
	if path == "" {
		name, ok := handlerName(fn)
		if !ok {
			if c.err == nil {
				c.err = ErrNoPath
			}
			return c
		}
		path = name
	}

	upper := make([]string, len(verbs))
	for i, v := range verbs {
		upper[i] = strings.ToUpper(v)
	}
	c.routes = append(c.routes, route{
		verbs:  upper,
		path:   path,
		fn:     fn,
		params: params,
	})
	return c
}

// handlerName derives a route path from a named function or method
// expression. Closures have no usable name.
func handlerName(fn any) (string, bool) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return "", false
	}
	f := runtime.FuncForPC(fv.Pointer())
	if f == nil {
		return "", false
	}

	name := f.Name()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if name == "" || isClosureName(name) {
		return "", false
	}

	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:], true
}

// isClosureName matches the compiler's closure names: "func1" at the top
// level and a bare "1" for closures nested in closures
func isClosureName(name string) bool {
	digits := strings.TrimPrefix(name, "func")
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
