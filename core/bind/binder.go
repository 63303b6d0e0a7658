package bind

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/searchktools/webserver/core/codec"
	"github.com/searchktools/webserver/core/http"
)

var (
	ErrMissingValue = errors.New("missing value")
	ErrUnbound      = errors.New("no codec can bind the body")
)

// BindError reports the argument that could not be bound
type BindError struct {
	Param string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind parameter %q: %v", e.Param, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Binder builds handler arguments from a decoded request
type Binder struct {
	codecs *codec.Registry
}

// NewBinder creates a binder decoding object arguments with codecs
func NewBinder(codecs *codec.Registry) *Binder {
	return &Binder{codecs: codecs}
}

// Bind returns the argument list for h, in declaration order.
//
// Primitive arguments are looked up by name in the decoded body, then in
// the path parameters. List arguments take the array of an array-rooted
// body. Any other argument is decoded from the raw body with the codec of
// the request content type.
func (b *Binder) Bind(h *Handler, req *http.Request, resp *http.Response) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(h.params))
	for i, p := range h.params {
		v, err := b.bindParam(h, p, req, resp)
		if err != nil {
			return nil, &BindError{Param: p.Name, Err: err}
		}
		args[i] = v
	}
	return args, nil
}

func (b *Binder) bindParam(h *Handler, p Param, req *http.Request, resp *http.Response) (reflect.Value, error) {
	switch p.Kind {
	case KindController:
		return h.controller, nil
	case KindRequest:
		return reflect.ValueOf(req), nil
	case KindResponse:
		return reflect.ValueOf(resp), nil
	case KindContext:
		return reflect.ValueOf(req.Context()), nil
	case KindList:
		if arr, ok := req.DecodedBody[codec.ArrayKey]; ok {
			return Coerce(arr, p.Type)
		}
		if v, ok := lookup(p.Name, req); ok {
			return Coerce(v, p.Type)
		}
		return b.bindObject(p, req)
	case KindPrimitive:
		v, ok := lookup(p.Name, req)
		if !ok {
			return reflect.Value{}, ErrMissingValue
		}
		return Coerce(v, p.Type)
	default:
		return b.bindObject(p, req)
	}
}

func (b *Binder) bindObject(p Param, req *http.Request) (reflect.Value, error) {
	ct := req.ContentType()
	if ct == "" || b.codecs == nil {
		return reflect.Value{}, ErrUnbound
	}
	if _, ok := b.codecs.Lookup(ct); !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnbound, ct)
	}

	t := p.Type
	isPtr := t.Kind() == reflect.Pointer
	if isPtr {
		t = t.Elem()
	}
	ptr := reflect.New(t)
	if err := b.codecs.DecodeInto(ct, req.RawBody, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	if isPtr {
		return ptr, nil
	}
	return ptr.Elem(), nil
}

// CheckPathParams reports whether every captured path parameter converts to
// the type of the handler argument with the same name. Nothing is kept: the
// route table uses it to reject a candidate route.
func CheckPathParams(h *Handler, params map[string]string) error {
	for _, p := range h.params {
		raw, ok := params[p.Name]
		if !ok || p.Name == "" {
			continue
		}
		switch p.Kind {
		case KindPrimitive, KindList:
			if _, err := Coerce(raw, p.Type); err != nil {
				return &BindError{Param: p.Name, Err: err}
			}
		}
	}
	return nil
}

func lookup(name string, req *http.Request) (any, bool) {
	if v, ok := req.DecodedBody[name]; ok {
		return v, true
	}
	if v, ok := req.PathParameters[name]; ok {
		return v, true
	}
	return nil, false
}

// splitList splits a comma separated list, as used for list arguments bound
// from query strings and path segments
func splitList(s string) []any {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
