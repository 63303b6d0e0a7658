package bind

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/searchktools/webserver/core/http"
)

// ParamKind classifies a handler argument by how it gets its value
type ParamKind int

const (
	KindPrimitive ParamKind = iota
	KindList
	KindObject
	KindController
	KindRequest
	KindResponse
	KindContext
)

var (
	requestType  = reflect.TypeOf((*http.Request)(nil))
	responseType = reflect.TypeOf((*http.Response)(nil))
	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

var ErrInvalidHandler = errors.New("invalid handler")

// Param is one declared handler argument
type Param struct {
	Name string
	Type reflect.Type
	Kind ParamKind
}

// Handler describes a handler function, its declared arguments and the
// controller that owns it.
type Handler struct {
	fn         reflect.Value
	params     []Param
	controller reflect.Value
	hasResult  bool
	hasError   bool
}

// NewHandler describes fn. Arguments of the controller's type, *http.Request,
// *http.Response and context.Context are injected; every other argument
// takes the next name from names, in order.
//
// fn may return nothing, a value, an error, or a value and an error.
func NewHandler(controller any, fn any, names ...string) (*Handler, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, fmt.Errorf("%w: %T is not a function", ErrInvalidHandler, fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic function %s", ErrInvalidHandler, ft)
	}

	h := &Handler{fn: fv}
	var ctrlType reflect.Type
	if controller != nil {
		h.controller = reflect.ValueOf(controller)
		ctrlType = h.controller.Type()
	}

	next := 0
	for i := 0; i < ft.NumIn(); i++ {
		t := ft.In(i)
		p := Param{Type: t}

		switch {
		case ctrlType != nil && t == ctrlType:
			p.Kind = KindController
		case t == requestType:
			p.Kind = KindRequest
		case t == responseType:
			p.Kind = KindResponse
		case t == contextType:
			p.Kind = KindContext
		default:
			if next >= len(names) {
				return nil, fmt.Errorf("%w: %s has no name for argument %d (%s)", ErrInvalidHandler, ft, i, t)
			}
			p.Name = names[next]
			p.Kind = kindOf(t)
			next++
		}
		h.params = append(h.params, p)
	}
	if next != len(names) {
		return nil, fmt.Errorf("%w: %s declares %d names for %d bindable arguments", ErrInvalidHandler, ft, len(names), next)
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			h.hasError = true
		} else {
			h.hasResult = true
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("%w: second result of %s must be error", ErrInvalidHandler, ft)
		}
		h.hasResult, h.hasError = true, true
	default:
		return nil, fmt.Errorf("%w: %s returns too many values", ErrInvalidHandler, ft)
	}

	return h, nil
}

// Params returns the declared arguments in order
func (h *Handler) Params() []Param {
	return h.params
}

// Controller returns the owning controller, or nil
func (h *Handler) Controller() any {
	if !h.controller.IsValid() {
		return nil
	}
	return h.controller.Interface()
}

// Call invokes the handler with bound arguments and splits its results
func (h *Handler) Call(args []reflect.Value) (any, error) {
	out := h.fn.Call(args)

	var result any
	var err error
	if h.hasResult {
		result = out[0].Interface()
	}
	if h.hasError {
		if e := out[len(out)-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
	}
	return result, err
}

// HasResult reports whether the handler returns a value to encode
func (h *Handler) HasResult() bool {
	return h.hasResult
}

func kindOf(t reflect.Type) ParamKind {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindPrimitive
	case reflect.Slice, reflect.Array:
		return KindList
	default:
		return KindObject
	}
}
