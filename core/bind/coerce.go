package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

var ErrUnsupportedType = errors.New("unsupported parameter type")

// Coerce converts a bound value to t.
//
// Strings pass through; integers and floats are parsed from the value's
// text form; booleans accept only "true" and "false". Lists accept a decoded
// array or a comma separated string and coerce every element.
func Coerce(v any, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.String:
		out.SetString(text(v))
	case reflect.Bool:
		switch text(v) {
		case "true":
			out.SetBool(true)
		case "false":
			out.SetBool(false)
		default:
			return reflect.Value{}, fmt.Errorf("%q is not a boolean", text(v))
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text(v), 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text(v), 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text(v), t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(f)
	case reflect.Slice:
		elems, err := elements(v)
		if err != nil {
			return reflect.Value{}, err
		}
		out = reflect.MakeSlice(t, len(elems), len(elems))
		for i, e := range elems {
			ev, err := coerceElem(e, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
	case reflect.Array:
		elems, err := elements(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(elems) != t.Len() {
			return reflect.Value{}, fmt.Errorf("want %d elements, got %d", t.Len(), len(elems))
		}
		for i, e := range elems {
			ev, err := coerceElem(e, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
	case reflect.Interface:
		if v == nil {
			return out, nil
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}
		out.Set(rv)
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}

	return out, nil
}

func coerceElem(v any, t reflect.Type) (reflect.Value, error) {
	if kindOf(t) != KindObject || t.Kind() == reflect.Interface {
		return Coerce(v, t)
	}

	// struct and map elements of an array body
	ptr := reflect.New(t)
	if err := mapstructure.WeakDecode(v, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

func elements(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case string:
		return splitList(x), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%T is not a list", v)
	}
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
