package codec

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// JSONCodec decodes JSON objects and arrays
type JSONCodec struct{}

// Decode maps each object field to a scalar: int64, float64, bool, nil or
// string. Nested objects and arrays are kept with their numbers converted
// the same way.
func (c *JSONCodec) Decode(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, errors.Join(ErrInvalidBody, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Join(ErrInvalidBody, errors.New("trailing data after JSON value"))
	}

	switch x := root.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[k] = scalar(v)
		}
		return out, nil
	case []any:
		return map[string]any{ArrayKey: scalar(x)}, nil
	default:
		return nil, errors.Join(ErrInvalidBody, errors.New("JSON body must be an object or an array"))
	}
}

func (c *JSONCodec) DecodeInto(raw string, v any) error {
	return json.Unmarshal([]byte(raw), v)
}

func (c *JSONCodec) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *JSONCodec) Name() string {
	return "json"
}

func scalar(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = scalar(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = scalar(e)
		}
		return out
	default:
		return x
	}
}
