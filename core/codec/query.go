package codec

import (
	"errors"
	"net/url"
)

// QueryCodec decodes key=value&key=value bodies, as sent in query strings
// and urlencoded forms. Repeated keys keep their first value.
type QueryCodec struct{}

func (c *QueryCodec) Decode(raw string) (map[string]any, error) {
	out := make(map[string]any)
	if raw == "" {
		return out, nil
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidBody, err)
	}
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out, nil
}

// DecodeInto fills the struct pointed to by v from the decoded fields,
// matching field names or json tags.
func (c *QueryCodec) DecodeInto(raw string, v any) error {
	m, err := c.Decode(raw)
	if err != nil {
		return err
	}
	return decodeMap(m, v)
}

func (c *QueryCodec) Encode(v any) (string, error) {
	return Text(v), nil
}

func (c *QueryCodec) Name() string {
	return "query"
}
