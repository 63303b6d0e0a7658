package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ArrayKey is the reserved key holding the elements of an array-rooted body
const ArrayKey = "_"

// Content types registered by NewRegistry
const (
	ContentTypeJSON     = "application/json"
	ContentTypeForm     = "application/x-www-form-urlencoded"
	ContentTypeHTML     = "text/html"
	ContentTypeText     = "text/plain"
	ContentTypeProtobuf = "application/x-protobuf"
	ContentTypeQuery    = "<query-string>"
)

var (
	ErrMissingContentType     = errors.New("missing content type")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrInvalidBody            = errors.New("invalid body")
)

// Codec converts request bodies into values and response values into text
type Codec interface {
	// Decode turns a raw body into a field map. Array-rooted bodies are
	// returned under ArrayKey.
	Decode(raw string) (map[string]any, error)

	// DecodeInto decodes a raw body into the value pointed to by v
	DecodeInto(raw string, v any) error

	// Encode renders a handler result as a response body
	Encode(v any) (string, error)

	// Name returns the codec name
	Name() string
}

// Registry maps content types to codecs. It is filled before the server
// starts and only read afterwards.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry creates a registry with the JSON, query string, form, HTML and
// protobuf codecs registered
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[string]Codec)}

	query := &QueryCodec{}
	r.Register(ContentTypeJSON, &JSONCodec{})
	r.Register(ContentTypeQuery, query)
	r.Register(ContentTypeForm, query)
	r.Register(ContentTypeHTML, query)
	r.Register(ContentTypeText, query)
	r.Register(ContentTypeProtobuf, &ProtobufCodec{})

	return r
}

// Register adds or replaces the codec for contentType
func (r *Registry) Register(contentType string, c Codec) {
	r.codecs[strings.ToLower(contentType)] = c
}

// Lookup returns the codec registered for contentType
func (r *Registry) Lookup(contentType string) (Codec, bool) {
	c, ok := r.codecs[strings.ToLower(contentType)]
	return c, ok
}

// Decode decodes raw with the codec registered for contentType
func (r *Registry) Decode(contentType, raw string) (map[string]any, error) {
	c, err := r.codecFor(contentType)
	if err != nil {
		return nil, err
	}

	m, err := c.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}
	return m, nil
}

// DecodeInto decodes raw into v with the codec registered for contentType
func (r *Registry) DecodeInto(contentType, raw string, v any) error {
	c, err := r.codecFor(contentType)
	if err != nil {
		return err
	}
	return c.DecodeInto(raw, v)
}

// Encode renders v for contentType. Types without a codec get v's plain
// text form.
func (r *Registry) Encode(contentType string, v any) (string, error) {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	c, ok := r.Lookup(strings.TrimSpace(contentType))
	if !ok {
		return Text(v), nil
	}
	return c.Encode(v)
}

func (r *Registry) codecFor(contentType string) (Codec, error) {
	if contentType == "" {
		return nil, ErrMissingContentType
	}
	c, ok := r.Lookup(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	return c, nil
}

// Text returns the plain text form of v; nil renders as the empty string
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	default:
		return fmt.Sprint(x)
	}
}

// decodeMap copies a decoded field map into the struct pointed to by v,
// converting string values to the field types.
func decodeMap(m map[string]any, v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}
