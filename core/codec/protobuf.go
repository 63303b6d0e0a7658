package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtobufCodec reads bodies encoded as a google.protobuf.Struct and
// writes any proto.Message, or plain values as Struct/Value messages.
type ProtobufCodec struct{}

func (c *ProtobufCodec) Decode(raw string) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal([]byte(raw), &s); err != nil {
		return nil, errors.Join(ErrInvalidBody, err)
	}
	return s.AsMap(), nil
}

// DecodeInto unmarshals directly when v is a proto.Message, otherwise it
// decodes a Struct and copies its fields into v.
func (c *ProtobufCodec) DecodeInto(raw string, v any) error {
	if msg, ok := v.(proto.Message); ok {
		return proto.Unmarshal([]byte(raw), msg)
	}
	m, err := c.Decode(raw)
	if err != nil {
		return err
	}
	return decodeMap(m, v)
}

func (c *ProtobufCodec) Encode(v any) (string, error) {
	if msg, ok := v.(proto.Message); ok {
		b, err := proto.Marshal(msg)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	val, err := structpb.NewValue(v)
	if err != nil {
		// structs and typed slices go through their JSON form
		generic, jerr := toGeneric(v)
		if jerr != nil {
			return "", fmt.Errorf("protobuf encode %T: %w", v, err)
		}
		if val, err = structpb.NewValue(generic); err != nil {
			return "", err
		}
	}

	var msg proto.Message = val
	if s := val.GetStructValue(); s != nil {
		msg = s
	}
	b, err := proto.Marshal(msg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *ProtobufCodec) Name() string {
	return "protobuf"
}

func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
