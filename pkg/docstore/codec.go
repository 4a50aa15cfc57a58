package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec converts records to and from the stored JSON representation.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

// KeyShapeCodec stores sequences as index-keyed maps and recognises them on
// read by their key shape.
type KeyShapeCodec struct{}

func (KeyShapeCodec) Encode(v any) ([]byte, error) {
	return encode(v, Flatten)
}

func (KeyShapeCodec) Decode(data []byte, out any) error {
	return decode(data, out, Unflatten)
}

// TaggedCodec stores sequences as index-keyed maps carrying a SeqKey marker.
type TaggedCodec struct{}

func (TaggedCodec) Encode(v any) ([]byte, error) {
	return encode(v, FlattenTagged)
}

func (TaggedCodec) Decode(data []byte, out any) error {
	return decode(data, out, UnflattenTagged)
}

// NewCodec picks the codec for the tagged-arrays setting.
func NewCodec(tagged bool) Codec {
	if tagged {
		return TaggedCodec{}
	}
	return KeyShapeCodec{}
}

func encode(v any, transform func(any) any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	generic, err := toGeneric(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(transform(generic))
}

func decode(data []byte, out any, transform func(any) any) error {
	generic, err := toGeneric(data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(transform(generic))
	if err != nil {
		return fmt.Errorf("marshal decoded document: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}

// toGeneric decodes JSON keeping numbers as json.Number so large integers survive.
func toGeneric(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode document json: %w", err)
	}
	return v, nil
}
