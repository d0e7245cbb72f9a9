package server

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// jsonCodec speaks connect's "json" codec for plain Go messages and
// falls back to protojson for generated ones.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

// Payload carries a render payload as a protobuf Struct.
type Payload struct {
	*structpb.Struct
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Struct == nil {
		return []byte("null"), nil
	}
	return protojson.Marshal(p.Struct)
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	p.Struct = &structpb.Struct{}
	return protojson.Unmarshal(data, p.Struct)
}

// toPayload round-trips v through JSON so every field lands as a Struct value.
func toPayload(v any) (*Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload struct: %w", err)
	}
	return &Payload{Struct: s}, nil
}
