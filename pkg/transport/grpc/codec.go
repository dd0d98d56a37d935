package grpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is both the registered encoding.Codec name and the gRPC
// content-subtype this server forces on every connection, so clients never
// need a protobuf-generated stub: any gRPC client that can send
// "application/grpc+json" framed messages can talk to this service.
const codecName = "json"

// jsonCodec implements encoding.Codec by marshaling messages as plain JSON
// instead of protobuf wire format. This avoids hand-authoring .pb.go files
// with unreproducible FileDescriptorProto byte strings for a service this
// small — see SPEC_FULL.md §4.6.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec: marshal: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec: unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
