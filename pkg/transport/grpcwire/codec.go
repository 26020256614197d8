package grpcwire

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// codecName is negotiated as the gRPC content-subtype in place of
// "proto", so every call on this package's connections is marshaled
// with encoding/gob instead of protobuf.
const codecName = "gob"

func init() {
	encoding.RegisterCodec(gobCodec{})
}

// gobCodec implements encoding.Codec (the interface grpc-go's own
// "proto" codec satisfies) on top of the standard library's gob
// encoder, so this package never needs a .proto file or generated
// marshal code.
type gobCodec struct{}

func (gobCodec) Name() string { return codecName }

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
