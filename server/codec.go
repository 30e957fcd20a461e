package server

import (
	"fmt"

	"connectrpc.com/connect"
	json "github.com/goccy/go-json"
)

// jsonCodec carries plain Go message structs over Connect. It replaces the
// protobuf JSON codec, which only handles generated messages.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("server: unmarshal %T: %w", msg, err)
	}
	return nil
}

// withJSON configures handlers and clients to speak JSON.
func withJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
