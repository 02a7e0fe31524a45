package service

import "encoding/json"

// jsonCodec lets Connect carry plain Go structs as JSON. It is registered
// under the name "json", replacing the built-in protobuf JSON codec, so it
// answers the application/json content type.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
