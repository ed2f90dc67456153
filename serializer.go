package natsline

import "encoding/json"

// Serializer is the out-of-scope collaborator of spec.md §6: the core only
// depends on its shape, never a specific implementation beyond the default.
type Serializer interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, v any) error
	ContentType() string
}

// DefaultSerializer is JSON: empty input deserializes as JSON null (pointer,
// interface, map and slice targets become nil). When decoding fails and v is
// a *[]byte, the raw bytes are stored in v unchanged (since payloads may be
// plain text) and no error is returned; for any other target a failed decode
// returns a *SerializationErr.
type DefaultSerializer struct{}

func (DefaultSerializer) Serialize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	enc := json.Marshal
	data, err := enc(v)
	if err != nil {
		return nil, &SerializationErr{Err: err}
	}
	return data, nil
}

func (DefaultSerializer) Deserialize(data []byte, v any) error {
	if len(data) == 0 {
		data = []byte("null")
	}
	if err := json.Unmarshal(data, v); err != nil {
		if raw, ok := v.(*[]byte); ok {
			*raw = data
			return nil
		}
		return &SerializationErr{Err: err}
	}
	return nil
}

func (DefaultSerializer) ContentType() string { return "application/json" }

// SerializationErr wraps ErrSerialization with the underlying encode/decode
// failure.
type SerializationErr struct{ Err error }

func (e *SerializationErr) Error() string { return "natsline: serialization: " + e.Err.Error() }
func (e *SerializationErr) Unwrap() error { return ErrSerialization }
