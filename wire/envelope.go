// Package wire defines the envelope callers serialize request payloads
// into, with pluggable codecs. The sender itself treats payload bytes as
// opaque; wire is the convention engines such as engine/loopback speak.
package wire

import "encoding/json"

// Envelope is the serialized request payload envelope: a method name plus
// method-specific data.
type Envelope struct {
	// Method names the remote operation, e.g. "messages.send".
	Method string `json:"method" msgpack:"method"`

	// Data carries the method-specific payload.
	Data json.RawMessage `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Codec defines the serialization contract for envelopes.
type Codec interface {
	// Encode serializes an envelope to bytes.
	Encode(env *Envelope) ([]byte, error)

	// Decode deserializes bytes into an envelope.
	Decode(data []byte) (*Envelope, error)

	// Name returns the codec identifier (e.g., "json", "msgpack").
	Name() string
}

// CodecName constants for format negotiation.
const (
	CodecNameJSON    = "json"
	CodecNameMsgpack = "msgpack"
)

// GetCodec returns a codec by name. Defaults to JSON.
func GetCodec(name string) Codec {
	switch name {
	case CodecNameMsgpack:
		return &MsgpackCodec{}
	case CodecNameJSON, "":
		return &JSONCodec{}
	default:
		return &JSONCodec{}
	}
}
