// Package serializer provides the message codec of dapi. It turns a
// common.Message into the opaque payload carried inside a length-prefixed
// frame and back.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format. One byte for the message code,
//     one flag byte telling which payloads follow, then each present payload with
//     big-endian integers and length-prefixed strings. This is the default.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging the wire.
//
//   - gobSerializerImpl: Go's gob encoding. Each payload carries its own type
//     description, so it is the largest of the three.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use.
//
// Usage:
//
//	s := serializer.NewBinarySerializer()
//	payload, err := s.Serialize(*common.NewServiceListRequest())
//	// ... frame and send payload ...
//	var resp common.Message
//	err = s.Deserialize(received, &resp)
package serializer
