package serializer

import "github.com/sfdaemon/dapi/rpc/common"

// IRPCSerializer is the message codec used on the wire.
// The framing layer never looks into the bytes it produces.
type IRPCSerializer interface {
	// Serialize encodes a Message into its payload bytes.
	// The payload length is what the frame length prefix carries.
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes a payload into msg, replacing its previous content
	Deserialize(b []byte, msg *common.Message) error
}

// Names lists the names accepted by ByName
var Names = []string{"binary", "json", "gob"}

// ByName returns the serializer registered under name
func ByName(name string) (IRPCSerializer, bool) {
	switch name {
	case "binary":
		return NewBinarySerializer(), true
	case "json":
		return NewJSONSerializer(), true
	case "gob":
		return NewGOBSerializer(), true
	default:
		return nil, false
	}
}
