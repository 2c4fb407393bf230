package base

import (
	"encoding/binary"
	"fmt"
	"github.com/sfdaemon/dapi/rpc/transport"
	"io"
	"math"
	"net"
)

// frameHeaderSize is the size of the length prefix of every frame
const frameHeaderSize = 4

// writeFrame writes a frame to the connection with the format:
// - 4 bytes: payload length (uint32, big endian)
// - N bytes: payload
func writeFrame(conn net.Conn, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", transport.ErrFrameTooLarge, len(payload))
	}

	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))

	// length prefix and payload leave in call order, as one write where the conn supports it
	b := net.Buffers{header, payload}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads one complete frame from a blocking reader.
// Frames larger than maxSize (if > 0) are rejected before allocating.
func readFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if maxSize > 0 && uint64(length) > uint64(maxSize) {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", transport.ErrFrameTooLarge, length, maxSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
