package base

import (
	"encoding/binary"
	"fmt"
	"github.com/sfdaemon/dapi/rpc/transport"
)

// frameDecoder rebuilds frames from arbitrarily chunked stream data.
//
// It is either awaiting a length prefix (expected == -1) or filling the
// body of a frame. A prefix split over several chunks is buffered in
// prefix until all four bytes arrived. Invariant while filling a body:
// read <= expected. The decoder is not safe for concurrent use, it is
// owned by the read loop of a single connection.
type frameDecoder struct {
	maxSize int

	prefix    [frameHeaderSize]byte
	prefixLen int

	expected int64
	buf      []byte
	read     int64
}

func newFrameDecoder(maxSize int) *frameDecoder {
	d := &frameDecoder{maxSize: maxSize}
	d.reset()
	return d
}

// reset returns to the "awaiting length prefix" state
func (d *frameDecoder) reset() {
	d.prefixLen = 0
	d.expected = -1
	d.buf = nil
	d.read = 0
}

// awaitingPrefix reports whether no frame body is in progress
func (d *frameDecoder) awaitingPrefix() bool {
	return d.expected == -1
}

// feed consumes one chunk and calls emit for every frame completed by it, in order.
// A chunk may finish one frame, contain whole frames and start the next one.
// An error from emit or an oversized frame stops decoding and is returned.
func (d *frameDecoder) feed(chunk []byte, emit func(payload []byte) error) error {
	for len(chunk) > 0 {
		// Look for the length at the start of a new frame
		if d.awaitingPrefix() {
			n := copy(d.prefix[d.prefixLen:], chunk)
			d.prefixLen += n
			chunk = chunk[n:]

			if d.prefixLen < frameHeaderSize {
				// partial prefix, wait for the next chunk
				return nil
			}

			length := binary.BigEndian.Uint32(d.prefix[:])
			if d.maxSize > 0 && uint64(length) > uint64(d.maxSize) {
				return fmt.Errorf("%w: %d bytes (max %d)", transport.ErrFrameTooLarge, length, d.maxSize)
			}

			d.prefixLen = 0
			d.expected = int64(length)
			d.buf = make([]byte, length)
			d.read = 0
		}

		// Append as much of the chunk as fits into the frame
		n := copy(d.buf[d.read:], chunk)
		d.read += int64(n)
		chunk = chunk[n:]

		// Emit if complete
		if d.read == d.expected {
			payload := d.buf
			d.reset()
			if err := emit(payload); err != nil {
				return err
			}
		}
	}
	return nil
}
