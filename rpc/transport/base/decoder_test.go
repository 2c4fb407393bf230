package base

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sfdaemon/dapi/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect feeds the chunks one after another and returns every emitted frame
func collect(t *testing.T, d *frameDecoder, chunks ...[]byte) [][]byte {
	t.Helper()
	var frames [][]byte
	for _, chunk := range chunks {
		err := d.feed(chunk, func(payload []byte) error {
			frames = append(frames, payload)
			return nil
		})
		require.NoError(t, err)
	}
	return frames
}

func TestDecoderSingleBuffer(t *testing.T) {
	d := newFrameDecoder(0)
	frames := collect(t, d, frameOf([]byte("hello")))

	require.Len(t, frames, 1)
	assert.Equal(t, []byte("hello"), frames[0])
	assert.True(t, d.awaitingPrefix())
}

func TestDecoderOneByteChunks(t *testing.T) {
	payload := []byte("a message delivered one byte at a time")
	data := frameOf(payload)

	chunks := make([][]byte, 0, len(data))
	for i := range data {
		chunks = append(chunks, data[i:i+1])
	}

	frames := collect(t, newFrameDecoder(0), chunks...)
	require.Len(t, frames, 1)
	assert.Equal(t, payload, frames[0])
}

func TestDecoderTwoChunksAtEveryOffset(t *testing.T) {
	payload := []byte("split me anywhere")
	data := frameOf(payload)

	for i := 1; i < len(data); i++ {
		frames := collect(t, newFrameDecoder(0), data[:i], data[i:])
		require.Len(t, frames, 1, "split at %d", i)
		assert.Equal(t, payload, frames[0], "split at %d", i)
	}
}

func TestDecoderTwoFramesInOneChunk(t *testing.T) {
	data := append(frameOf([]byte("first")), frameOf([]byte("second"))...)

	frames := collect(t, newFrameDecoder(0), data)
	require.Len(t, frames, 2)
	assert.Equal(t, []byte("first"), frames[0])
	assert.Equal(t, []byte("second"), frames[1])
}

func TestDecoderTailAndNextFrame(t *testing.T) {
	first := frameOf([]byte("first message"))
	second := frameOf([]byte("second message"))

	// chunk 2 finishes the first frame and carries part of the second prefix
	chunk1 := first[:7]
	chunk2 := append(append([]byte{}, first[7:]...), second[:2]...)
	chunk3 := second[2:]

	d := newFrameDecoder(0)
	frames := collect(t, d, chunk1, chunk2)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte("first message"), frames[0])
	assert.True(t, d.awaitingPrefix())
	assert.Equal(t, 2, d.prefixLen)

	frames = collect(t, d, chunk3)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte("second message"), frames[0])
}

func TestDecoderSplitPrefix(t *testing.T) {
	data := frameOf(bytes.Repeat([]byte{0xAB}, 300))

	d := newFrameDecoder(0)
	frames := collect(t, d, data[:1], data[1:3])
	assert.Empty(t, frames)
	assert.True(t, d.awaitingPrefix())

	frames = collect(t, d, data[3:5], data[5:])
	require.Len(t, frames, 1)
	assert.Len(t, frames[0], 300)
}

func TestDecoderEmptyFrame(t *testing.T) {
	data := append(frameOf(nil), frameOf([]byte("x"))...)

	frames := collect(t, newFrameDecoder(0), data)
	require.Len(t, frames, 2)
	assert.Empty(t, frames[0])
	assert.Equal(t, []byte("x"), frames[1])
}

func TestDecoderFrameTooLarge(t *testing.T) {
	d := newFrameDecoder(8)

	err := d.feed(frameOf(make([]byte, 9)), func([]byte) error {
		t.Fatal("oversized frame must not be emitted")
		return nil
	})
	assert.ErrorIs(t, err, transport.ErrFrameTooLarge)

	frames := collect(t, newFrameDecoder(8), frameOf(make([]byte, 8)))
	assert.Len(t, frames, 1)
}

func TestDecoderEmitErrorStops(t *testing.T) {
	stop := errors.New("stop")
	data := append(frameOf([]byte("a")), frameOf([]byte("b"))...)

	calls := 0
	err := newFrameDecoder(0).feed(data, func([]byte) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestReadFrameMatchesWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(frameOf([]byte("payload")))

	payload, err := readFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), payload)

	buf.Write(frameOf(make([]byte, 32)))
	_, err = readFrame(&buf, 16)
	assert.ErrorIs(t, err, transport.ErrFrameTooLarge)
}
