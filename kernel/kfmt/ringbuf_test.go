package kfmt

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer(t *testing.T) {
	var (
		buf     bytes.Buffer
		bootMsg = "hart 0: up, kernel arena [0x80200000, 0x88000000)"
		rb      ringBuffer
	)

	t.Run("read/write", func(t *testing.T) {
		rb.wIndex, rb.rIndex = 0, 0
		n, err := rb.Write([]byte(bootMsg))
		require.NoError(t, err)
		assert.Equal(t, len(bootMsg), n)
		assert.Equal(t, bootMsg, readByteByByte(&buf, &rb))
	})

	t.Run("write past capacity advances the read pointer", func(t *testing.T) {
		rb.wIndex, rb.rIndex = ringBufferSize-1, 0
		_, err := rb.Write([]byte{'!'})
		require.NoError(t, err)
		assert.Equal(t, 1, rb.rIndex, "a write that overtakes rIndex must drop the oldest byte")
	})

	t.Run("wraps around the backing array", func(t *testing.T) {
		rb.wIndex, rb.rIndex = ringBufferSize-2, ringBufferSize-2
		n, err := rb.Write([]byte(bootMsg))
		require.NoError(t, err)
		assert.Equal(t, len(bootMsg), n)
		assert.Equal(t, bootMsg, readByteByByte(&buf, &rb))
	})

	t.Run("drained via io.Copy, as SetOutputSink does", func(t *testing.T) {
		rb.wIndex, rb.rIndex = ringBufferSize-2, ringBufferSize-2
		n, err := rb.Write([]byte(bootMsg))
		require.NoError(t, err)
		assert.Equal(t, len(bootMsg), n)

		var out bytes.Buffer
		io.Copy(&out, &rb)
		assert.Equal(t, bootMsg, out.String())
	})

	t.Run("empty buffer reports io.EOF", func(t *testing.T) {
		rb.wIndex, rb.rIndex = 0, 0
		n, err := rb.Read(make([]byte, 4))
		assert.Equal(t, 0, n)
		assert.Equal(t, io.EOF, err)
	})
}

func readByteByByte(buf *bytes.Buffer, r io.Reader) string {
	buf.Reset()
	b := make([]byte, 1)
	for {
		_, err := r.Read(b)
		if err == io.EOF {
			break
		}
		buf.Write(b)
	}
	return buf.String()
}
