package chat

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drainEvents reads every complete event from the decoder
func drainEvents(t *testing.T, input string) []string {
	t.Helper()

	decoder := NewEventDecoder(strings.NewReader(input))
	var events []string
	for {
		payload, err := decoder.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, payload)
	}
}

func TestEventDecoder(t *testing.T) {
	t.Run("should decode blank-line separated events", func(t *testing.T) {
		events := drainEvents(t, "data: one\n\ndata: two\n\n")
		assert.Equal(t, []string{"one", "two"}, events)
	})

	t.Run("should tolerate carriage-return line endings", func(t *testing.T) {
		events := drainEvents(t, "data: one\r\n\r\ndata: two\r\n\r\n")
		assert.Equal(t, []string{"one", "two"}, events)
	})

	t.Run("should accept data lines without a space after the marker", func(t *testing.T) {
		events := drainEvents(t, "data:{\"response\":\"hi\"}\n\n")
		assert.Equal(t, []string{`{"response":"hi"}`}, events)
	})

	t.Run("should join multi-line events", func(t *testing.T) {
		events := drainEvents(t, "data: first\ndata: second\n\n")
		assert.Equal(t, []string{"first\nsecond"}, events)
	})

	t.Run("should suppress heartbeats and comments", func(t *testing.T) {
		events := drainEvents(t, ": keep-alive\n\nevent: ping\n\n")
		assert.Empty(t, events)
	})

	t.Run("should yield zero events for blank-line only input", func(t *testing.T) {
		events := drainEvents(t, "\n\n")
		assert.Empty(t, events)
	})

	t.Run("should discard a partial event at end of stream", func(t *testing.T) {
		events := drainEvents(t, "data: complete\n\ndata: dangling")
		assert.Equal(t, []string{"complete"}, events)
	})

	t.Run("should discard an unterminated final event", func(t *testing.T) {
		events := drainEvents(t, "data: complete\n\ndata: no-delimiter\n")
		assert.Equal(t, []string{"complete"}, events)
	})

	t.Run("should complete events split across reads", func(t *testing.T) {
		// One byte per read exercises the carry-over buffer.
		decoder := NewEventDecoder(oneByteReader{strings.NewReader("data: spl\ndata: it\n\n")})

		payload, err := decoder.Next()
		require.NoError(t, err)
		assert.Equal(t, "spl\nit", payload)

		_, err = decoder.Next()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("should not emit an event before its delimiter arrives", func(t *testing.T) {
		r, w := io.Pipe()
		decoder := NewEventDecoder(r)

		go func() {
			w.Write([]byte("data: early"))
			w.Write([]byte(" and late\n"))
			w.Write([]byte("\n"))
			w.Close()
		}()

		payload, err := decoder.Next()
		require.NoError(t, err)
		assert.Equal(t, "early and late", payload)
	})
}

// oneByteReader delivers the underlying reader one byte per Read call
type oneByteReader struct {
	r io.Reader
}

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}
