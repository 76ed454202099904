package chat

import (
	"bufio"
	"io"
	"strings"
)

// dataPrefix marks a data line in the event stream. Lines without it
// (comments, heartbeats, other fields) are discarded.
const dataPrefix = "data:"

// EventDecoder turns a raw byte stream into discrete event payloads.
// Events are separated by a blank line; a partial event at the end of the
// available bytes is carried over and completed by later reads. Whatever
// remains unterminated when the stream closes is dropped.
type EventDecoder struct {
	reader *bufio.Reader
	data   []string
}

// NewEventDecoder creates a decoder reading from r
func NewEventDecoder(r io.Reader) *EventDecoder {
	return &EventDecoder{
		reader: bufio.NewReader(r),
	}
}

// Next returns the payload of the next complete event. It returns io.EOF
// once the underlying stream has ended and no complete event remains.
func (d *EventDecoder) Next() (string, error) {
	for {
		line, err := d.reader.ReadString('\n')
		if err != nil {
			// No blank-line terminator seen for the carried-over
			// fragment, so it is never emitted.
			d.data = nil
			if err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}

		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if len(d.data) == 0 {
				continue
			}
			payload := strings.Join(d.data, "\n")
			d.data = nil
			return payload, nil
		}

		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		value := strings.TrimPrefix(line, dataPrefix)
		value = strings.TrimPrefix(value, " ")
		d.data = append(d.data, value)
	}
}
