// Package sse reads Server-Sent Events from a streaming response body.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Event is a single server-sent event.
type Event struct {
	// Event is the event type from "event:" lines. Empty for data-only events.
	Event string
	// Data is the payload; multiple "data:" lines are joined with newlines.
	Data string
	// ID is the last event ID from "id:" lines.
	ID string
}

// Reader reads server-sent events from a stream.
type Reader interface {
	// Next returns the next event, or io.EOF when the stream ends.
	Next() (*Event, error)
	// Close releases the underlying stream.
	Close() error
}

type reader struct {
	buf  *bufio.Reader
	body io.ReadCloser
	done bool
}

// NewReader creates an SSE reader. Lines of any length are accepted.
func NewReader(body io.ReadCloser) Reader {
	return &reader{
		buf:  bufio.NewReaderSize(body, 64*1024),
		body: body,
	}
}

func (r *reader) Next() (*Event, error) {
	if r.done {
		return nil, io.EOF
	}

	var event Event
	var hasData bool

	for {
		line, err := r.buf.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		eof := errors.Is(err, io.EOF)
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if hasData {
				return &event, nil
			}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		default:
			field, value := parseLine(line)
			switch field {
			case "data":
				if hasData {
					event.Data += "\n" + value
				} else {
					event.Data = value
					hasData = true
				}
			case "event":
				event.Event = value
			case "id":
				event.ID = value
			}
		}

		if eof {
			r.done = true
			if hasData {
				return &event, nil
			}
			return nil, io.EOF
		}
	}
}

func (r *reader) Close() error {
	return r.body.Close()
}

// parseLine splits "field: value", dropping one leading space from value.
func parseLine(line string) (field, value string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
