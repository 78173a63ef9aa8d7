package llm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/kbukum/gatewayprobe/httpclient"
)

// ReadStream decodes a 2xx streaming response with d and delivers chunks
// on the returned channel, which is closed when the stream ends. The
// dialect's StreamFormat picks the framing; an SSE dialect answered
// without an event stream yields ErrNoSSEReader. A chunk with Done set
// marks the end-of-stream sentinel; a chunk with Err set is always the
// last one. Every send honours ctx, so an abandoned reader never blocks.
// The response is closed when reading stops.
func ReadStream(ctx context.Context, d Dialect, resp *httpclient.StreamResponse) <-chan StreamChunk {
	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer func() { _ = resp.Close() }()

		switch d.StreamFormat() {
		case StreamNDJSON:
			if resp.Body == nil {
				send(ctx, ch, StreamChunk{Err: ErrNoStreamBody})
				return
			}
			readNDJSON(ctx, d, resp, ch)
		default:
			if resp.SSE == nil {
				send(ctx, ch, StreamChunk{Err: ErrNoSSEReader})
				return
			}
			readSSE(ctx, d, resp, ch)
		}
	}()
	return ch
}

func readSSE(ctx context.Context, d Dialect, resp *httpclient.StreamResponse, ch chan<- StreamChunk) {
	for {
		event, err := resp.SSE.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				send(ctx, ch, StreamChunk{Err: resp.ReadError(err)})
			}
			return
		}
		if !emit(ctx, d, []byte(event.Data), ch) {
			return
		}
	}
}

func readNDJSON(ctx context.Context, d Dialect, resp *httpclient.StreamResponse, ch chan<- StreamChunk) {
	r := bufio.NewReader(resp.Body)
	for {
		line, err := r.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			if !emit(ctx, d, line, ch) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				send(ctx, ch, StreamChunk{Err: resp.ReadError(err)})
			}
			return
		}
	}
}

// emit decodes one payload and forwards it. It returns false when reading
// must stop.
func emit(ctx context.Context, d Dialect, data []byte, ch chan<- StreamChunk) bool {
	content, done, err := d.ParseStreamChunk(data)
	if err != nil {
		send(ctx, ch, StreamChunk{Err: err})
		return false
	}
	if done {
		send(ctx, ch, StreamChunk{Done: true})
		return false
	}
	return send(ctx, ch, StreamChunk{Content: content})
}

func send(ctx context.Context, ch chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
