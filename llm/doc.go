// Package llm describes the chat-completion wire format spoken by the
// gateway and the dialects that encode and decode it.
//
// A [Dialect] maps the universal types ([CompletionRequest],
// [CompletionResponse], [StreamChunk], [ModelInfo]) to one provider's HTTP
// format. Dialects register themselves by name, database/sql style:
//
//	import _ "github.com/kbukum/gatewayprobe/llm/openai"
//
//	d, err := llm.GetDialect("openai")
//	body, err := d.BuildRequest(llm.CompletionRequest{Model: "copilot-gpt-4o", ...})
//
// Decoding failures are typed: a response lacking a required field yields
// a [*FieldError], an error payload delivered in-band yields an
// [*APIError]. [ReadStream] turns a streaming HTTP response into a channel
// of chunks.
package llm
