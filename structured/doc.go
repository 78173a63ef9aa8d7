// Package structured asks a model for JSON that conforms to a Go type and
// validates the answer.
//
// The schema sent in response_format is reflected from the target type with
// invopop/jsonschema; replies are checked against the same schema with
// santhosh-tekuri/jsonschema before being decoded into the type.
//
//	ex, err := structured.NewExtractor[structured.CodeReview]("code_review")
//	req := ex.Request(llm.CompletionRequest{Model: "gpt-4o", Messages: msgs})
//	// ... send req, then:
//	review, err := ex.Decode(resp.Content)
package structured
