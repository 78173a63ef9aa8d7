// Command gatewayprobe checks which models an OpenAI-compatible gateway
// actually serves, in completion, structured and streaming modes.
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
