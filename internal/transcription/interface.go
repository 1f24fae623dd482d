package transcription

import "context"

// Transcriber converts one audio segment into text
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (Result, error)
}

// Ensure the HTTP client implements the interface
var _ Transcriber = (*Client)(nil)
