package media

import "fmt"

// ProbeError indicates the source file could not be inspected.
// It is fatal to the transcription run.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("failed to probe media file %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
