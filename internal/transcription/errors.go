package transcription

import "fmt"

// TranscribeError indicates all retry attempts for one segment were exhausted.
// It wraps the last observed error.
type TranscribeError struct {
	SegmentIndex int
	Attempts     int
	Err          error
}

func (e *TranscribeError) Error() string {
	return fmt.Sprintf("transcription of segment %d failed after %d attempts: %v", e.SegmentIndex, e.Attempts, e.Err)
}

func (e *TranscribeError) Unwrap() error {
	return e.Err
}

// PipelineError is the top-level failure of a transcription run. It carries
// the index of the segment that broke the run and the underlying cause.
type PipelineError struct {
	SegmentIndex int
	Err          error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("transcription run failed at segment %d: %v", e.SegmentIndex, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
