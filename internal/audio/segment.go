package audio

import "fmt"

// Segment is a contiguous time-bounded slice of the source audio, materialized
// as an independent file. Segments are totally ordered by Index and partition
// the source: segment i ends exactly where segment i+1 starts.
type Segment struct {
	Index       int     `json:"index"`
	Path        string  `json:"path"`
	StartSec    float64 `json:"start_sec"`
	DurationSec float64 `json:"duration_sec"`
}

// EndSec returns the end offset of the segment
func (s Segment) EndSec() float64 {
	return s.StartSec + s.DurationSec
}

// RenderError indicates transcoding one segment failed. The whole run must
// abort: a missing segment would break contiguity of the transcript.
type RenderError struct {
	Index int
	Path  string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render segment %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
