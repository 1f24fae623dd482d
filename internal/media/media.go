package media

import "context"

// Info describes a decodable media file
type Info struct {
	DurationSec float64
	SizeBytes   int64
	Format      string
	BitRate     int64
}

// Prober inspects a media file for duration and size
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// Transcoder renders a time range of a source file into an independent audio file
type Transcoder interface {
	Render(ctx context.Context, srcPath string, startSec, durationSec float64, destPath string) error
}
