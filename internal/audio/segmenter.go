package audio

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/voxsplit/voxsplit/internal/media"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

// Segmenter splits an audio file into segments small enough for the
// recognition service's upload limit. Files already under the limit pass
// through as a single segment with no transcoding.
type Segmenter struct {
	prober     media.Prober
	transcoder media.Transcoder
	limitBytes int64
	scratchDir string
	logger     *logger.Logger
}

// NewSegmenter creates a new segmenter. Rendered segment files are written to
// scratchDir and left there; cleanup is the caller's policy.
func NewSegmenter(prober media.Prober, transcoder media.Transcoder, limitBytes int64, scratchDir string, logger *logger.Logger) *Segmenter {
	return &Segmenter{
		prober:     prober,
		transcoder: transcoder,
		limitBytes: limitBytes,
		scratchDir: scratchDir,
		logger:     logger.Named("segmenter"),
	}
}

// span is a planned time range before materialization
type span struct {
	startSec    float64
	durationSec float64
}

// planSpans computes the equal-duration partition for a file of sizeBytes and
// durationSec under limitBytes. Equal durations assume roughly constant
// bitrate; rendered sizes are not re-checked against the limit.
func planSpans(sizeBytes int64, durationSec float64, limitBytes int64) []span {
	if sizeBytes <= limitBytes {
		return []span{{startSec: 0, durationSec: durationSec}}
	}

	n := int(math.Ceil(float64(sizeBytes) / float64(limitBytes)))
	segDur := durationSec / float64(n)

	spans := make([]span, n)
	for i := 0; i < n; i++ {
		start := float64(i) * segDur
		dur := segDur
		if i == n-1 {
			// clamp rounding so the final segment ends exactly at the source duration
			dur = durationSec - start
		}
		spans[i] = span{startSec: start, durationSec: dur}
	}
	return spans
}

// Split probes the source file, plans the partition, and materializes every
// segment that needs rendering. The returned segments are ordered, contiguous,
// and cover the whole file.
func (s *Segmenter) Split(ctx context.Context, audioPath string) ([]Segment, error) {
	info, err := s.prober.Probe(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	spans := planSpans(info.SizeBytes, info.DurationSec, s.limitBytes)

	if len(spans) == 1 {
		s.logger.Debug("File under size limit, no splitting required",
			logger.String("path", audioPath),
			logger.Int64("size_bytes", info.SizeBytes),
			logger.Int64("limit_bytes", s.limitBytes),
		)
		return []Segment{{Index: 0, Path: audioPath, StartSec: 0, DurationSec: info.DurationSec}}, nil
	}

	s.logger.Info("Splitting audio file",
		logger.String("path", audioPath),
		logger.Int64("size_bytes", info.SizeBytes),
		logger.Int64("limit_bytes", s.limitBytes),
		logger.Int("segments", len(spans)),
		logger.Float64("segment_duration_sec", spans[0].durationSec),
	)

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	ext := filepath.Ext(audioPath)
	if ext == "" {
		ext = ".mp3"
	}

	segments := make([]Segment, 0, len(spans))
	for i, sp := range spans {
		destPath := filepath.Join(s.scratchDir, fmt.Sprintf("%s_part%03d%s", base, i, ext))
		if err := s.transcoder.Render(ctx, audioPath, sp.startSec, sp.durationSec, destPath); err != nil {
			return nil, &RenderError{Index: i, Path: destPath, Err: err}
		}
		segments = append(segments, Segment{
			Index:       i,
			Path:        destPath,
			StartSec:    sp.startSec,
			DurationSec: sp.durationSec,
		})
	}

	return segments, nil
}
