package transcription

import (
	"context"

	"github.com/voxsplit/voxsplit/internal/audio"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

// Pipeline drives the transcriber over an ordered segment sequence and folds
// the results into one combined transcript. Segments are processed strictly
// in order, one at a time: each request's context hint is derived from the
// previous result's text, so the steps form a genuine sequential data
// dependency rather than an accidental serialization.
type Pipeline struct {
	transcriber Transcriber
	cfg         Config
	logger      *logger.Logger
}

// NewPipeline creates a new pipeline over the given transcriber
func NewPipeline(transcriber Transcriber, cfg Config, logger *logger.Logger) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		cfg:         cfg,
		logger:      logger.Named("pipeline"),
	}
}

// Run transcribes every segment in order and returns the combined transcript.
// The first segment gets an empty context hint; segment i>0 gets a hint
// derived from segment i-1's text. Any segment failure fails the whole run
// with a PipelineError carrying that segment's index; no partial transcript
// is reported as complete. Cancellation is checked before each segment.
func (p *Pipeline) Run(ctx context.Context, segments []audio.Segment) (CombinedTranscript, error) {
	results := make([]Result, 0, len(segments))
	previousText := ""

	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return CombinedTranscript{}, &PipelineError{SegmentIndex: seg.Index, Err: err}
		}

		req := Request{
			Segment:     seg,
			Language:    p.cfg.Language,
			Prompt:      ContextHint(previousText, p.cfg.ContextTokenLimit),
			Temperature: p.cfg.Temperature,
			Format:      FormatVerboseJSON,
		}

		p.logger.Debug("Transcribing segment",
			logger.Int("segment", seg.Index),
			logger.Int("total", len(segments)),
			logger.Float64("start_sec", seg.StartSec),
			logger.Float64("duration_sec", seg.DurationSec),
			logger.Bool("has_context", req.Prompt != ""),
		)

		result, err := p.transcriber.Transcribe(ctx, req)
		if err != nil {
			return CombinedTranscript{}, &PipelineError{SegmentIndex: seg.Index, Err: err}
		}

		results = append(results, result)
		previousText = result.Text
	}

	p.logger.Info("Transcription run complete",
		logger.Int("segments", len(results)),
	)
	return Combine(results), nil
}
