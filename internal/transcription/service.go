package transcription

import (
	"context"

	"github.com/voxsplit/voxsplit/internal/audio"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

// Splitter turns a source audio file into an ordered segment sequence
type Splitter interface {
	Split(ctx context.Context, audioPath string) ([]audio.Segment, error)
}

// TextCleaner post-processes a combined transcript's text. Implementations
// must not alter the per-segment results.
type TextCleaner interface {
	Process(ctx context.Context, text string) (string, error)
}

// Service ties segmentation and transcription into one run: split the source,
// drive the pipeline, optionally clean up the combined text. Each call is an
// independent run with no shared mutable state, so concurrent calls are safe.
type Service struct {
	splitter Splitter
	pipeline *Pipeline
	cleaner  TextCleaner // nil disables the cleanup pass
	logger   *logger.Logger
}

// NewService creates a new transcription service. cleaner may be nil.
func NewService(splitter Splitter, pipeline *Pipeline, cleaner TextCleaner, logger *logger.Logger) *Service {
	return &Service{
		splitter: splitter,
		pipeline: pipeline,
		cleaner:  cleaner,
		logger:   logger.Named("transcription"),
	}
}

// TranscribeFile runs the whole pipeline for one audio file. Cleanup failures
// degrade to the raw transcript instead of failing the run; a successful
// cleanup lands in CleanedText, leaving FullText recomputable from Results.
func (s *Service) TranscribeFile(ctx context.Context, audioPath string) (CombinedTranscript, error) {
	segments, err := s.splitter.Split(ctx, audioPath)
	if err != nil {
		return CombinedTranscript{}, err
	}

	s.logger.Info("Starting transcription run",
		logger.String("path", audioPath),
		logger.Int("segments", len(segments)),
	)

	transcript, err := s.pipeline.Run(ctx, segments)
	if err != nil {
		return CombinedTranscript{}, err
	}

	if s.cleaner != nil {
		cleaned, err := s.cleaner.Process(ctx, transcript.FullText)
		if err != nil {
			s.logger.Warn("Post-processing failed, keeping raw transcript", logger.Error(err))
		} else {
			transcript.CleanedText = cleaned
		}
	}

	return transcript, nil
}
