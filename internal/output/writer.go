package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voxsplit/voxsplit/internal/transcription"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

// Writer persists combined transcripts to disk
type Writer struct {
	logger *logger.Logger
}

// NewWriter creates a new transcript writer
func NewWriter(logger *logger.Logger) *Writer {
	return &Writer{logger: logger.Named("output")}
}

// Save writes the full text to destPath. When the transcript came from more
// than one segment it also writes the structured result to a sibling path
// with a .json extension, so per-segment timing survives alongside the text.
// Returns the text file path.
func (w *Writer) Save(transcript transcription.CombinedTranscript, destPath string) (string, error) {
	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(destPath, []byte(transcript.Text()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	w.logger.Info("Wrote transcript",
		logger.String("path", destPath),
		logger.Int("chars", len(transcript.Text())),
	)

	if len(transcript.Results) > 1 {
		jsonPath := siblingJSONPath(destPath)
		data, err := json.MarshalIndent(transcript, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal transcript: %w", err)
		}
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write structured transcript: %w", err)
		}
		w.logger.Info("Wrote structured transcript",
			logger.String("path", jsonPath),
			logger.Int("segments", len(transcript.Results)),
		)
	}

	return destPath, nil
}

// siblingJSONPath swaps the destination's extension for .json
func siblingJSONPath(destPath string) string {
	return strings.TrimSuffix(destPath, filepath.Ext(destPath)) + ".json"
}
