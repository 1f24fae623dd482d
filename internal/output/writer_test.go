package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/voxsplit/voxsplit/internal/audio"
	"github.com/voxsplit/voxsplit/internal/transcription"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

func TestSaveSingleSegmentWritesTextOnly(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "talk.txt")
	transcript := transcription.CombinedTranscript{
		FullText: "just one segment",
		Results:  []transcription.Result{{Text: "just one segment"}},
	}

	saved, err := NewWriter(logger.Nop()).Save(transcript, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved != dest {
		t.Errorf("expected saved path %s, got %s", dest, saved)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read transcript: %v", err)
	}
	if string(data) != "just one segment" {
		t.Errorf("unexpected transcript contents: %q", string(data))
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "talk.json")); !os.IsNotExist(err) {
		t.Error("no JSON sibling expected for a single-segment transcript")
	}
}

func TestSaveMultiSegmentWritesJSONSibling(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "talk.txt")
	transcript := transcription.CombinedTranscript{
		FullText: "part one part two part three",
		Results: []transcription.Result{
			{Text: "part one", Segment: audio.Segment{Index: 0, DurationSec: 40}},
			{Text: "part two", Segment: audio.Segment{Index: 1, StartSec: 40, DurationSec: 40}},
			{Text: "part three", Segment: audio.Segment{Index: 2, StartSec: 80, DurationSec: 40}},
		},
	}

	if _, err := NewWriter(logger.Nop()).Save(transcript, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	jsonPath := filepath.Join(filepath.Dir(dest), "talk.json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("expected a JSON sibling at %s: %v", jsonPath, err)
	}

	var decoded transcription.CombinedTranscript
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode structured transcript: %v", err)
	}
	if decoded.FullText != transcript.FullText {
		t.Errorf("full text mismatch: %q", decoded.FullText)
	}
	if len(decoded.Results) != 3 {
		t.Errorf("expected 3 segment results, got %d", len(decoded.Results))
	}
	if decoded.Results[1].Segment.StartSec != 40 {
		t.Errorf("segment timing must survive serialization, got %f", decoded.Results[1].Segment.StartSec)
	}
}

func TestSavePrefersCleanedText(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "talk.txt")
	transcript := transcription.CombinedTranscript{
		FullText:    "raw words without punctuation",
		CleanedText: "Raw words, without punctuation.",
		Results:     []transcription.Result{{Text: "raw words without punctuation"}},
	}

	if _, err := NewWriter(logger.Nop()).Save(transcript, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read transcript: %v", err)
	}
	if string(data) != "Raw words, without punctuation." {
		t.Errorf("expected the cleaned text on disk, got %q", string(data))
	}
}

func TestSaveCreatesOutputDirectory(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "deeper", "talk.txt")
	transcript := transcription.CombinedTranscript{
		FullText: "text",
		Results:  []transcription.Result{{Text: "text"}},
	}

	if _, err := NewWriter(logger.Nop()).Save(transcript, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("expected transcript at %s: %v", dest, err)
	}
}
