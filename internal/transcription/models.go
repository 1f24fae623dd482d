package transcription

import (
	"strings"
	"time"

	"github.com/voxsplit/voxsplit/internal/audio"
)

// Config represents the configuration for the transcription client and pipeline
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Language          string
	Temperature       float64
	MaxAttempts       int
	RetryDelay        time.Duration
	Timeout           time.Duration
	ContextTokenLimit int
}

// ResponseFormat selects the shape of the recognition service's response
type ResponseFormat string

const (
	// FormatJSON returns only the transcribed text
	FormatJSON ResponseFormat = "json"
	// FormatVerboseJSON returns text plus per-phrase timing metadata
	FormatVerboseJSON ResponseFormat = "verbose_json"
)

// Request describes one segment transcription call. Immutable once built.
type Request struct {
	Segment     audio.Segment
	Language    string
	Prompt      string
	Temperature float64
	Format      ResponseFormat
}

// RawSegment is one timed phrase from a verbose_json response
type RawSegment struct {
	ID               int     `json:"id"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Temperature      float64 `json:"temperature,omitempty"`
	AvgLogprob       float64 `json:"avg_logprob,omitempty"`
	CompressionRatio float64 `json:"compression_ratio,omitempty"`
	NoSpeechProb     float64 `json:"no_speech_prob,omitempty"`
}

// RawResult is the structured payload returned by the recognition service
type RawResult struct {
	Task     string       `json:"task,omitempty"`
	Language string       `json:"language,omitempty"`
	Duration float64      `json:"duration,omitempty"`
	Segments []RawSegment `json:"segments,omitempty"`
	Text     string       `json:"text"`
}

// Result is the outcome of one successful segment transcription
type Result struct {
	Text    string        `json:"text"`
	Raw     RawResult     `json:"raw"`
	Segment audio.Segment `json:"segment"`
}

// CombinedTranscript is the ordered recombination of per-segment results.
// FullText is always recomputable from Results; the optional cleanup pass
// writes into CleanedText and never touches FullText.
type CombinedTranscript struct {
	FullText    string   `json:"full_text"`
	CleanedText string   `json:"cleaned_text,omitempty"`
	Results     []Result `json:"segment_results"`
}

// Text returns the post-processed text when a cleanup pass produced one,
// and the raw combined text otherwise.
func (t CombinedTranscript) Text() string {
	if t.CleanedText != "" {
		return t.CleanedText
	}
	return t.FullText
}

// Combine folds ordered per-segment results into one transcript. It is a pure
// function of its input: recomputing from the same results yields identical
// output. Per-segment texts are trimmed and joined with single spaces.
func Combine(results []Result) CombinedTranscript {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if text := strings.TrimSpace(r.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return CombinedTranscript{
		FullText: strings.Join(parts, " "),
		Results:  results,
	}
}
