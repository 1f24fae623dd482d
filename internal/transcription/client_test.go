package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxsplit/voxsplit/internal/audio"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

// writeSegmentFile creates a small fake audio file and returns its segment
func writeSegmentFile(t *testing.T, index int) audio.Segment {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seg.mp3")
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return audio.Segment{Index: index, Path: path, StartSec: 0, DurationSec: 40}
}

func newTestClient(cfg Config) (*Client, *int) {
	client := NewClient(cfg, logger.Nop())
	sleeps := 0
	client.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}
	return client, &sleeps
}

func TestTranscribeSuccess(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		gotForm = map[string]string{}
		for key, vals := range r.MultipartForm.Value {
			gotForm[key] = vals[0]
		}
		json.NewEncoder(w).Encode(RawResult{
			Task:     "transcribe",
			Language: "en",
			Duration: 40,
			Text:     "hello from segment zero",
			Segments: []RawSegment{{ID: 0, Start: 0, End: 40, Text: "hello from segment zero"}},
		})
	}))
	defer server.Close()

	client, sleeps := newTestClient(Config{
		BaseURL:     server.URL,
		Model:       "whisper-1",
		MaxAttempts: 3,
	})

	res, err := client.Transcribe(context.Background(), Request{
		Segment:     writeSegmentFile(t, 0),
		Language:    "en",
		Prompt:      "Previous context: earlier words",
		Temperature: 0.2,
		Format:      FormatVerboseJSON,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Text != "hello from segment zero" {
		t.Errorf("unexpected text: %q", res.Text)
	}
	if len(res.Raw.Segments) != 1 {
		t.Errorf("expected raw segments to be preserved, got %d", len(res.Raw.Segments))
	}
	if res.Segment.Index != 0 {
		t.Errorf("result must reference its source segment, got index %d", res.Segment.Index)
	}
	if *sleeps != 0 {
		t.Errorf("no retry delays expected on first-attempt success, got %d", *sleeps)
	}

	for key, want := range map[string]string{
		"model":           "whisper-1",
		"language":        "en",
		"prompt":          "Previous context: earlier words",
		"temperature":     "0.2",
		"response_format": "verbose_json",
	} {
		if gotForm[key] != want {
			t.Errorf("form field %s: expected %q, got %q", key, want, gotForm[key])
		}
	}
}

func TestTranscribeRetryExhaustion(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, sleeps := newTestClient(Config{
		BaseURL:     server.URL,
		MaxAttempts: 3,
	})

	_, err := client.Transcribe(context.Background(), Request{Segment: writeSegmentFile(t, 4)})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}

	var te *TranscribeError
	if !errors.As(err, &te) {
		t.Fatalf("expected a TranscribeError, got %T: %v", err, err)
	}
	if te.SegmentIndex != 4 {
		t.Errorf("expected segment index 4, got %d", te.SegmentIndex)
	}
	if te.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", te.Attempts)
	}
	if attempts != 3 {
		t.Errorf("expected exactly 3 network attempts, got %d", attempts)
	}
	// delays between attempts only, never after the last one
	if *sleeps != 2 {
		t.Errorf("expected exactly 2 inter-attempt delays, got %d", *sleeps)
	}
}

func TestTranscribeSuccessShortCircuitsRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(RawResult{Text: "recovered"})
	}))
	defer server.Close()

	client, sleeps := newTestClient(Config{BaseURL: server.URL, MaxAttempts: 5})

	res, err := client.Transcribe(context.Background(), Request{Segment: writeSegmentFile(t, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "recovered" {
		t.Errorf("unexpected text: %q", res.Text)
	}
	if attempts != 2 {
		t.Errorf("expected success on attempt 2 to stop the loop, got %d attempts", attempts)
	}
	if *sleeps != 1 {
		t.Errorf("expected 1 delay, got %d", *sleeps)
	}
}

func TestTranscribeMissingFileFailsFast(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
	}))
	defer server.Close()

	client, sleeps := newTestClient(Config{BaseURL: server.URL, MaxAttempts: 3})

	_, err := client.Transcribe(context.Background(), Request{
		Segment: audio.Segment{Index: 1, Path: filepath.Join(t.TempDir(), "gone.mp3")},
	})
	if err == nil {
		t.Fatal("expected an error for a missing segment file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected error to wrap fs.ErrNotExist, got %v", err)
	}
	if attempts != 0 {
		t.Errorf("expected zero network calls, got %d", attempts)
	}
	if *sleeps != 0 {
		t.Errorf("expected zero delays, got %d", *sleeps)
	}
}

func TestTranscribeCancelledDuringDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, MaxAttempts: 3, RetryDelay: time.Hour}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Transcribe(ctx, Request{Segment: writeSegmentFile(t, 0)})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected error to wrap context.Canceled, got %v", err)
	}
}
