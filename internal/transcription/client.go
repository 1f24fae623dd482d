package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/voxsplit/voxsplit/pkg/logger"
)

// Client sends audio segments to the recognition service over HTTP with a
// bounded, fixed-delay retry policy. The SDK is deliberately not used here:
// it does not surface the verbose_json segment payload, so the upload is a
// hand-built multipart request.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *logger.Logger

	// sleep waits between attempts; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new transcription client
func NewClient(cfg Config, logger *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg:    cfg,
		logger: logger.Named("transcription-client"),
		sleep:  sleepWithContext,
	}
}

// sleepWithContext waits for d or until the context is cancelled
func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Transcribe uploads the segment and returns its transcription. Each attempt
// is a full upload; on failure the client waits the fixed retry delay and
// tries again, up to MaxAttempts. A missing segment file fails fast before
// any network attempt and is not retried.
func (c *Client) Transcribe(ctx context.Context, req Request) (Result, error) {
	if _, err := os.Stat(req.Segment.Path); err != nil {
		return Result{}, fmt.Errorf("segment %d file %s is not readable: %w", req.Segment.Index, req.Segment.Path, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		result, err := c.attempt(ctx, req)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("Transcription succeeded after retry",
					logger.Int("segment", req.Segment.Index),
					logger.Int("attempt", attempt),
				)
			}
			return result, nil
		}
		lastErr = err

		c.logger.Warn("Transcription attempt failed",
			logger.Int("segment", req.Segment.Index),
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", c.cfg.MaxAttempts),
			logger.Error(err),
		)

		// no delay after the final attempt
		if attempt < c.cfg.MaxAttempts {
			if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
				return Result{}, &TranscribeError{SegmentIndex: req.Segment.Index, Attempts: attempt, Err: err}
			}
		}
	}

	return Result{}, &TranscribeError{SegmentIndex: req.Segment.Index, Attempts: c.cfg.MaxAttempts, Err: lastErr}
}

// attempt performs a single upload round trip
func (c *Client) attempt(ctx context.Context, req Request) (Result, error) {
	body, contentType, err := c.buildBody(req)
	if err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var raw RawResult
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return Result{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return Result{
		Text:    raw.Text,
		Raw:     raw,
		Segment: req.Segment,
	}, nil
}

// buildBody assembles the multipart payload for one attempt. The file is
// re-read per attempt so every retry carries the complete payload.
func (c *Client) buildBody(req Request) (*bytes.Buffer, string, error) {
	f, err := os.Open(req.Segment.Path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open segment file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(req.Segment.Path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", fmt.Errorf("failed to copy audio data: %w", err)
	}

	format := req.Format
	if format == "" {
		format = FormatVerboseJSON
	}

	_ = mw.WriteField("model", c.cfg.Model)
	_ = mw.WriteField("response_format", string(format))
	_ = mw.WriteField("temperature", strconv.FormatFloat(req.Temperature, 'f', -1, 64))
	if req.Language != "" {
		_ = mw.WriteField("language", req.Language)
	}
	if req.Prompt != "" {
		_ = mw.WriteField("prompt", req.Prompt)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return &body, mw.FormDataContentType(), nil
}

// truncate shortens long response bodies for error messages
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
