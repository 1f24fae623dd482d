package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

// defaultCleanupPrompt instructs the model to repair formatting without
// changing the words themselves.
const defaultCleanupPrompt = "You are a transcript editor. Fix punctuation, casing and obvious " +
	"speech-recognition artifacts in the transcript the user provides. Do not summarize, " +
	"reorder or drop content. Reply with the corrected transcript only."

// PostProcessorConfig represents configuration for the cleanup pass
type PostProcessorConfig struct {
	Model        string
	Temperature  float64
	Timeout      time.Duration
	SystemPrompt string
}

// PostProcessor runs an optional LLM cleanup pass over the combined
// transcript. It never fails a run: callers fall back to the raw text.
type PostProcessor struct {
	client openai.Client
	cfg    PostProcessorConfig
	logger *logger.Logger
}

var _ TextCleaner = (*PostProcessor)(nil)

// NewPostProcessor creates a new post-processor
func NewPostProcessor(apiKey string, cfg PostProcessorConfig, logger *logger.Logger) *PostProcessor {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultCleanupPrompt
	}
	return &PostProcessor{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		cfg:    cfg,
		logger: logger.Named("post-processor"),
	}
}

// Process returns a cleaned-up version of the transcript text
func (p *PostProcessor) Process(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.cfg.Model),
		Temperature: openai.Float(p.cfg.Temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.cfg.SystemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to post-process transcript: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("post-processing returned no choices")
	}

	cleaned := strings.TrimSpace(resp.Choices[0].Message.Content)
	if cleaned == "" {
		return "", fmt.Errorf("post-processing returned empty content")
	}

	p.logger.Debug("Post-processed transcript",
		logger.String("model", p.cfg.Model),
		logger.Int("input_chars", len(text)),
		logger.Int("output_chars", len(cleaned)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return cleaned, nil
}
