package transcription

import "strings"

// contextLabel marks the hint as biasing context rather than audio to
// transcribe from the service's point of view.
const contextLabel = "Previous context: "

// DefaultContextTokenLimit bounds the hint so prompt size stays flat no matter
// how many segments a run has. 100 tokens is an empirical continuity/overhead
// trade-off, overridable through Config.ContextTokenLimit.
const DefaultContextTokenLimit = 100

// ContextHint derives a bounded biasing prompt from the previous segment's
// text: the last maxTokens whitespace-delimited tokens, rejoined with single
// spaces, behind a fixed label. An empty previous text yields an empty hint.
func ContextHint(previousText string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = DefaultContextTokenLimit
	}
	tokens := strings.Fields(previousText)
	if len(tokens) == 0 {
		return ""
	}
	if len(tokens) > maxTokens {
		tokens = tokens[len(tokens)-maxTokens:]
	}
	return contextLabel + strings.Join(tokens, " ")
}
