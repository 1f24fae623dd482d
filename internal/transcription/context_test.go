package transcription

import (
	"fmt"
	"strings"
	"testing"
)

func TestContextHintEmptyPrevious(t *testing.T) {
	if hint := ContextHint("", 100); hint != "" {
		t.Errorf("expected empty hint for empty previous text, got %q", hint)
	}
	if hint := ContextHint("   \n\t  ", 100); hint != "" {
		t.Errorf("expected empty hint for whitespace-only previous text, got %q", hint)
	}
}

func TestContextHintShortText(t *testing.T) {
	hint := ContextHint("the quick brown fox", 100)
	want := "Previous context: the quick brown fox"
	if hint != want {
		t.Errorf("expected %q, got %q", want, hint)
	}
}

func TestContextHintTruncatesToLastTokens(t *testing.T) {
	words := make([]string, 250)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	hint := ContextHint(strings.Join(words, " "), 100)

	got := strings.Fields(strings.TrimPrefix(hint, "Previous context: "))
	if len(got) != 100 {
		t.Fatalf("expected exactly 100 tokens, got %d", len(got))
	}
	// original order, last 100 tokens
	if got[0] != "w150" {
		t.Errorf("expected first kept token w150, got %s", got[0])
	}
	if got[99] != "w249" {
		t.Errorf("expected last kept token w249, got %s", got[99])
	}
}

func TestContextHintNormalizesWhitespace(t *testing.T) {
	hint := ContextHint("one\ttwo\n\nthree   four", 100)
	want := "Previous context: one two three four"
	if hint != want {
		t.Errorf("expected %q, got %q", want, hint)
	}
}

func TestContextHintCustomLimit(t *testing.T) {
	hint := ContextHint("a b c d e", 2)
	want := "Previous context: d e"
	if hint != want {
		t.Errorf("expected %q, got %q", want, hint)
	}
}

func TestContextHintZeroLimitUsesDefault(t *testing.T) {
	words := make([]string, DefaultContextTokenLimit+50)
	for i := range words {
		words[i] = "x"
	}
	hint := ContextHint(strings.Join(words, " "), 0)
	got := strings.Fields(strings.TrimPrefix(hint, "Previous context: "))
	if len(got) != DefaultContextTokenLimit {
		t.Errorf("expected %d tokens with the default limit, got %d", DefaultContextTokenLimit, len(got))
	}
}
