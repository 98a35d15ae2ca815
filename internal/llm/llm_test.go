package llm

import (
	"strings"
	"testing"

	"composite-signal-bot/internal/types"
)

func TestParseLabel(t *testing.T) {
	cases := map[string]types.Label{
		"Positive":            types.Positive,
		" negative.":          types.Negative,
		"neutral":             types.Neutral,
		"I cannot determine.": types.Neutral,
	}
	for in, want := range cases {
		if got := ParseLabel(in); got != want {
			t.Errorf("ParseLabel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestUserPromptTruncatesRunes(t *testing.T) {
	long := strings.Repeat("я", 150)
	p := UserPrompt(long)
	if got := len([]rune(strings.TrimSuffix(strings.TrimPrefix(p, "Text: "), "..."))); got != 100 {
		t.Fatalf("expected 100 runes, got %d", got)
	}
	if UserPrompt("short") != "Text: short" {
		t.Errorf("short text should not be truncated: %q", UserPrompt("short"))
	}
}
