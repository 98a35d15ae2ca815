// Package llm holds what the model-backed sentiment classifiers share:
// the one-word prompt, label parsing and token usage reporting.
package llm

import (
	"strings"

	"composite-signal-bot/internal/types"
)

// ModelConfidence is the confidence attached to an LLM answer, which
// carries no calibrated score of its own.
const ModelConfidence = 0.8

const SystemPrompt = "Classify financial news sentiment: positive/negative/neutral. Reply with one word only."

const maxPromptRunes = 100

// UserPrompt truncates text to keep requests cheap.
func UserPrompt(text string) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) > maxPromptRunes {
		return "Text: " + string(r[:maxPromptRunes]) + "..."
	}
	return "Text: " + string(r)
}

// ParseLabel maps a free-form model answer onto a label; anything
// unrecognized is neutral.
func ParseLabel(answer string) types.Label {
	a := strings.ToLower(answer)
	switch {
	case strings.Contains(a, "positive"):
		return types.Positive
	case strings.Contains(a, "negative"):
		return types.Negative
	default:
		return types.Neutral
	}
}

// UsageRecorder receives token counts reported by a provider.
type UsageRecorder interface {
	LLMTokens(model string, prompt, completion int)
}
