package noop

import (
	"context"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/types"
)

// Classifier stands in when no model is configured for a language. It
// answers neutral with zero confidence, so the lexicon result wins.
type Classifier struct{}

var _ interfaces.Classifier = Classifier{}

func New() Classifier { return Classifier{} }

func (Classifier) Name() string { return "noop" }

func (Classifier) Classify(ctx context.Context, text string) (types.ClassifierResult, error) {
	logger.Debug(ctx, "Noop classifier called - always returns neutral")
	return types.ClassifierResult{Label: types.Neutral, Confidence: 0, Model: "noop"}, nil
}
