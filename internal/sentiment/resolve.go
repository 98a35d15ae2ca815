package sentiment

import "composite-signal-bot/internal/types"

// Resolve merges a model answer with the lexicon answer for the same text.
// A confident model wins outright, a hesitant one defers to the lexicon, and
// in between the two must agree or the text counts as neutral.
func Resolve(model, lexical types.ClassifierResult, high, low float64) types.ClassifierResult {
	switch {
	case model.Confidence >= high:
		return model
	case model.Confidence < low:
		return lexical
	case model.Label == lexical.Label:
		return model
	default:
		return types.ClassifierResult{
			Label:      types.Neutral,
			Confidence: (model.Confidence + lexical.Confidence) / 2,
			Model:      model.Model + "+" + lexical.Model,
		}
	}
}
