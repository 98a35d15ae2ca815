package sentiment

import (
	"testing"

	"composite-signal-bot/internal/types"
)

func TestResolve(t *testing.T) {
	lex := types.ClassifierResult{Label: types.Negative, Confidence: 0.45, Model: "lexicon"}
	cases := []struct {
		name  string
		model types.ClassifierResult
		lex   types.ClassifierResult
		want  types.Label
	}{
		{"confident model wins", types.ClassifierResult{Label: types.Positive, Confidence: 0.75}, lex, types.Positive},
		{"hesitant model defers", types.ClassifierResult{Label: types.Positive, Confidence: 0.44}, lex, types.Negative},
		{"middle band agreement", types.ClassifierResult{Label: types.Negative, Confidence: 0.6}, lex, types.Negative},
		{"middle band disagreement", types.ClassifierResult{Label: types.Positive, Confidence: 0.6}, lex, types.Neutral},
		{"zero confidence stand-in", types.ClassifierResult{Label: types.Neutral, Confidence: 0}, lex, types.Negative},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.model, tc.lex, 0.75, 0.45).Label; got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
