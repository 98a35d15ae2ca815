package sentiment

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

// Term lists are matched against lower-cased tokens with ё folded to е. A
// trailing * matches any token with that prefix; otherwise the match is exact.
var (
	strongPositive = []string{
		"surg*", "soar*", "skyrocket*", "record*", "breakthrough*", "rally", "rallied", "rallies",
		"boom*", "outperform*", "jump*",
		"взлет*", "рекорд*", "прорыв*", "воспар*",
	}
	moderatePositive = []string{
		"rise", "rises", "rising", "rose", "risen", "gain*", "grow*", "grew", "profit*", "beat", "beats",
		"strong*", "upgrad*", "positive", "increas*", "exceed*", "higher", "up",
		"вырос*", "рост", "роста", "ростом", "растут", "поднял*", "подорож*", "прибыл*", "отличн*",
		"хорош*", "превзош*", "увелич*", "позитив*", "повыс*", "улучш*",
	}
	strongNegative = []string{
		"plummet*", "plung*", "crash*", "collaps*", "bankrupt*", "default*", "slump*", "tumbl*",
		"sank", "sink*",
		"обвал*", "обруш*", "крах*", "банкрот*", "дефолт*", "рухн*",
	}
	moderateNegative = []string{
		"fall", "falls", "falling", "fell", "drop*", "declin*", "loss", "losses", "lose*", "lost",
		"weak*", "downgrad*", "miss", "missed", "misses", "negative", "decreas*", "lower", "cut", "cuts",
		"упал*", "упад*", "паден*", "сниз*", "убыт*", "плох*", "кризис*", "потер*", "негатив*",
		"подешев*", "ухудш*", "санкц*",
	}
	negations = map[string]bool{
		"not": true, "no": true, "never": true, "without": true,
		"didn't": true, "doesn't": true, "don't": true, "isn't": true, "aren't": true,
		"wasn't": true, "weren't": true, "won't": true, "can't": true, "hasn't": true, "haven't": true,
		"не": true, "нет": true, "без": true, "ни": true,
	}
	// Phrases describing a flat market override moderate wording.
	neutralMarkers = []string{
		"без существенных изменений", "без изменений", "стабильн", "осталась", "остались", "остался",
		"flat", "unchanged", "steady", "stable",
	}
	percentRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
)

const (
	strongWeight = 2
	// Moves below minPercent are noise unless a strong term says otherwise;
	// moves of at least bigPercent add one point of emphasis.
	minPercent = 2.0
	bigPercent = 5.0
)

// Lexicon is a rule-based classifier over curated Russian and English term
// lists. It never fails and serves as the fallback for every language.
type Lexicon struct{}

var _ interfaces.Classifier = Lexicon{}

func (Lexicon) Name() string { return "lexicon" }

func (l Lexicon) Classify(_ context.Context, text string) (types.ClassifierResult, error) {
	return l.Evaluate(text), nil
}

// Evaluate scores text without a context.
func (Lexicon) Evaluate(text string) types.ClassifierResult {
	lower := strings.ReplaceAll(strings.ToLower(text), "ё", "е")
	tokens := tokenize(lower)

	score, strong := 0, false
	for i, tok := range tokens {
		w := weight(tok)
		if w == 0 {
			continue
		}
		if w == strongWeight || w == -strongWeight {
			strong = true
		}
		if i > 0 && negations[tokens[i-1]] {
			w = -w
		}
		score += w
	}

	if !strong {
		for _, m := range neutralMarkers {
			if strings.Contains(lower, m) {
				return neutralResult()
			}
		}
	}
	if pct, ok := maxPercent(lower); ok && score != 0 {
		switch {
		case pct < minPercent && !strong:
			return neutralResult()
		case pct >= bigPercent:
			if score > 0 {
				score++
			} else {
				score--
			}
		}
	}

	switch {
	case score > 0:
		return types.ClassifierResult{Label: types.Positive, Confidence: confidence(score), Model: "lexicon"}
	case score < 0:
		return types.ClassifierResult{Label: types.Negative, Confidence: confidence(score), Model: "lexicon"}
	default:
		return neutralResult()
	}
}

func neutralResult() types.ClassifierResult {
	return types.ClassifierResult{Label: types.Neutral, Confidence: 0.3, Model: "lexicon"}
}

func confidence(score int) float64 {
	return math.Min(0.9, 0.3+0.15*math.Abs(float64(score)))
}

// tokenize keeps apostrophes inside words so contractions such as "didn't"
// stay one token.
func tokenize(s string) []string {
	s = strings.ReplaceAll(s, "’", "'")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "'"); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func weight(tok string) int {
	switch {
	case matches(tok, strongPositive):
		return strongWeight
	case matches(tok, strongNegative):
		return -strongWeight
	case matches(tok, moderatePositive):
		return 1
	case matches(tok, moderateNegative):
		return -1
	}
	return 0
}

func matches(tok string, terms []string) bool {
	for _, t := range terms {
		if p, ok := strings.CutSuffix(t, "*"); ok {
			if strings.HasPrefix(tok, p) {
				return true
			}
		} else if tok == t {
			return true
		}
	}
	return false
}

func maxPercent(s string) (float64, bool) {
	found := false
	best := 0.0
	for _, m := range percentRe.FindAllStringSubmatch(s, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}
