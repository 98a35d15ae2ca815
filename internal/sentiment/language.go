package sentiment

import (
	"unicode"

	"github.com/abadojack/whatlanggo"
)

const (
	LangRU = "ru"
	LangEN = "en"
)

// cyrillicShare above which text is routed to the Russian chain when
// detection is unreliable.
const cyrillicShare = 0.3

// DetectLanguage routes text to ru or en. Short headlines often defeat
// statistical detection; those fall back to the share of Cyrillic letters.
func DetectLanguage(text string) string {
	sample := []rune(text)
	if len(sample) > 200 {
		sample = sample[:200]
	}
	info := whatlanggo.Detect(string(sample))
	if info.IsReliable() {
		switch info.Lang {
		case whatlanggo.Rus:
			return LangRU
		case whatlanggo.Eng:
			return LangEN
		}
	}

	letters, cyr := 0, 0
	for _, r := range sample {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Cyrillic, r) {
			cyr++
		}
	}
	if letters > 0 && float64(cyr)/float64(letters) > cyrillicShare {
		return LangRU
	}
	return LangEN
}
