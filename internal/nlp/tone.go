package nlp

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tonemirror/tonemirror/internal/domain"
)

// Tone scoring is a deterministic keyword heuristic: each dimension has a
// marker word list, and the score is the count of markers present in the
// text divided by a per-dimension normalizer, clamped to 1.0. Matching is
// case-insensitive substring containment.
var toneMarkers = []struct {
	words   []string
	divisor float64
	assign  func(*domain.ToneAnalysis, float64)
}{
	{
		words:   []string{"professional", "business", "corporate", "formal", "official"},
		divisor: 3,
		assign:  func(t *domain.ToneAnalysis, v float64) { t.Professional = v },
	},
	{
		words:   []string{"hello", "hi", "thanks", "appreciate", "great", "awesome", "wonderful"},
		divisor: 4,
		assign:  func(t *domain.ToneAnalysis, v float64) { t.Friendly = v },
	},
	{
		words:   []string{"will", "can", "definitely", "certainly", "assure", "guarantee"},
		divisor: 3,
		assign:  func(t *domain.ToneAnalysis, v float64) { t.Confident = v },
	},
	{
		words:   []string{"understand", "feel", "sorry", "hope", "wish", "care"},
		divisor: 3,
		assign:  func(t *domain.ToneAnalysis, v float64) { t.Empathetic = v },
	},
}

// ScoreTone computes the four tone dimensions for a text.
func ScoreTone(text string) domain.ToneAnalysis {
	// A Caser may carry state, so each call builds its own.
	lower := cases.Lower(language.Und).String(text)

	var tone domain.ToneAnalysis
	for _, m := range toneMarkers {
		hits := 0
		for _, w := range m.words {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		score := float64(hits) / m.divisor
		if score > 1.0 {
			score = 1.0
		}
		m.assign(&tone, score)
	}
	return tone
}
