package nlp

import "github.com/tonemirror/tonemirror/internal/domain"

// DemoResult returns the canned analysis served when no model provider is
// configured or the remote call fails. Callers get a fresh copy so the
// shared payload cannot be mutated.
func DemoResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		Sentiment: domain.SentimentScore{
			Score:      0.75,
			Label:      "positive",
			Confidence: 0.89,
		},
		Tone: domain.ToneAnalysis{
			Professional: 0.8,
			Friendly:     0.7,
			Confident:    0.6,
			Empathetic:   0.4,
		},
		Intent: domain.IntentResult{
			Primary:    "informative",
			Secondary:  "persuasive",
			Confidence: 0.82,
		},
		Suggestions: []string{
			"Consider adding more specific details to make your message clearer",
			"The tone is professional but could be more engaging",
			"Your confidence level is good, but could be enhanced with concrete examples",
		},
		PotentialMisinterpretations: []string{
			"Some readers might find this too formal",
			"The message could be perceived as lacking enthusiasm",
		},
	}
}
