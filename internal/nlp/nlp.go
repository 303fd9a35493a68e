// Package nlp turns raw text into a structured communication analysis:
// sentiment, tone dimensions, intent classification, and the derived
// suggestion and misinterpretation lists.
package nlp

import (
	"context"

	"github.com/tonemirror/tonemirror/internal/domain"
)

// DefaultSentimentConfidence is reported when the sentiment classifier
// returns a usable label. The remote models do not expose a separate
// confidence signal for sentiment, so a fixed value is used.
const DefaultSentimentConfidence = 0.85

// IntentLabels is the candidate set handed to the zero-shot intent
// classifier. Order matters only for the fallback path.
var IntentLabels = []string{
	"informative",
	"persuasive",
	"entertaining",
	"professional",
	"casual",
	"formal",
	"friendly",
	"authoritative",
}

// Provider classifies text with a remote model service. Implementations
// must be safe for concurrent use.
type Provider interface {
	// AnalyzeText runs sentiment and intent classification for the given
	// text and assembles a full analysis result. Tone scoring and the
	// derived lists are computed locally.
	AnalyzeText(ctx context.Context, text string) (*domain.AnalysisResult, error)

	// Name identifies the provider for logging and metrics.
	Name() string
}

// Assemble combines classifier outputs with locally computed tone scores
// into the final result shape.
func Assemble(text string, sentiment domain.SentimentScore, intent domain.IntentResult) *domain.AnalysisResult {
	tone := ScoreTone(text)
	return &domain.AnalysisResult{
		Sentiment:                   sentiment,
		Tone:                        tone,
		Intent:                      intent,
		Suggestions:                 Suggestions(sentiment, tone, intent),
		PotentialMisinterpretations: Misinterpretations(sentiment, tone),
	}
}
