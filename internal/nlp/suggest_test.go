package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonemirror/tonemirror/internal/domain"
)

func TestSuggestions_RuleOrder(t *testing.T) {
	// Four rules fire; the list is truncated to three in rule order.
	sentiment := domain.SentimentScore{Score: 0.1}
	tone := domain.ToneAnalysis{}
	intent := domain.IntentResult{Primary: "informative", Confidence: 0.9}

	got := Suggestions(sentiment, tone, intent)

	assert.Len(t, got, 3)
	assert.Equal(t, "Consider using more positive language to improve engagement", got[0])
	assert.Equal(t, "Consider making your tone more professional for business contexts", got[1])
	assert.Equal(t, "Adding more friendly language could make your message more approachable", got[2])
}

func TestSuggestions_PositiveTone(t *testing.T) {
	sentiment := domain.SentimentScore{Score: 0.85}
	tone := domain.ToneAnalysis{Professional: 0.9, Friendly: 0.9, Confident: 0.9}
	intent := domain.IntentResult{Primary: "informative", Confidence: 0.9}

	got := Suggestions(sentiment, tone, intent)

	assert.Equal(t, []string{"Your positive tone is great for engagement"}, got)
}

func TestSuggestions_WeakPersuasion(t *testing.T) {
	sentiment := domain.SentimentScore{Score: 0.5}
	tone := domain.ToneAnalysis{Professional: 0.5, Friendly: 0.5, Confident: 0.9}
	intent := domain.IntentResult{Primary: "persuasive", Confidence: 0.5}

	got := Suggestions(sentiment, tone, intent)

	assert.Equal(t, []string{"Consider strengthening your persuasive elements with specific examples"}, got)
}

func TestSuggestions_NoneFire(t *testing.T) {
	sentiment := domain.SentimentScore{Score: 0.5}
	tone := domain.ToneAnalysis{Professional: 0.5, Friendly: 0.5, Confident: 0.9}
	intent := domain.IntentResult{Primary: "informative", Confidence: 0.9}

	assert.Empty(t, Suggestions(sentiment, tone, intent))
}

func TestMisinterpretations_AllRules(t *testing.T) {
	sentiment := domain.SentimentScore{Score: 0.1}
	tone := domain.ToneAnalysis{Professional: 0.9, Friendly: 0.1, Confident: 0.9, Empathetic: 0.1}

	got := Misinterpretations(sentiment, tone)

	// All three rules fire; the list is not truncated.
	assert.Equal(t, []string{
		"Your message might be perceived as too formal or cold",
		"Your message could be interpreted as negative or complaining",
		"Your confident tone might come across as arrogant",
	}, got)
}

func TestMisinterpretations_NoneFire(t *testing.T) {
	sentiment := domain.SentimentScore{Score: 0.5}
	tone := domain.ToneAnalysis{Professional: 0.5, Friendly: 0.5, Confident: 0.5, Empathetic: 0.5}

	assert.Empty(t, Misinterpretations(sentiment, tone))
}

func TestDemoResult_FreshCopy(t *testing.T) {
	first := DemoResult()
	first.Suggestions[0] = "mutated"
	first.Sentiment.Score = 0

	second := DemoResult()
	assert.Equal(t, 0.75, second.Sentiment.Score)
	assert.Equal(t, "positive", second.Sentiment.Label)
	assert.Equal(t, 0.89, second.Sentiment.Confidence)
	assert.Equal(t, "informative", second.Intent.Primary)
	assert.Equal(t, "persuasive", second.Intent.Secondary)
	assert.Equal(t, 0.82, second.Intent.Confidence)
	assert.Len(t, second.Suggestions, 3)
	assert.Len(t, second.PotentialMisinterpretations, 2)
	assert.Equal(t, "Consider adding more specific details to make your message clearer", second.Suggestions[0])
}

func TestAssemble(t *testing.T) {
	sentiment := domain.SentimentScore{Score: 0.85, Label: "positive", Confidence: 0.85}
	intent := domain.IntentResult{Primary: "informative", Secondary: "friendly", Confidence: 0.7}

	result := Assemble("hello thanks great awesome wonderful", sentiment, intent)

	assert.Equal(t, sentiment, result.Sentiment)
	assert.Equal(t, intent, result.Intent)
	assert.Equal(t, 1.0, result.Tone.Friendly)
	assert.NotEmpty(t, result.Suggestions)
}
