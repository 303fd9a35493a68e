package nlp

import "github.com/tonemirror/tonemirror/internal/domain"

const maxSuggestions = 3

// Suggestions derives actionable advice from the classifier outputs. At
// most three suggestions are returned, in rule order.
func Suggestions(sentiment domain.SentimentScore, tone domain.ToneAnalysis, intent domain.IntentResult) []string {
	var out []string

	if sentiment.Score < 0.3 {
		out = append(out, "Consider using more positive language to improve engagement")
	}
	if sentiment.Score > 0.8 {
		out = append(out, "Your positive tone is great for engagement")
	}
	if tone.Professional < 0.4 {
		out = append(out, "Consider making your tone more professional for business contexts")
	}
	if tone.Friendly < 0.3 {
		out = append(out, "Adding more friendly language could make your message more approachable")
	}
	if tone.Confident < 0.5 {
		out = append(out, "Using more confident language could strengthen your message")
	}
	if intent.Primary == "persuasive" && intent.Confidence < 0.7 {
		out = append(out, "Consider strengthening your persuasive elements with specific examples")
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// Misinterpretations flags ways the text could land differently than
// intended. Unlike suggestions the list is not truncated.
func Misinterpretations(sentiment domain.SentimentScore, tone domain.ToneAnalysis) []string {
	var out []string

	if tone.Professional > 0.8 && tone.Friendly < 0.3 {
		out = append(out, "Your message might be perceived as too formal or cold")
	}
	if sentiment.Score < 0.2 {
		out = append(out, "Your message could be interpreted as negative or complaining")
	}
	if tone.Confident > 0.8 && tone.Empathetic < 0.3 {
		out = append(out, "Your confident tone might come across as arrogant")
	}
	return out
}
