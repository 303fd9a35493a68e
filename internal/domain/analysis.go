// Package domain contains core business types and interfaces.
//
// This file defines the analysis result shapes returned by the NLP gateway
// and the persisted Analysis record.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxTextLength is the maximum accepted input length for analysis, in
// characters.
const MaxTextLength = 5000

// ContentType categorizes the text being analyzed.
type ContentType string

const (
	ContentTypeSocial  ContentType = "social"
	ContentTypeEmail   ContentType = "email"
	ContentTypeProfile ContentType = "profile"
)

// Valid reports whether c is a known content type.
func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeSocial, ContentTypeEmail, ContentTypeProfile:
		return true
	default:
		return false
	}
}

// SentimentScore is the sentiment portion of an analysis result.
type SentimentScore struct {
	Score      float64 `json:"score"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ToneAnalysis holds the four heuristic tone scores, each in [0,1].
type ToneAnalysis struct {
	Professional float64 `json:"professional"`
	Friendly     float64 `json:"friendly"`
	Confident    float64 `json:"confident"`
	Empathetic   float64 `json:"empathetic"`
}

// IntentResult is the zero-shot intent classification portion of a result.
type IntentResult struct {
	Primary    string  `json:"primary"`
	Secondary  string  `json:"secondary"`
	Confidence float64 `json:"confidence"`
}

// AnalysisResult is the complete payload returned for one analysis.
type AnalysisResult struct {
	Sentiment                   SentimentScore `json:"sentiment"`
	Tone                        ToneAnalysis   `json:"tone"`
	Intent                      IntentResult   `json:"intent"`
	Suggestions                 []string       `json:"suggestions"`
	PotentialMisinterpretations []string       `json:"potentialMisinterpretations"`
}

// Analysis is the append-only record of one analysis request. Never mutated
// after creation.
type Analysis struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Text        string
	ContentType ContentType
	Result      AnalysisResult
	IsDemo      bool
	CreatedAt   time.Time
}

// UsageStats reports a user's consumption against their plan.
type UsageStats struct {
	Plan            Plan    `json:"plan"`
	MonthlyUsage    int     `json:"monthlyUsage"`
	MonthlyLimit    int     `json:"monthlyLimit"`
	Remaining       int     `json:"remaining"`
	UsagePercentage float64 `json:"usagePercentage"`
}

// Permission is the outcome of a plan-gate check. Reason is set only when
// the action is denied.
type Permission struct {
	Allowed bool
	Reason  string
}
