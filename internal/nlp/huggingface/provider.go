// Package huggingface implements nlp.Provider against the Hugging Face
// serverless inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/metrics"
	"github.com/tonemirror/tonemirror/internal/nlp"
)

const (
	// APIBaseURL is the base URL for the Hugging Face inference API.
	APIBaseURL = "https://api-inference.huggingface.co/models"

	// DefaultSentimentModel classifies text into negative/neutral/positive.
	DefaultSentimentModel = "cardiffnlp/twitter-roberta-base-sentiment-latest"

	// DefaultIntentModel is a zero-shot classifier scored against
	// nlp.IntentLabels.
	DefaultIntentModel = "facebook/bart-large-mnli"
)

// Config contains configuration for the Hugging Face provider.
type Config struct {
	Token          string
	SentimentModel string
	IntentModel    string
	RequestTimeout time.Duration

	// BaseURL overrides the inference API endpoint. Tests point this at a
	// local server; production leaves it empty.
	BaseURL string
}

// Provider calls the inference API for sentiment and intent and computes
// the remaining fields locally.
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a Hugging Face provider.
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("hugging face API token is required")
	}
	if config.SentimentModel == "" {
		config.SentimentModel = DefaultSentimentModel
	}
	if config.IntentModel == "" {
		config.IntentModel = DefaultIntentModel
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.BaseURL == "" {
		config.BaseURL = APIBaseURL
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// Name implements nlp.Provider.
func (p *Provider) Name() string { return "huggingface" }

// AnalyzeText runs the sentiment and intent classifiers concurrently and
// assembles the full result. Classifier failures degrade to neutral
// defaults instead of failing the analysis; only context cancellation
// aborts the call.
func (p *Provider) AnalyzeText(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	var (
		sentiment domain.SentimentScore
		intent    domain.IntentResult
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s, err := p.classifySentiment(gctx, text)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			p.logger.Warn("Sentiment classification failed, using neutral fallback", "error", err)
			s = domain.SentimentScore{Score: 0.5, Label: "neutral"}
		}
		s.Confidence = nlp.DefaultSentimentConfidence
		sentiment = s
		return nil
	})

	g.Go(func() error {
		i, err := p.classifyIntent(gctx, text)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			p.logger.Warn("Intent classification failed, using fallback", "error", err)
			i = domain.IntentResult{Primary: "informative", Secondary: "neutral", Confidence: 0.5}
		}
		intent = i
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, domain.Errorf(domain.EUNAVAILABLE, "huggingface.AnalyzeText", "analysis aborted: %v", err)
	}

	return nlp.Assemble(text, sentiment, intent), nil
}

// classification is one label/score pair from a text-classification model.
type classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (p *Provider) classifySentiment(ctx context.Context, text string) (domain.SentimentScore, error) {
	body, err := p.post(ctx, p.config.SentimentModel, inferenceRequest{Inputs: text})
	if err != nil {
		return domain.SentimentScore{}, err
	}

	results, err := parseClassifications(body)
	if err != nil {
		return domain.SentimentScore{}, err
	}
	if len(results) == 0 {
		return domain.SentimentScore{}, fmt.Errorf("empty sentiment response")
	}

	return domain.SentimentScore{
		Score: results[0].Score,
		Label: strings.ToLower(results[0].Label),
	}, nil
}

// zeroShotResponse is the response shape of a zero-shot classification
// model.
type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func (p *Provider) classifyIntent(ctx context.Context, text string) (domain.IntentResult, error) {
	req := inferenceRequest{
		Inputs: text,
		Parameters: &inferenceParameters{
			CandidateLabels: nlp.IntentLabels,
		},
	}
	body, err := p.post(ctx, p.config.IntentModel, req)
	if err != nil {
		return domain.IntentResult{}, err
	}

	var resp zeroShotResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.IntentResult{}, fmt.Errorf("unmarshal intent response: %w", err)
	}
	if len(resp.Labels) < 2 || len(resp.Scores) < 1 {
		return domain.IntentResult{}, fmt.Errorf("incomplete intent response: %d labels", len(resp.Labels))
	}

	return domain.IntentResult{
		Primary:    resp.Labels[0],
		Secondary:  resp.Labels[1],
		Confidence: resp.Scores[0],
	}, nil
}

func (p *Provider) post(ctx context.Context, model string, reqBody inferenceRequest) ([]byte, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.config.BaseURL + "/" + model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.Token)

	resp, err := p.client.Do(req)
	if err != nil {
		metrics.NLPAPICalls.WithLabelValues(model, "error").Inc()
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	metrics.NLPAPICalls.WithLabelValues(model, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapHTTPError(model, resp.StatusCode, respBody)
	}

	return respBody, nil
}

// mapHTTPError maps inference API status codes to errors.
func (p *Provider) mapHTTPError(model string, statusCode int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("inference API rejected credentials for %s", model)
	case http.StatusTooManyRequests:
		return fmt.Errorf("inference API rate limit for %s", model)
	case http.StatusServiceUnavailable:
		// Serverless models return 503 while loading.
		return fmt.Errorf("model %s is loading: %s", model, errResp.Error)
	default:
		return fmt.Errorf("inference API error for %s (status %d): %s", model, statusCode, errResp.Error)
	}
}

// parseClassifications handles both response shapes the API produces for
// text-classification models: a flat list of label/score pairs, or that
// list nested one level deep.
func parseClassifications(body []byte) ([]classification, error) {
	var flat []classification
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 && flat[0].Label != "" {
		return flat, nil
	}

	var nested [][]classification
	if err := json.Unmarshal(body, &nested); err != nil {
		return nil, fmt.Errorf("unmarshal classification response: %w", err)
	}
	if len(nested) == 0 {
		return nil, nil
	}
	return nested[0], nil
}

// Inference API request types.

type inferenceRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters *inferenceParameters `json:"parameters,omitempty"`
}

type inferenceParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}
