// Package explain renders patient-facing explanations for assessment
// results. When an upstream language-model service is configured it is asked
// first; any failure, open circuit or disabled configuration falls back to a
// deterministic template so assessments always carry an explanation.
package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pharmaguard-server/internal/domain"
)

// Explanation sources reported on the assessment result
const (
	SourceService  = "service"
	SourceFallback = "fallback"
)

// Config represents explanation service settings
type Config struct {
	Enabled   bool          `json:"enabled"`
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit int           `json:"rate_limit"` // requests per second
}

// Client generates explanations for assessment results
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	rateLimit  *rate.Limiter
	logger     *logrus.Logger
}

type explainRequest struct {
	Drug           string  `json:"drug"`
	Gene           string  `json:"gene"`
	Diplotype      string  `json:"diplotype"`
	Phenotype      string  `json:"phenotype"`
	RiskLabel      string  `json:"risk_label"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

// NewClient creates a new explanation client
func NewClient(config Config, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "explain",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		breaker:   breaker,
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:    logger,
	}
}

// Explain returns an explanation for the result and the source it came from.
// The returned source is SourceFallback whenever the upstream service was
// not consulted or did not answer.
func (c *Client) Explain(ctx context.Context, result *domain.AssessmentResult) (string, string) {
	if !c.config.Enabled || c.config.BaseURL == "" {
		return c.fallback(result), SourceFallback
	}

	if err := c.rateLimit.Wait(ctx); err != nil {
		return c.fallback(result), SourceFallback
	}

	text, err := c.breaker.Execute(func() (interface{}, error) {
		return c.request(ctx, result)
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"drug":  result.Drug,
			"error": err.Error(),
		}).Warn("Explanation service unavailable, using fallback")
		return c.fallback(result), SourceFallback
	}

	return text.(string), SourceService
}

func (c *Client) request(ctx context.Context, result *domain.AssessmentResult) (string, error) {
	payload, err := json.Marshal(explainRequest{
		Drug:           result.Drug,
		Gene:           result.Gene,
		Diplotype:      result.Diplotype,
		Phenotype:      result.Phenotype.String(),
		RiskLabel:      result.RiskLabel,
		Recommendation: result.Recommendation,
		Confidence:     result.Confidence,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/explanations", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.ExternalServiceError{Service: "explain", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &domain.ExternalServiceError{
			Service: "explain",
			Cause:   fmt.Errorf("status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var parsed explainResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &domain.ExternalServiceError{Service: "explain", Cause: err}
	}
	if parsed.Explanation == "" {
		return "", &domain.ExternalServiceError{
			Service: "explain",
			Cause:   fmt.Errorf("empty explanation in response"),
		}
	}

	return parsed.Explanation, nil
}

// fallback renders a deterministic template from the assessment fields
func (c *Client) fallback(result *domain.AssessmentResult) string {
	if result.Gene == "" {
		return fmt.Sprintf("No pharmacogenomic guideline is available for %s. "+
			"Standard prescribing guidance applies; consult a clinician for drug-specific advice.",
			result.Drug)
	}
	return fmt.Sprintf("Based on the %s diplotype %s, this patient is classified as a %s (%s). "+
		"For %s the matched guideline indicates: %s. Recommendation: %s",
		result.Gene, result.Diplotype, result.PhenotypeName, result.Phenotype,
		result.Drug, result.RiskLabel, result.Recommendation)
}
