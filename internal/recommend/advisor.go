package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"estatehub/server/internal/metrics"
	"estatehub/server/internal/models"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"

	advisorBreakerName = "openai-advisor"

	// maxPromptCatalog bounds how many listings are sent to the model
	maxPromptCatalog = 60
)

var (
	ErrAdvisorDisabled = errors.New("ai advisor is not configured")
	ErrNoValidPicks    = errors.New("ai advisor returned no known properties")
)

const advisorSystemPrompt = `You are a property advisor for a real-estate agency in Uganda.
You receive a visitor's preferences and a JSON catalog of listings.
Pick the listings that best fit the visitor and answer with JSON only, in the form:
{"recommendations":[{"id":"<listing id>","reason":"<one short sentence>"}],"summary":"<one sentence>"}
Only use ids that appear in the catalog. Order picks from best to worst.`

// AdvisorConfig configures the LLM-backed advisor
type AdvisorConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// AdvisorRequest is what a visitor sends to ask for AI recommendations
type AdvisorRequest struct {
	Preferences Preferences `json:"preferences"`
	Message     string      `json:"message" binding:"max=1000"`
	LikedIDs    []string    `json:"liked_ids" binding:"max=100"`
	Limit       int         `json:"limit" binding:"min=0,max=24"`
}

// AdvisorResult always carries recommendations; Source tells whether the model produced them
type AdvisorResult struct {
	Source          string           `json:"source"`
	Summary         string           `json:"summary,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

type advisorPick struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type advisorAnswer struct {
	Recommendations []advisorPick `json:"recommendations"`
	Summary         string        `json:"summary"`
}

type promptListing struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Location     string   `json:"location"`
	City         string   `json:"city"`
	Price        string   `json:"price"`
	PropertyType string   `json:"property_type"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *int     `json:"bathrooms,omitempty"`
	Features     []string `json:"features,omitempty"`
}

// Advisor asks an OpenAI-compatible model for recommendations and falls back
// to the deterministic Scorer whenever the model cannot be used.
type Advisor struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*advisorAnswer]
	scorer  *Scorer
	logger  *logrus.Logger
}

func NewAdvisor(cfg AdvisorConfig, scorer *Scorer, logger *logrus.Logger) *Advisor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if scorer == nil {
		scorer = NewScorer(DefaultLimit, nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	a := &Advisor{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		scorer:  scorer,
		logger:  logger,
	}

	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		a.client = openai.NewClientWithConfig(clientCfg)
	}

	metrics.CircuitBreakerState.WithLabelValues(advisorBreakerName).Set(0)
	a.cb = gobreaker.NewCircuitBreaker[*advisorAnswer](gobreaker.Settings{
		Name:        advisorBreakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return a
}

// Enabled reports whether an API key was configured
func (a *Advisor) Enabled() bool {
	return a.client != nil
}

// Recommend returns model picks from catalog, or scorer output when the model is unavailable.
func (a *Advisor) Recommend(ctx context.Context, req AdvisorRequest, catalog []models.Property) AdvisorResult {
	limit := req.Limit
	if limit <= 0 {
		limit = a.scorer.Limit()
	}
	liked := NewLikedSet(req.LikedIDs...)

	answer, err := a.ask(ctx, req, catalog, limit)
	if err == nil {
		recs := a.materialize(answer, catalog, req.Preferences, liked, limit)
		if len(recs) > 0 {
			metrics.AdvisorOutcomes.WithLabelValues("success").Inc()
			return AdvisorResult{Source: SourceAI, Summary: answer.Summary, Recommendations: recs}
		}
		err = ErrNoValidPicks
	}

	outcome := "error"
	switch {
	case errors.Is(err, ErrAdvisorDisabled):
		outcome = "disabled"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "rejected"
	case errors.Is(err, ErrNoValidPicks):
		outcome = "invalid"
	}
	metrics.AdvisorOutcomes.WithLabelValues(outcome).Inc()
	if outcome != "disabled" {
		a.logger.WithError(err).Warn("AI advisor failed, using scorer fallback")
	}

	return AdvisorResult{
		Source:          SourceFallback,
		Recommendations: a.scorer.ScoreTop(models.Property{}, catalog, req.Preferences, liked, limit),
	}
}

func (a *Advisor) ask(ctx context.Context, req AdvisorRequest, catalog []models.Property, limit int) (*advisorAnswer, error) {
	if a.client == nil {
		return nil, ErrAdvisorDisabled
	}
	if len(catalog) == 0 {
		return nil, ErrNoValidPicks
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	prompt, err := buildAdvisorPrompt(req, catalog, limit)
	if err != nil {
		return nil, err
	}

	return a.cb.Execute(func() (*advisorAnswer, error) {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: advisorSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("chat completion returned no choices")
		}
		return parseAdvisorAnswer(resp.Choices[0].Message.Content)
	})
}

// materialize keeps picks that name catalog listings, in the model's order, without duplicates
func (a *Advisor) materialize(answer *advisorAnswer, catalog []models.Property, prefs Preferences, liked LikedSet, limit int) []Recommendation {
	scored := make(map[string]Recommendation, len(catalog))
	for _, rec := range a.scorer.scoreAll(models.Property{}, catalog, prefs, liked) {
		scored[rec.Property.ID] = rec
	}

	recs := make([]Recommendation, 0, limit)
	seen := make(map[string]bool)
	for _, pick := range answer.Recommendations {
		rec, ok := scored[pick.ID]
		if !ok || seen[pick.ID] {
			continue
		}
		seen[pick.ID] = true

		if reason := strings.TrimSpace(pick.Reason); reason != "" {
			reasons := append([]string{reason}, rec.Reasons...)
			if len(reasons) > maxReasons {
				reasons = reasons[:maxReasons]
			}
			rec.Reasons = reasons
		}
		recs = append(recs, rec)
		if len(recs) == limit {
			break
		}
	}
	return recs
}

func buildAdvisorPrompt(req AdvisorRequest, catalog []models.Property, limit int) (string, error) {
	listings := make([]promptListing, 0, min(len(catalog), maxPromptCatalog))
	for _, p := range catalog {
		if len(listings) == maxPromptCatalog {
			break
		}
		listings = append(listings, promptListing{
			ID:           p.ID,
			Title:        p.Title,
			Location:     p.Location,
			City:         p.City,
			Price:        p.Price,
			PropertyType: p.PropertyType,
			Bedrooms:     p.Bedrooms,
			Bathrooms:    p.Bathrooms,
			Features:     p.Features,
		})
	}

	payload := struct {
		Preferences Preferences     `json:"preferences"`
		Message     string          `json:"message,omitempty"`
		LikedIDs    []string        `json:"liked_ids,omitempty"`
		MaxPicks    int             `json:"max_picks"`
		Catalog     []promptListing `json:"catalog"`
	}{req.Preferences, req.Message, req.LikedIDs, limit, listings}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode advisor prompt: %w", err)
	}
	return string(data), nil
}

func parseAdvisorAnswer(content string) (*advisorAnswer, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var answer advisorAnswer
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &answer); err != nil {
		return nil, fmt.Errorf("failed to parse advisor answer: %w", err)
	}
	return &answer, nil
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
