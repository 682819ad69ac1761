package adjust

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pitchside/scoutrank/internal/config"
)

// Request carries the blended score and its inputs to the learned model.
type Request struct {
	TeamID       string  `json:"team_id"`
	Cohort       string  `json:"cohort"`
	OffenseNorm  float64 `json:"offense_norm"`
	DefenseNorm  float64 `json:"defense_norm"`
	SOSNorm      float64 `json:"sos_norm"`
	PerfCentered float64 `json:"perf_centered"`
	BlendedScore float64 `json:"blended_score"`
	GamesPlayed  int     `json:"games_played"`
}

type response struct {
	Nudge float64 `json:"nudge"`
}

// Adjuster nudges a blended PowerScore by a learned residual. Implementations
// may fail freely: the blender treats every error as "use the unadjusted
// blend" and the adjustment is never a hard dependency.
type Adjuster interface {
	Nudge(ctx context.Context, req Request) (float64, error)
}

// Client calls the residual model service over HTTP, behind a circuit breaker
// and a token-bucket limiter so a batch run cannot hammer the service or keep
// retrying a dead one.
type Client struct {
	httpClient *http.Client
	url        string
	maxNudge   float64
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

// NewClient creates an adjustment client from configuration.
func NewClient(cfg config.AdjustmentConfig) *Client {
	settings := gobreaker.Settings{Name: "adjustment-model"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout.Std()},
		url:        cfg.URL,
		maxNudge:   cfg.MaxNudge,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// Nudge requests a residual adjustment for one team's blended score. The
// returned value is clamped to ±max_nudge regardless of what the model says.
func (c *Client) Nudge(ctx context.Context, req Request) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("adjustment rate limit: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, req)
	})
	if err != nil {
		return 0, fmt.Errorf("adjustment model call failed: %w", err)
	}

	nudge := result.(float64)
	if nudge > c.maxNudge {
		nudge = c.maxNudge
	}
	if nudge < -c.maxNudge {
		nudge = -c.maxNudge
	}
	return nudge, nil
}

func (c *Client) post(ctx context.Context, req Request) (float64, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal adjustment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build adjustment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("adjustment model returned status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode adjustment response: %w", err)
	}

	return out.Nudge, nil
}
