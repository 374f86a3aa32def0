package health

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jaxxstorm/devdiag/internal/platform"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultEndpoints are tried in descending preference order.
var DefaultEndpoints = []string{"/api/health", "/health", "/"}

type Status struct {
	BaseURL    string `json:"base_url"`
	Endpoint   string `json:"endpoint"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	JSON       bool   `json:"json"`
	RTT        string `json:"rtt"`
}

type Config struct {
	Endpoints []string
	Timeout   time.Duration
	Logger    *zap.Logger
}

type Checker struct {
	fetch  platform.Fetcher
	config Config
}

func NewChecker(fetch platform.Fetcher, cfg Config) *Checker {
	if len(cfg.Endpoints) == 0 {
		cfg.Endpoints = DefaultEndpoints
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Checker{fetch: fetch, config: cfg}
}

// Check returns the first endpoint that answers 2xx. When none does, the error carries
// every attempt.
func (c *Checker) Check(ctx context.Context, baseURL string) (Status, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	var errs error
	for _, endpoint := range c.config.Endpoints {
		if err := ctx.Err(); err != nil {
			return Status{}, multierr.Append(errs, err)
		}
		start := time.Now()
		resp, err := c.fetch.TimedFetch(ctx, platform.Request{
			Method:  http.MethodGet,
			URL:     baseURL + endpoint,
			Timeout: c.config.Timeout,
		})
		if err != nil {
			c.config.Logger.Debug("health endpoint failed", zap.String("endpoint", endpoint), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", endpoint, err))
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			errs = multierr.Append(errs, fmt.Errorf("%s: HTTP %d", endpoint, resp.StatusCode))
			continue
		}
		message, isJSON := parseMessage(resp.Body)
		return Status{
			BaseURL:    baseURL,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    message,
			JSON:       isJSON,
			RTT:        time.Since(start).String(),
		}, nil
	}
	return Status{BaseURL: baseURL}, fmt.Errorf("backend at %s is unreachable: %w", baseURL, errs)
}

// parseMessage prefers a JSON message field and falls back to the trimmed body text.
func parseMessage(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	var payload map[string]any
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &payload) == nil {
		if msg, ok := payload["message"].(string); ok {
			return msg, true
		}
		return string(trimmed), true
	}
	return string(trimmed), false
}
