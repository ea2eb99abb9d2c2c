// Package occupancyapi is the HTTP client for the occupancy-estimate service.
package occupancyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"parkpulse/internal/domain"
	"parkpulse/internal/observability"
)

// Client queries the occupancy-estimate upstream. It implements
// gateway.OccupancyEstimator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an occupancy-estimate client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// Estimate fetches a raw occupancy sample for the derived facility
// parameters. The body is decoded to a raw map and handed to the normalizer
// untouched; this client attaches no meaning to its fields.
func (c *Client) Estimate(ctx context.Context, p domain.EstimateParams) (map[string]any, error) {
	stage := string(domain.StageOccupancy)
	params := url.Values{
		"cost":     {strconv.FormatFloat(p.CostPerHour, 'f', -1, 64)},
		"distance": {strconv.FormatFloat(p.DistanceKm, 'f', -1, 64)},
		"spots":    {strconv.Itoa(p.Spots)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/parking/occupancy?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.UpstreamError{Stage: domain.StageOccupancy, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(stage, observability.OutcomeError).Inc()
		return nil, &domain.UpstreamError{Stage: domain.StageOccupancy, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.UpstreamDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.UpstreamRequests.WithLabelValues(stage, observability.OutcomeError).Inc()
		c.logger.Warn("occupancy upstream error", "status", resp.StatusCode)
		return nil, &domain.UpstreamError{Stage: domain.StageOccupancy, StatusCode: resp.StatusCode}
	}

	var sample map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&sample); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(stage, observability.OutcomeMalformed).Inc()
		return nil, &domain.MalformedResponseError{Stage: domain.StageOccupancy, Err: fmt.Errorf("decode response: %w", err)}
	}
	if sample == nil {
		c.metrics.UpstreamRequests.WithLabelValues(stage, observability.OutcomeMalformed).Inc()
		return nil, &domain.MalformedResponseError{Stage: domain.StageOccupancy, Err: errors.New("response body is not an object")}
	}

	c.metrics.UpstreamRequests.WithLabelValues(stage, observability.OutcomeSuccess).Inc()
	return sample, nil
}
