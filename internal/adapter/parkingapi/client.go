// Package parkingapi is the HTTP client for the nearest-facility service,
// a thin front over the 2GIS catalog.
package parkingapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"parkpulse/internal/domain"
	"parkpulse/internal/observability"
)

// Client queries the nearest-facility upstream. It implements
// gateway.FacilityLocator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a nearest-facility client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// nearestResponse mirrors the upstream envelope. The facility body is decoded
// loosely; field coercion happens in domain.ParseFacility.
type nearestResponse struct {
	TotalFound any            `json:"total_found"`
	Parking    map[string]any `json:"parking"`
}

// Nearest finds the facility closest to the given point. The coordinate pair
// is encoded as a single "lat,lng" query value, matching the upstream's
// contract.
func (c *Client) Nearest(ctx context.Context, lat, lng float64) (domain.Facility, error) {
	stage := string(domain.StageNearest)
	params := url.Values{
		"coordinates": {fmt.Sprintf("%.6f,%.6f", lat, lng)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/parking/nearest?"+params.Encode(), nil)
	if err != nil {
		return domain.Facility{}, &domain.UpstreamError{Stage: domain.StageNearest, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(stage, observability.OutcomeError).Inc()
		return domain.Facility{}, &domain.UpstreamError{Stage: domain.StageNearest, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.UpstreamDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.UpstreamRequests.WithLabelValues(stage, observability.OutcomeError).Inc()
		c.logger.Warn("nearest upstream error", "status", resp.StatusCode)
		return domain.Facility{}, &domain.UpstreamError{Stage: domain.StageNearest, StatusCode: resp.StatusCode}
	}

	var body nearestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(stage, observability.OutcomeMalformed).Inc()
		return domain.Facility{}, &domain.MalformedResponseError{Stage: domain.StageNearest, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(body.Parking) == 0 {
		c.metrics.UpstreamRequests.WithLabelValues(stage, observability.OutcomeMalformed).Inc()
		return domain.Facility{}, &domain.MalformedResponseError{Stage: domain.StageNearest, Err: errors.New("response lacks a parking object")}
	}

	c.metrics.UpstreamRequests.WithLabelValues(stage, observability.OutcomeSuccess).Inc()
	return domain.ParseFacility(body.Parking), nil
}
