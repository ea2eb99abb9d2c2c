// Package gateway sequences the two-stage parking lookup: nearest facility
// first, then the occupancy estimate parameterized by it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"parkpulse/internal/domain"
	"parkpulse/internal/observability"
)

// FacilityLocator finds the parking facility nearest to a point.
type FacilityLocator interface {
	Nearest(ctx context.Context, lat, lng float64) (domain.Facility, error)
}

// OccupancyEstimator fetches a raw occupancy sample for the derived
// facility parameters.
type OccupancyEstimator interface {
	Estimate(ctx context.Context, params domain.EstimateParams) (map[string]any, error)
}

// EventSink receives completed assessments. Publishing is best-effort and
// never affects the caller's result.
type EventSink interface {
	Publish(ctx context.Context, a domain.Assessment) error
}

// Gateway orchestrates the lookup sequence and merges both upstream payloads
// into one assessment. It holds no per-request state; concurrent lookups are
// independent.
type Gateway struct {
	locator   FacilityLocator
	estimator OccupancyEstimator
	events    EventSink // nil when the sink is disabled
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Gateway. Pass a nil events sink to disable assessment
// publishing.
func New(locator FacilityLocator, estimator OccupancyEstimator, events EventSink, logger *slog.Logger, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		locator:   locator,
		estimator: estimator,
		events:    events,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness reports ready as soon as the gateway is constructed: lookups
// hold no state and every request re-fetches from upstream.
func (g *Gateway) CheckReadiness(context.Context) error {
	if g.locator == nil || g.estimator == nil {
		return errors.New("gateway upstream clients are not configured")
	}
	return nil
}

// LocateAndAssess runs the two-stage lookup for a coordinate pair.
//
// The stages are asymmetric on failure: the nearest-facility call is the
// primary deliverable and any failure there fails the whole operation, while
// the occupancy call is enrichment and its failure only marks the result
// degraded. The occupancy call is never attempted when stage 1 fails.
func (g *Gateway) LocateAndAssess(ctx context.Context, lat, lng float64) (domain.Assessment, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return domain.Assessment{}, fmt.Errorf("locate and assess: %w", domain.ErrInvalidCoordinates)
	}

	facility, err := g.locator.Nearest(ctx, lat, lng)
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("locate nearest facility: %w", err)
	}

	params := domain.DeriveEstimateParams(facility)
	sample, estErr := g.estimator.Estimate(ctx, params)
	if estErr != nil {
		g.logger.Warn("occupancy estimate unavailable",
			"facility", facility.Name,
			"error", estErr,
		)
		g.metrics.AssessmentsDegraded.Inc()
	}

	record, err := domain.Normalize(mergeRawSample(facility, sample), subjectFallback(facility, lat, lng))
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("merge occupancy sample: %w", err)
	}

	assessment := domain.Assessment{
		Facility:            facility,
		Occupancy:           record,
		EstimateUnavailable: estErr != nil,
		AssessedAt:          domain.Now(),
	}
	g.metrics.Assessments.Inc()
	g.publish(ctx, assessment)
	return assessment, nil
}

// mergeRawSample builds the normalizer input: spot counts the facility lookup
// already knows form the base, and the stage-2 sample overlays them. After a
// degraded stage 2 the sample is nil and the normalizer sees facility data
// only.
func mergeRawSample(f domain.Facility, sample map[string]any) map[string]any {
	merged := make(map[string]any, len(sample)+2)
	if f.TotalSpaces != nil {
		merged["total_spaces"] = float64(*f.TotalSpaces)
	} else if f.Capacity != nil {
		merged["total_spaces"] = float64(*f.Capacity)
	}
	if f.FreeSpaces != nil {
		merged["free_spaces"] = float64(*f.FreeSpaces)
	}
	for k, v := range sample {
		merged[k] = v
	}
	return merged
}

// subjectFallback resolves the identifier used when the merged sample carries
// none: the facility name, or the query token itself for unnamed facilities.
func subjectFallback(f domain.Facility, lat, lng float64) string {
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("%.6f,%.6f", lat, lng)
}

func (g *Gateway) publish(ctx context.Context, a domain.Assessment) {
	if g.events == nil {
		return
	}
	if err := g.events.Publish(ctx, a); err != nil {
		g.logger.Error("assessment publish failed",
			"subject", a.Occupancy.SubjectID,
			"error", err,
		)
		g.metrics.EventPublishErrors.Inc()
		return
	}
	g.metrics.EventsPublished.Inc()
}
