package domain

import (
	"math"
	"strings"
	"time"
)

// Facility is the nearest-lookup upstream's record of a parking location.
// Identity fields (name, coordinates) are preserved verbatim; numeric fields
// arrive loosely typed and are coerced during parsing, staying nil when the
// upstream omits them.
type Facility struct {
	Name               string   `json:"name"`
	Coordinates        string   `json:"coordinates"` // "lat, lng"
	Purpose            string   `json:"purpose,omitempty"`
	Capacity           *int     `json:"capacity"`
	IsPaid             *bool    `json:"is_paid,omitempty"`
	PriceComment       string   `json:"price_comment,omitempty"`
	PricePerHour       *float64 `json:"price_per_hour"`
	DistanceToRequestM *float64 `json:"distance_to_request_m"`
	DistanceToCenterKm *float64 `json:"distance_to_center_km"`
	TotalSpaces        *int     `json:"total_spaces"`
	FreeSpaces         *int     `json:"free_spaces"`
}

// ParseFacility converts a raw facility object into a Facility, coercing the
// loosely typed numeric fields and trimming the text ones.
func ParseFacility(raw map[string]any) Facility {
	f := Facility{
		Name:         trimmedString(raw["name"]),
		Coordinates:  trimmedString(raw["coordinates"]),
		Purpose:      trimmedString(raw["purpose"]),
		PriceComment: trimmedString(raw["price_comment"]),
	}
	if b, ok := raw["is_paid"].(bool); ok {
		f.IsPaid = &b
	}
	f.Capacity = coercedInt(raw["capacity"])
	f.TotalSpaces = coercedInt(raw["total_spaces"])
	f.FreeSpaces = coercedInt(raw["free_spaces"])
	f.PricePerHour = coercedFloat(raw["price_per_hour"])
	f.DistanceToRequestM = coercedFloat(raw["distance_to_request_m"])
	f.DistanceToCenterKm = coercedFloat(raw["distance_to_center_km"])
	return f
}

// EstimateParams are the occupancy-estimate upstream's query parameters,
// derived from the located facility.
type EstimateParams struct {
	CostPerHour float64
	DistanceKm  float64
	Spots       int
}

// DeriveEstimateParams maps facility fields to estimator parameters.
// Missing fields default to zero: a partial facility record must not block
// the occupancy call.
func DeriveEstimateParams(f Facility) EstimateParams {
	p := EstimateParams{}
	if f.PricePerHour != nil {
		p.CostPerHour = *f.PricePerHour
	}
	if f.DistanceToCenterKm != nil {
		p.DistanceKm = *f.DistanceToCenterKm
	}
	if f.Capacity != nil {
		p.Spots = *f.Capacity
	} else if f.TotalSpaces != nil {
		p.Spots = *f.TotalSpaces
	}
	return p
}

// Assessment is the gateway's merged result: the located facility plus the
// normalized occupancy view. EstimateUnavailable marks soft degradation,
// meaning the occupancy upstream failed but the facility lookup succeeded.
type Assessment struct {
	Facility            Facility        `json:"facility"`
	Occupancy           OccupancyRecord `json:"occupancy"`
	EstimateUnavailable bool            `json:"estimateUnavailable"`
	AssessedAt          time.Time       `json:"assessedAt"`
}

func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func coercedFloat(v any) *float64 {
	f, ok := CoerceNumber(v)
	if !ok {
		return nil
	}
	return &f
}

func coercedInt(v any) *int {
	f, ok := CoerceNumber(v)
	if !ok {
		return nil
	}
	n := int(math.Round(f))
	return &n
}
