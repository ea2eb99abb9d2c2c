// Package domain models parking facility and occupancy data and the
// normalization rules that merge the two upstream sources into one canonical
// view model.
//
// # Upstream Conventions
//
// Nearest-facility service (a thin HTTP front over the 2GIS catalog):
//
//	GET /parking/nearest?coordinates=<lat>,<lng>
//	→ { "total_found": N, "parking": { ... } }
//
//	The parking object carries name, a "lat, lng" coordinates string,
//	capacity, price_per_hour, price_comment, distance_to_request_m,
//	distance_to_center_km and, when the catalog has congestion data,
//	total_spaces / free_spaces. Numeric fields are not reliably typed:
//	the catalog emits string-encoded numbers and comma decimal separators,
//	and any field may be absent. All scalars cross into the domain through
//	the Coerce* helpers; nothing else parses upstream values.
//
// Occupancy-estimate service:
//
//	GET /api/parking/occupancy?cost=<num>&distance=<num>&spots=<num>
//	→ { "occupancy_probability": 0.82, "occupancy_percentage": 82.0,
//	    "occupancy_level": "высокая", "time_context": "...", ... }
//
//	occupancy_probability is a ratio in [0.05, 0.95]; occupancy_level is a
//	Russian label from «очень низкая» through «очень высокая». Redundant
//	fields may disagree; the derivation order in Normalize decides which
//	one wins.
//
// # Classification
//
// A record lands in exactly one status bucket (low, medium, high, unknown).
// Keyword matching on the raw status text runs first, in low → medium → high
// order; the percent thresholds (<60 low, <85 medium, else high) apply only
// when no keyword matches. Both the keyword sets and the thresholds were
// hand-tuned against live estimator output and are kept as named constants.
//
// # Relative Time
//
// ObservedAtRelative buckets the age of the observation: «только что» under
// a minute, then minutes, hours and days, each floored to the unit. The
// current time comes from a package-level clock so tests can freeze it via
// SetClock.
package domain
