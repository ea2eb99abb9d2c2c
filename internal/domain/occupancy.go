package domain

import "time"

// Status is the coarse occupancy classification of a facility.
type Status string

const (
	StatusLow     Status = "low"
	StatusMedium  Status = "medium"
	StatusHigh    Status = "high"
	StatusUnknown Status = "unknown"
)

// OccupancyRecord is the canonical per-request view model merged from the two
// upstream payloads. It is constructed fresh for every lookup and never
// cached. Pointer fields serialize as null when the upstreams did not supply
// enough data to derive them; StatusBucket and HumanStatus are always set.
type OccupancyRecord struct {
	SubjectID          string     `json:"subjectId"`
	TotalSpots         *int       `json:"totalSpots"`
	OccupiedSpots      *int       `json:"occupiedSpots"`
	FreeSpots          *int       `json:"freeSpots"`
	OccupancyPercent   *int       `json:"occupancyPercent"`
	StatusBucket       Status     `json:"statusBucket"`
	HumanStatus        string     `json:"humanStatus"`
	ObservedAt         *time.Time `json:"observedAt"`
	ObservedAtDisplay  *string    `json:"observedAtDisplay"`
	ObservedAtRelative *string    `json:"observedAtRelative"`
}
