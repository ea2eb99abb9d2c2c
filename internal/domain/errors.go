package domain

import (
	"errors"
	"fmt"
)

// Stage identifies which upstream call an error belongs to. The gateway
// treats the two stages differently: a nearest failure fails the whole
// lookup, an occupancy failure only degrades it.
type Stage string

const (
	StageNearest   Stage = "nearest"
	StageOccupancy Stage = "occupancy"
)

var (
	// ErrInvalidCoordinates rejects out-of-range latitude/longitude before
	// any upstream call is attempted.
	ErrInvalidCoordinates = errors.New("latitude must be in [-90, 90] and longitude in [-180, 180]")

	// ErrInvalidPayload rejects occupancy payloads that are not JSON objects.
	// This is the normalizer's one hard failure; everything else degrades to
	// unknown.
	ErrInvalidPayload = errors.New("occupancy payload is not an object")
)

// UpstreamError reports a transport failure or non-2xx status from an
// upstream stage. StatusCode is zero when the request never completed.
type UpstreamError struct {
	Stage      Stage
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream returned status %d", e.Stage, e.StatusCode)
	}
	return fmt.Sprintf("%s upstream unavailable: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedResponseError reports a 2xx upstream response whose body could not
// be used.
type MalformedResponseError struct {
	Stage Stage
	Err   error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s upstream returned a malformed response: %v", e.Stage, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
