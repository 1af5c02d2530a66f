package models

import "time"

// Coordinate is an approximate position resolved from an IP address
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PassWindow is one predicted ISS overhead pass as returned upstream.
// RiseTime is in epoch seconds, Duration in seconds.
type PassWindow struct {
	RiseTime int64 `json:"risetime"`
	Duration int64 `json:"duration"`
}

// Rise returns the rise time in UTC
func (p PassWindow) Rise() time.Time {
	return time.Unix(p.RiseTime, 0).UTC()
}

// FlyoverResult is the outcome of one orchestration run
type FlyoverResult struct {
	RunID       string       `json:"run_id"`
	IP          string       `json:"ip"`
	Coordinate  Coordinate   `json:"coordinate"`
	Passes      []PassWindow `json:"passes"`
	CompletedAt time.Time    `json:"completed_at"`
}
