package domain

import "time"

// PassResult summarizes one reconciliation pass for observers.
type PassResult struct {
	PassID      string        `json:"pass_id"`
	Matched     int           `json:"matched"`
	Rendered    int           `json:"rendered"`
	Copied      int           `json:"copied"`
	Skipped     int           `json:"skipped"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
	CompletedAt time.Time     `json:"completed_at"`
}

// OK reports whether the pass completed without aborting.
func (r PassResult) OK() bool {
	return r.Error == ""
}
