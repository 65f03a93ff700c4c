package domain

import "time"

// RegionSummary is the per-region result of a run, published to the summary topic.
type RegionSummary struct {
	RunID       string           `json:"run_id"`
	Region      string           `json:"region"`
	Statistics  RegionStatistics `json:"statistics"`
	Trimmed     int              `json:"points_trimmed"`
	Image       string           `json:"image,omitempty"`
	SkipReason  string           `json:"skip_reason,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}
