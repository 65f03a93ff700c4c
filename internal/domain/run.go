package domain

import "time"

// RunReport describes one completed pipeline run.
type RunReport struct {
	RunID        string            `json:"run_id"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	Rows         int               `json:"rows"`
	Regions      int               `json:"regions"`
	Rendered     int               `json:"rendered"`
	Skipped      map[string]string `json:"skipped,omitempty"`
	LastGoodDate time.Time         `json:"last_good_date,omitzero"`
	Total        *RankEntry        `json:"total,omitempty"`
	Reports      []string          `json:"reports"`
}
