// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ValidationBreakdown counts validator verdicts per category for a run.
type ValidationBreakdown struct {
	Perfect  int `json:"perfect" yaml:"perfect"`
	Good     int `json:"good" yaml:"good"`
	Maybe    int `json:"maybe" yaml:"maybe"`
	Rejected int `json:"rejected" yaml:"rejected"`
}

// Accepted returns the number of items that passed validation.
func (b ValidationBreakdown) Accepted() int {
	return b.Perfect + b.Good + b.Maybe
}

// RunResult summarizes one pipeline run. Success is false only for
// connectivity-level faults; degraded outcomes (nothing fetched, all
// duplicates, all rejected) stay Success:true with an explanatory error
// string and zero downstream counts.
type RunResult struct {
	Success   bool `json:"success" yaml:"success"`
	Fetched   int  `json:"fetched" yaml:"fetched"`
	Validated int  `json:"validated" yaml:"validated"`
	Unique    int  `json:"unique" yaml:"unique"`
	Inserted  int  `json:"inserted" yaml:"inserted"`
	Updated   int  `json:"updated" yaml:"updated"`

	// InsertedByType breaks Inserted down per staging bucket.
	InsertedByType map[ContentType]int `json:"inserted_by_type,omitempty" yaml:"inserted_by_type,omitempty"`

	Breakdown ValidationBreakdown `json:"validation_breakdown" yaml:"validation_breakdown"`

	Errors     []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	DurationMS int64    `json:"duration_ms" yaml:"duration_ms"`
}

// SuccessRate returns inserted/fetched, or 0 when nothing was fetched.
func (r RunResult) SuccessRate() float64 {
	if r.Fetched == 0 {
		return 0
	}
	return float64(r.Inserted) / float64(r.Fetched)
}
