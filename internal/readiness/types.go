// Package readiness decides export eligibility: it walks a document's field
// data against its template's readiness rules and produces blocking issues,
// advisory recommendations, and completion metrics. Evaluation is a pure
// function over in-memory values; results are produced fresh every call and
// never persisted.
package readiness

import "github.com/specl/specl/internal/issues"

// Completion summarizes required-field progress. RequiredPercent is
// floor(done/total*100), or 0 when total is 0. QualityPercent additionally
// pools a small advisory checklist into the same ratio; it never gates
// readiness.
type Completion struct {
	RequiredDone    int `json:"requiredDone"`
	RequiredTotal   int `json:"requiredTotal"`
	RequiredPercent int `json:"requiredPercent"`
	QualityPercent  int `json:"qualityPercent"`
}

// SectionStats carries per-section required-field counters.
type SectionStats struct {
	SectionKey      string `json:"sectionKey"`
	RequiredDone    int    `json:"requiredDone"`
	RequiredTotal   int    `json:"requiredTotal"`
	RequiredPercent int    `json:"requiredPercent"`
}

// Result is the aggregate output of one evaluation. IsReady is true iff
// there are zero blocking issues; recommendations never affect it.
type Result struct {
	IsReady         bool           `json:"isReady"`
	Completion      Completion     `json:"completion"`
	BlockingIssues  []issues.Issue `json:"blockingIssues"`
	Recommendations []issues.Issue `json:"recommendations"`
	PerSectionStats []SectionStats `json:"perSectionStats"`
}
