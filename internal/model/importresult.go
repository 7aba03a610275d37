package model

// ImportAction describes what happened to a successfully processed row.
type ImportAction string

const (
	ImportCreated       ImportAction = "created"
	ImportPendingReview ImportAction = "pending_review"
)

// ImportOutcome is one row's successful result: either a created
// measurement or a queued review item.
type ImportOutcome struct {
	Row           int          `json:"row"`
	Action        ImportAction `json:"action"`
	AthleteID     string       `json:"athlete_id,omitempty"`
	MeasurementID string       `json:"measurement_id,omitempty"`
	ReviewItemID  string       `json:"review_item_id,omitempty"`
	Confidence    int          `json:"confidence,omitempty"`
}

// RowError records a row-level failure without aborting the batch.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary holds derived batch counts.
type ImportSummary struct {
	Successful    int `json:"successful"`
	Failed        int `json:"failed"`
	Warnings      int `json:"warnings"`
	PendingReview int `json:"pending_review"`
}

// ImportBatchResult accumulates one import run. It is built row by row
// and returned once after the full batch completes.
type ImportBatchResult struct {
	Outcomes []ImportOutcome `json:"outcomes"`
	Errors   []RowError      `json:"errors"`
	Warnings []string        `json:"warnings"`
}

// Summary derives counts from the outcome lists. Counts are never kept
// as separate mutable counters, so the lists and the summary cannot
// drift apart.
func (r *ImportBatchResult) Summary() ImportSummary {
	s := ImportSummary{
		Failed:   len(r.Errors),
		Warnings: len(r.Warnings),
	}
	for _, o := range r.Outcomes {
		switch o.Action {
		case ImportCreated:
			s.Successful++
		case ImportPendingReview:
			s.PendingReview++
		}
	}
	return s
}
