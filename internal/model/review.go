package model

import "time"

// ReviewStatus is the lifecycle state of a review item.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ReviewAction is a reviewer decision.
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

// ReviewItemType identifies what kind of record a review item defers.
type ReviewItemType string

const ReviewItemMeasurement ReviewItemType = "measurement"

// ReviewItem is a deferred identity-resolution decision awaiting human
// input. Items are created Pending, decided exactly once, and swept after
// retention expires unless still Pending.
type ReviewItem struct {
	ID             string           `json:"id"`
	Type           ReviewItemType   `json:"type"`
	OrganizationID string           `json:"organization_id"`
	Row            RowInput         `json:"row"`
	Criteria       MatchingCriteria `json:"criteria"`
	Suggested      *MatchCandidate  `json:"suggested,omitempty"`
	Alternatives   []MatchCandidate `json:"alternatives,omitempty"`
	Status         ReviewStatus     `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	DecidedBy      string           `json:"decided_by,omitempty"`
	DecidedAt      *time.Time       `json:"decided_at,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}
