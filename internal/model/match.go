package model

// MatchKind classifies the outcome of one matching attempt.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
	MatchNone  MatchKind = "none"
)

// MatchCandidate is one scored roster entry with a human-readable reason.
type MatchCandidate struct {
	Entry      RosterEntry `json:"entry"`
	Confidence int         `json:"confidence"`
	Reason     string      `json:"reason"`
}

// MatchResult is the outcome of one matching attempt. Kind == MatchNone
// implies Candidate is nil; confidence is 0-100 and monotonic with kind
// (exact=100 > fuzzy > none=0).
type MatchResult struct {
	Kind                 MatchKind        `json:"kind"`
	Confidence           int              `json:"confidence"`
	Candidate            *MatchCandidate  `json:"candidate,omitempty"`
	Alternatives         []MatchCandidate `json:"alternatives,omitempty"`
	RequiresManualReview bool             `json:"requires_manual_review"`
}
