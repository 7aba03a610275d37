package model

import "strings"

// RosterEntry is an athlete candidate supplied by the roster provider.
// Entries are immutable snapshots; the pipeline never mutates roster data.
type RosterEntry struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	TeamName       string `json:"team_name,omitempty"`
	TeamID         string `json:"team_id,omitempty"`
	OrganizationID string `json:"organization_id"`
}

// FullName returns "First Last" with single spacing.
func (r RosterEntry) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// MatchingCriteria is the query side of one matching attempt. It is built
// fresh per import row and never persisted.
type MatchingCriteria struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	TeamName  string `json:"team_name,omitempty"`
}

// FullName returns "First Last" with single spacing.
func (c MatchingCriteria) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
