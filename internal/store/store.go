// Package store persists roster entries, measurements, and review items
// behind a driver-selected backend (sqlite, postgres, or in-memory).
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/apexperf/roster-cli/internal/model"
)

// Sentinel errors for contract failures; row-level data problems are
// result values, not errors.
var (
	ErrNotFound       = eris.New("store: not found")
	ErrAlreadyDecided = eris.New("store: review item already decided")
)

// Store defines the persistence interface for the import pipeline.
type Store interface {
	// Roster
	CreateRosterEntry(ctx context.Context, entry model.RosterEntry) (*model.RosterEntry, error)
	// SearchRoster returns the organization's candidates whose name is
	// compatible with the query. The filter is deliberately wide (the
	// matching engine handles misspellings); an empty query returns the
	// whole organization roster.
	SearchRoster(ctx context.Context, nameQuery, organizationID string) ([]model.RosterEntry, error)
	// LookupTeamOrganization resolves a team name to its organization id.
	// Returns ErrNotFound when no roster entry carries the team.
	LookupTeamOrganization(ctx context.Context, teamName string) (string, error)

	// Measurements
	CreateMeasurement(ctx context.Context, m model.Measurement) (*model.Measurement, error)

	// Review items
	InsertReviewItem(ctx context.Context, item model.ReviewItem) error
	GetReviewItem(ctx context.Context, id string) (*model.ReviewItem, error)
	// ListPendingReviewItems returns pending items newest first; empty
	// organizationID lists across all organizations.
	ListPendingReviewItems(ctx context.Context, organizationID string) ([]model.ReviewItem, error)
	CountReviewItems(ctx context.Context, organizationID string) (total, pending int, err error)
	// DecideReviewItem transitions a Pending item to a terminal status.
	// Returns ErrNotFound for unknown ids and ErrAlreadyDecided when the
	// item left Pending earlier; the check-and-set is atomic.
	DecideReviewItem(ctx context.Context, id string, status model.ReviewStatus, reviewer string, decidedAt time.Time, notes string) error
	// SweepReviewItems deletes non-Pending items created before cutoff
	// and returns the count removed. Pending items are never swept.
	SweepReviewItems(ctx context.Context, cutoff time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
