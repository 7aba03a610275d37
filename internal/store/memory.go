package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apexperf/roster-cli/internal/model"
)

// MemoryStore is a thread-safe in-memory Store used by tests and as a
// scratch backend. Insertion order is preserved so matching stays
// deterministic.
type MemoryStore struct {
	mu           sync.RWMutex
	roster       []model.RosterEntry
	measurements []model.Measurement
	reviews      map[string]*model.ReviewItem
	reviewOrder  []string
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{reviews: make(map[string]*model.ReviewItem)}
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateRosterEntry(ctx context.Context, entry model.RosterEntry) (*model.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	s.roster = append(s.roster, entry)
	return &entry, nil
}

func (s *MemoryStore) SearchRoster(ctx context.Context, nameQuery, organizationID string) ([]model.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prefix string
	if q := strings.TrimSpace(nameQuery); q != "" {
		prefix = strings.ToLower(q[:1])
	}

	var out []model.RosterEntry
	for _, e := range s.roster {
		if e.OrganizationID != organizationID {
			continue
		}
		if prefix != "" &&
			!strings.HasPrefix(strings.ToLower(e.LastName), prefix) &&
			!strings.HasPrefix(strings.ToLower(e.FirstName), prefix) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *MemoryStore) LookupTeamOrganization(ctx context.Context, teamName string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.roster {
		if strings.EqualFold(e.TeamName, teamName) && e.TeamName != "" {
			return e.OrganizationID, nil
		}
	}
	return "", ErrNotFound
}

func (s *MemoryStore) CreateMeasurement(ctx context.Context, m model.Measurement) (*model.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.measurements = append(s.measurements, m)
	return &m, nil
}

// Measurements returns a copy of all persisted measurements (test helper).
func (s *MemoryStore) Measurements() []model.Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Measurement, len(s.measurements))
	copy(out, s.measurements)
	return out
}

func (s *MemoryStore) InsertReviewItem(ctx context.Context, item model.ReviewItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := item
	s.reviews[item.ID] = &cp
	s.reviewOrder = append(s.reviewOrder, item.ID)
	return nil
}

func (s *MemoryStore) GetReviewItem(ctx context.Context, id string) (*model.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *MemoryStore) ListPendingReviewItems(ctx context.Context, organizationID string) ([]model.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ReviewItem
	// Newest first: walk insertion order backwards.
	for i := len(s.reviewOrder) - 1; i >= 0; i-- {
		item := s.reviews[s.reviewOrder[i]]
		if item == nil || item.Status != model.ReviewPending {
			continue
		}
		if organizationID != "" && item.OrganizationID != organizationID {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (s *MemoryStore) CountReviewItems(ctx context.Context, organizationID string) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total, pending int
	for _, item := range s.reviews {
		if organizationID != "" && item.OrganizationID != organizationID {
			continue
		}
		total++
		if item.Status == model.ReviewPending {
			pending++
		}
	}
	return total, pending, nil
}

func (s *MemoryStore) DecideReviewItem(ctx context.Context, id string, status model.ReviewStatus, reviewer string, decidedAt time.Time, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.reviews[id]
	if !ok {
		return ErrNotFound
	}
	if item.Status != model.ReviewPending {
		return ErrAlreadyDecided
	}
	item.Status = status
	item.DecidedBy = reviewer
	item.DecidedAt = &decidedAt
	item.Notes = notes
	return nil
}

func (s *MemoryStore) SweepReviewItems(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.reviewOrder[:0]
	for _, id := range s.reviewOrder {
		item := s.reviews[id]
		if item.Status != model.ReviewPending && item.CreatedAt.Before(cutoff) {
			delete(s.reviews, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.reviewOrder = kept
	return removed, nil
}
