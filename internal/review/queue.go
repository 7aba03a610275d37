// Package review holds low-confidence import rows until a human approves
// or rejects the suggested match. Decisions are terminal: a corrected
// re-import creates a new item rather than reopening an old one.
package review

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/apexperf/roster-cli/internal/model"
	"github.com/apexperf/roster-cli/internal/store"
)

// ErrInvalidAction is returned for decision actions other than
// approve/reject.
var ErrInvalidAction = eris.New("review: invalid action")

// Queue manages review items on top of the Store. It is an explicitly
// constructed component injected where needed; there is no package-level
// instance.
type Queue struct {
	store         store.Store
	metrics       model.MetricRegistry
	retentionDays int
}

// NewQueue creates a Queue. retentionDays bounds how long decided items
// are kept; Pending items are never purged.
func NewQueue(st store.Store, metrics model.MetricRegistry, retentionDays int) *Queue {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &Queue{store: st, metrics: metrics, retentionDays: retentionDays}
}

// Add stores a new Pending item, assigning its id and creation timestamp.
// Validation happened upstream; Add itself only fills required defaults.
func (q *Queue) Add(ctx context.Context, item model.ReviewItem) (*model.ReviewItem, error) {
	item.ID = uuid.NewString()
	item.Status = model.ReviewPending
	item.CreatedAt = time.Now().UTC()
	if item.Type == "" {
		item.Type = model.ReviewItemMeasurement
	}
	if err := q.store.InsertReviewItem(ctx, item); err != nil {
		return nil, eris.Wrap(err, "review: add item")
	}
	return &item, nil
}

// Get returns the item or store.ErrNotFound.
func (q *Queue) Get(ctx context.Context, id string) (*model.ReviewItem, error) {
	return q.store.GetReviewItem(ctx, id)
}

// PendingList is the ListPending response: pending items newest first
// plus overall counts.
type PendingList struct {
	Items   []model.ReviewItem `json:"items"`
	Total   int                `json:"total"`
	Pending int                `json:"pending"`
}

// ListPending returns all Pending items for the organization scope;
// empty scope lists every organization.
func (q *Queue) ListPending(ctx context.Context, organizationID string) (*PendingList, error) {
	items, err := q.store.ListPendingReviewItems(ctx, organizationID)
	if err != nil {
		return nil, eris.Wrap(err, "review: list pending")
	}
	total, pending, err := q.store.CountReviewItems(ctx, organizationID)
	if err != nil {
		return nil, eris.Wrap(err, "review: count items")
	}
	return &PendingList{Items: items, Total: total, Pending: pending}, nil
}

// Decide transitions a Pending item to Approved or Rejected, recording
// the reviewer and timestamp. Unknown ids fail with store.ErrNotFound;
// re-deciding fails with store.ErrAlreadyDecided. Approving an item with
// a suggested match persists the deferred measurement.
func (q *Queue) Decide(ctx context.Context, id string, action model.ReviewAction, reviewer, notes string) (*model.ReviewItem, error) {
	var status model.ReviewStatus
	switch action {
	case model.ReviewActionApprove:
		status = model.ReviewApproved
	case model.ReviewActionReject:
		status = model.ReviewRejected
	default:
		return nil, eris.Wrapf(ErrInvalidAction, "review: action %q", action)
	}

	item, err := q.store.GetReviewItem(ctx, id)
	if err != nil {
		return nil, err
	}

	decidedAt := time.Now().UTC()
	if err := q.store.DecideReviewItem(ctx, id, status, reviewer, decidedAt, notes); err != nil {
		return nil, err
	}

	if status == model.ReviewApproved && item.Type == model.ReviewItemMeasurement {
		if err := q.applyMeasurement(ctx, item, reviewer); err != nil {
			// The decision stands; the apply failure is surfaced for the
			// operator rather than rolled into the item state.
			return nil, eris.Wrap(err, "review: apply approved measurement")
		}
	}

	item.Status = status
	item.DecidedBy = reviewer
	item.DecidedAt = &decidedAt
	item.Notes = notes
	return item, nil
}

// applyMeasurement persists the measurement an approved item deferred.
func (q *Queue) applyMeasurement(ctx context.Context, item *model.ReviewItem, reviewer string) error {
	if item.Suggested == nil {
		zap.L().Warn("approved review item has no suggested match; nothing to apply",
			zap.String("item_id", item.ID))
		return nil
	}

	value, err := strconv.ParseFloat(item.Row.Value, 64)
	if err != nil {
		return eris.Wrapf(err, "review: parse value %q", item.Row.Value)
	}

	m := model.Measurement{
		AthleteID:      item.Suggested.Entry.ID,
		OrganizationID: item.OrganizationID,
		Metric:         item.Row.Metric,
		Value:          value,
		Unit:           item.Row.Unit,
		Source:         model.SourceReview,
		CreatedBy:      reviewer,
	}
	if m.Unit == "" {
		if def, ok := q.metrics.Lookup(m.Metric); ok {
			m.Unit = def.Unit
		}
	}
	if _, err := q.store.CreateMeasurement(ctx, m); err != nil {
		return err
	}
	return nil
}

// Sweep removes decided items older than maxAgeDays (0 uses the
// configured retention) and returns the count removed.
func (q *Queue) Sweep(ctx context.Context, maxAgeDays int) (int, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = q.retentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)
	n, err := q.store.SweepReviewItems(ctx, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "review: sweep")
	}
	if n > 0 {
		zap.L().Info("review sweep removed decided items",
			zap.Int("removed", n),
			zap.Int("max_age_days", maxAgeDays),
		)
	}
	return n, nil
}
