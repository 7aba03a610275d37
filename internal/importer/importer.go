// Package importer drives batches of measurement rows through validation
// and athlete matching, auto-applying confident matches and deferring
// ambiguous ones to the review queue. A single bad row never aborts the
// batch.
package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/apexperf/roster-cli/internal/matcher"
	"github.com/apexperf/roster-cli/internal/model"
	"github.com/apexperf/roster-cli/internal/review"
	"github.com/apexperf/roster-cli/internal/store"
)

// comfortableConfidence is the band below which an auto-applied match
// still gets a non-fatal warning for audit visibility.
const comfortableConfidence = 90

// Store is the narrow persistence surface the importer needs; a
// store.Store satisfies it.
type Store interface {
	SearchRoster(ctx context.Context, nameQuery, organizationID string) ([]model.RosterEntry, error)
	LookupTeamOrganization(ctx context.Context, teamName string) (string, error)
	CreateMeasurement(ctx context.Context, m model.Measurement) (*model.Measurement, error)
}

// Context identifies who is importing and which organization owns rows
// whose team cannot be resolved.
type Context struct {
	ActingUserID          string
	DefaultOrganizationID string
	Source                model.MeasurementSource
}

// Importer orchestrates one import batch.
type Importer struct {
	store       Store
	engine      *matcher.Engine
	queue       *review.Queue
	metrics     model.MetricRegistry
	dateFormats []string
}

// New creates an Importer.
func New(st Store, engine *matcher.Engine, queue *review.Queue, metrics model.MetricRegistry, dateFormats []string) *Importer {
	if len(dateFormats) == 0 {
		dateFormats = []string{"1/2/2006", "2006-01-02", "1-2-2006"}
	}
	return &Importer{store: st, engine: engine, queue: queue, metrics: metrics, dateFormats: dateFormats}
}

// ImportRows processes rows sequentially, accumulating per-row outcomes,
// errors, and warnings into one result. The summary is derived from the
// lists after the loop; no partial result is visible mid-batch.
func (im *Importer) ImportRows(ctx context.Context, rows []model.RowInput, ic Context) (*model.ImportBatchResult, error) {
	if ic.ActingUserID == "" {
		return nil, eris.New("importer: acting user id is required")
	}
	if ic.Source == "" {
		ic.Source = model.SourceSpreadsheet
	}

	result := &model.ImportBatchResult{}
	log := zap.L().With(zap.String("acting_user", ic.ActingUserID), zap.Int("rows", len(rows)))
	log.Info("import batch starting")

	for _, row := range rows {
		im.processRow(ctx, row, ic, result)
	}

	summary := result.Summary()
	log.Info("import batch complete",
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
		zap.Int("pending_review", summary.PendingReview),
		zap.Int("warnings", summary.Warnings),
	)
	return result, nil
}

func (im *Importer) processRow(ctx context.Context, row model.RowInput, ic Context, result *model.ImportBatchResult) {
	if msg := missingFields(row); msg != "" {
		result.Errors = append(result.Errors, model.RowError{Row: row.Row, Message: msg})
		return
	}

	orgID, err := im.resolveOrganization(ctx, row, ic)
	if err != nil {
		result.Errors = append(result.Errors, model.RowError{Row: row.Row, Message: err.Error()})
		return
	}

	roster, err := im.store.SearchRoster(ctx, row.LastName, orgID)
	if err != nil {
		result.Errors = append(result.Errors, model.RowError{
			Row:     row.Row,
			Message: "roster lookup failed: " + err.Error(),
		})
		return
	}

	criteria := model.MatchingCriteria{
		FirstName: row.FirstName,
		LastName:  row.LastName,
		TeamName:  row.TeamName,
	}
	match := im.engine.Match(criteria, roster)

	switch {
	case match.Kind == model.MatchNone:
		result.Errors = append(result.Errors, model.RowError{
			Row:     row.Row,
			Message: noMatchMessage(criteria, match.Alternatives),
		})

	case match.RequiresManualReview:
		item, err := im.queue.Add(ctx, model.ReviewItem{
			Type:           model.ReviewItemMeasurement,
			OrganizationID: orgID,
			Row:            row,
			Criteria:       criteria,
			Suggested:      match.Candidate,
			Alternatives:   match.Alternatives,
		})
		if err != nil {
			result.Errors = append(result.Errors, model.RowError{
				Row:     row.Row,
				Message: "failed to queue for review: " + err.Error(),
			})
			return
		}
		result.Outcomes = append(result.Outcomes, model.ImportOutcome{
			Row:          row.Row,
			Action:       model.ImportPendingReview,
			ReviewItemID: item.ID,
			Confidence:   match.Confidence,
		})

	default:
		im.applyRow(ctx, row, orgID, match, ic, result)
	}
}

// applyRow validates the metric and persists the measurement for a
// confident match.
func (im *Importer) applyRow(ctx context.Context, row model.RowInput, orgID string, match model.MatchResult, ic Context, result *model.ImportBatchResult) {
	def, ok := im.metrics.Lookup(row.Metric)
	if !ok {
		result.Errors = append(result.Errors, model.RowError{
			Row:     row.Row,
			Message: fmt.Sprintf("unknown metric %q", row.Metric),
		})
		return
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(row.Value), 64)
	if err != nil {
		result.Errors = append(result.Errors, model.RowError{
			Row:     row.Row,
			Message: fmt.Sprintf("value %q is not numeric", row.Value),
		})
		return
	}

	unit := row.Unit
	if unit == "" {
		unit = def.Unit
	}

	m := model.Measurement{
		AthleteID:      match.Candidate.Entry.ID,
		OrganizationID: orgID,
		Metric:         def.Code,
		Value:          value,
		Unit:           unit,
		MeasuredAt:     im.parseDate(row.Date),
		Source:         ic.Source,
		CreatedBy:      ic.ActingUserID,
	}
	created, err := im.store.CreateMeasurement(ctx, m)
	if err != nil {
		result.Errors = append(result.Errors, model.RowError{
			Row:     row.Row,
			Message: "failed to save measurement: " + err.Error(),
		})
		return
	}

	result.Outcomes = append(result.Outcomes, model.ImportOutcome{
		Row:           row.Row,
		Action:        model.ImportCreated,
		AthleteID:     created.AthleteID,
		MeasurementID: created.ID,
		Confidence:    match.Confidence,
	})

	if match.Confidence < comfortableConfidence {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"row %d: applied with %d%% confidence (%s)",
			row.Row, match.Confidence, match.Candidate.Reason,
		))
	}
}

// resolveOrganization bounds the roster to one tenant: team lookup
// first, then the caller's own organization.
func (im *Importer) resolveOrganization(ctx context.Context, row model.RowInput, ic Context) (string, error) {
	if row.TeamName != "" {
		orgID, err := im.store.LookupTeamOrganization(ctx, row.TeamName)
		if err == nil {
			return orgID, nil
		}
		if !eris.Is(err, store.ErrNotFound) {
			return "", eris.Wrap(err, "organization lookup failed")
		}
	}
	if ic.DefaultOrganizationID == "" {
		return "", eris.Errorf("cannot resolve organization for team %q and no default organization is set", row.TeamName)
	}
	return ic.DefaultOrganizationID, nil
}

func (im *Importer) parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range im.dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func missingFields(row model.RowInput) string {
	var missing []string
	if strings.TrimSpace(row.FirstName) == "" {
		missing = append(missing, "first name")
	}
	if strings.TrimSpace(row.LastName) == "" {
		missing = append(missing, "last name")
	}
	if strings.TrimSpace(row.Metric) == "" {
		missing = append(missing, "metric")
	}
	if strings.TrimSpace(row.Value) == "" {
		missing = append(missing, "value")
	}
	if len(missing) == 0 {
		return ""
	}
	return "missing required fields: " + strings.Join(missing, ", ")
}

func noMatchMessage(criteria model.MatchingCriteria, alternatives []model.MatchCandidate) string {
	msg := fmt.Sprintf("no matching athlete found for %q", criteria.FullName())
	if criteria.TeamName != "" {
		msg += fmt.Sprintf(" (team %q)", criteria.TeamName)
	}
	if len(alternatives) > 0 {
		var names []string
		for i, alt := range alternatives {
			if i >= 2 {
				break
			}
			names = append(names, fmt.Sprintf("%s (%d%%)", alt.Entry.FullName(), alt.Confidence))
		}
		msg += "; did you mean: " + strings.Join(names, ", ")
	}
	return msg
}
