package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/apexperf/roster-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS roster_entries (
	id              TEXT PRIMARY KEY,
	first_name      TEXT NOT NULL,
	last_name       TEXT NOT NULL,
	team_name       TEXT NOT NULL DEFAULT '',
	team_id         TEXT NOT NULL DEFAULT '',
	organization_id TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS measurements (
	id              TEXT PRIMARY KEY,
	athlete_id      TEXT NOT NULL REFERENCES roster_entries(id),
	organization_id TEXT NOT NULL,
	metric          TEXT NOT NULL,
	value           REAL NOT NULL,
	unit            TEXT NOT NULL,
	measured_at     DATETIME,
	source          TEXT NOT NULL,
	created_by      TEXT NOT NULL,
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS review_items (
	id              TEXT PRIMARY KEY,
	item_type       TEXT NOT NULL,
	organization_id TEXT NOT NULL,
	payload         TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending',
	created_at      DATETIME NOT NULL,
	decided_by      TEXT NOT NULL DEFAULT '',
	decided_at      DATETIME,
	notes           TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_roster_org ON roster_entries(organization_id);
CREATE INDEX IF NOT EXISTS idx_roster_team ON roster_entries(team_name);
CREATE INDEX IF NOT EXISTS idx_measurements_athlete ON measurements(athlete_id);
CREATE INDEX IF NOT EXISTS idx_review_status ON review_items(status, organization_id);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) CreateRosterEntry(ctx context.Context, entry model.RosterEntry) (*model.RosterEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO roster_entries (id, first_name, last_name, team_name, team_id, organization_id) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.FirstName, entry.LastName, entry.TeamName, entry.TeamID, entry.OrganizationID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert roster entry")
	}
	return &entry, nil
}

func (s *SQLiteStore) SearchRoster(ctx context.Context, nameQuery, organizationID string) ([]model.RosterEntry, error) {
	// First-letter prefix keeps the net wide enough for edit-distance
	// matching; the engine discards the chaff.
	query := `SELECT id, first_name, last_name, team_name, team_id, organization_id
		FROM roster_entries WHERE organization_id = ? ORDER BY created_at, id`
	args := []any{organizationID}
	if q := strings.TrimSpace(nameQuery); q != "" {
		prefix := strings.ToLower(q[:1]) + "%"
		query = `SELECT id, first_name, last_name, team_name, team_id, organization_id
			FROM roster_entries
			WHERE organization_id = ? AND (lower(last_name) LIKE ? OR lower(first_name) LIKE ?)
			ORDER BY created_at, id`
		args = append(args, prefix, prefix)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search roster")
	}
	defer rows.Close()

	var out []model.RosterEntry
	for rows.Next() {
		var e model.RosterEntry
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.TeamName, &e.TeamID, &e.OrganizationID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan roster entry")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: roster rows")
	}
	return out, nil
}

func (s *SQLiteStore) LookupTeamOrganization(ctx context.Context, teamName string) (string, error) {
	var orgID string
	err := s.db.QueryRowContext(ctx,
		`SELECT organization_id FROM roster_entries WHERE lower(team_name) = lower(?) LIMIT 1`,
		teamName,
	).Scan(&orgID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrap(err, "sqlite: lookup team organization")
	}
	return orgID, nil
}

func (s *SQLiteStore) CreateMeasurement(ctx context.Context, m model.Measurement) (*model.Measurement, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO measurements (id, athlete_id, organization_id, metric, value, unit, measured_at, source, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.AthleteID, m.OrganizationID, m.Metric, m.Value, m.Unit, m.MeasuredAt, m.Source, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert measurement")
	}
	return &m, nil
}

// reviewPayload is the JSON-serialized portion of a review item.
type reviewPayload struct {
	Row          model.RowInput         `json:"row"`
	Criteria     model.MatchingCriteria `json:"criteria"`
	Suggested    *model.MatchCandidate  `json:"suggested,omitempty"`
	Alternatives []model.MatchCandidate `json:"alternatives,omitempty"`
}

func (s *SQLiteStore) InsertReviewItem(ctx context.Context, item model.ReviewItem) error {
	payload, err := json.Marshal(reviewPayload{
		Row:          item.Row,
		Criteria:     item.Criteria,
		Suggested:    item.Suggested,
		Alternatives: item.Alternatives,
	})
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal review payload")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO review_items (id, item_type, organization_id, payload, status, created_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Type, item.OrganizationID, string(payload), item.Status, item.CreatedAt, item.Notes,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert review item")
	}
	return nil
}

func (s *SQLiteStore) GetReviewItem(ctx context.Context, id string) (*model.ReviewItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, item_type, organization_id, payload, status, created_at, decided_by, decided_at, notes
		FROM review_items WHERE id = ?`, id)
	item, err := scanReviewItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get review item")
	}
	return item, nil
}

func (s *SQLiteStore) ListPendingReviewItems(ctx context.Context, organizationID string) ([]model.ReviewItem, error) {
	query := `SELECT id, item_type, organization_id, payload, status, created_at, decided_by, decided_at, notes
		FROM review_items WHERE status = 'pending'`
	args := []any{}
	if organizationID != "" {
		query += ` AND organization_id = ?`
		args = append(args, organizationID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pending review items")
	}
	defer rows.Close()

	var out []model.ReviewItem
	for rows.Next() {
		item, err := scanReviewItem(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan review item")
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: review rows")
	}
	return out, nil
}

func (s *SQLiteStore) CountReviewItems(ctx context.Context, organizationID string) (int, int, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) FROM review_items`
	args := []any{}
	if organizationID != "" {
		query += ` WHERE organization_id = ?`
		args = append(args, organizationID)
	}
	var total, pending int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total, &pending); err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: count review items")
	}
	return total, pending, nil
}

func (s *SQLiteStore) DecideReviewItem(ctx context.Context, id string, status model.ReviewStatus, reviewer string, decidedAt time.Time, notes string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE review_items SET status = ?, decided_by = ?, decided_at = ?, notes = ?
		WHERE id = ? AND status = 'pending'`,
		status, reviewer, decidedAt, notes, id,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: decide review item")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: decide rows affected")
	}
	if n == 0 {
		// Distinguish a missing item from one that already left Pending.
		var existing string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM review_items WHERE id = ?`, id).Scan(&existing)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return eris.Wrap(err, "sqlite: decide status check")
		}
		return ErrAlreadyDecided
	}
	return nil
}

func (s *SQLiteStore) SweepReviewItems(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM review_items WHERE status != 'pending' AND created_at < ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: sweep review items")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: sweep rows affected")
	}
	return int(n), nil
}

// scanReviewItem hydrates one review item from a row scanner.
func scanReviewItem(scan func(dest ...any) error) (*model.ReviewItem, error) {
	var item model.ReviewItem
	var payload string
	var decidedAt sql.NullTime
	if err := scan(&item.ID, &item.Type, &item.OrganizationID, &payload, &item.Status,
		&item.CreatedAt, &item.DecidedBy, &decidedAt, &item.Notes); err != nil {
		return nil, err
	}
	var p reviewPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal review payload")
	}
	item.Row = p.Row
	item.Criteria = p.Criteria
	item.Suggested = p.Suggested
	item.Alternatives = p.Alternatives
	if decidedAt.Valid {
		t := decidedAt.Time
		item.DecidedAt = &t
	}
	return &item, nil
}
