package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/apexperf/roster-cli/internal/model"
)

// Pool is the minimal pgx pool surface the store uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS roster_entries (
	id              TEXT PRIMARY KEY,
	first_name      TEXT NOT NULL,
	last_name       TEXT NOT NULL,
	team_name       TEXT NOT NULL DEFAULT '',
	team_id         TEXT NOT NULL DEFAULT '',
	organization_id TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS measurements (
	id              TEXT PRIMARY KEY,
	athlete_id      TEXT NOT NULL REFERENCES roster_entries(id),
	organization_id TEXT NOT NULL,
	metric          TEXT NOT NULL,
	value           DOUBLE PRECISION NOT NULL,
	unit            TEXT NOT NULL,
	measured_at     TIMESTAMPTZ,
	source          TEXT NOT NULL,
	created_by      TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS review_items (
	id              TEXT PRIMARY KEY,
	item_type       TEXT NOT NULL,
	organization_id TEXT NOT NULL,
	payload         JSONB NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending',
	created_at      TIMESTAMPTZ NOT NULL,
	decided_by      TEXT NOT NULL DEFAULT '',
	decided_at      TIMESTAMPTZ,
	notes           TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_roster_org ON roster_entries(organization_id);
CREATE INDEX IF NOT EXISTS idx_roster_team ON roster_entries(team_name);
CREATE INDEX IF NOT EXISTS idx_measurements_athlete ON measurements(athlete_id);
CREATE INDEX IF NOT EXISTS idx_review_status ON review_items(status, organization_id);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRosterEntry(ctx context.Context, entry model.RosterEntry) (*model.RosterEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO roster_entries (id, first_name, last_name, team_name, team_id, organization_id) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.FirstName, entry.LastName, entry.TeamName, entry.TeamID, entry.OrganizationID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert roster entry")
	}
	return &entry, nil
}

func (s *PostgresStore) SearchRoster(ctx context.Context, nameQuery, organizationID string) ([]model.RosterEntry, error) {
	query := `SELECT id, first_name, last_name, team_name, team_id, organization_id
		FROM roster_entries WHERE organization_id = $1 ORDER BY created_at, id`
	args := []any{organizationID}
	if q := strings.TrimSpace(nameQuery); q != "" {
		prefix := strings.ToLower(q[:1]) + "%"
		query = `SELECT id, first_name, last_name, team_name, team_id, organization_id
			FROM roster_entries
			WHERE organization_id = $1 AND (last_name ILIKE $2 OR first_name ILIKE $2)
			ORDER BY created_at, id`
		args = append(args, prefix)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search roster")
	}
	defer rows.Close()

	var out []model.RosterEntry
	for rows.Next() {
		var e model.RosterEntry
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.TeamName, &e.TeamID, &e.OrganizationID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan roster entry")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: roster rows")
	}
	return out, nil
}

func (s *PostgresStore) LookupTeamOrganization(ctx context.Context, teamName string) (string, error) {
	var orgID string
	err := s.pool.QueryRow(ctx,
		`SELECT organization_id FROM roster_entries WHERE lower(team_name) = lower($1) LIMIT 1`,
		teamName,
	).Scan(&orgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrap(err, "postgres: lookup team organization")
	}
	return orgID, nil
}

func (s *PostgresStore) CreateMeasurement(ctx context.Context, m model.Measurement) (*model.Measurement, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO measurements (id, athlete_id, organization_id, metric, value, unit, measured_at, source, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.AthleteID, m.OrganizationID, m.Metric, m.Value, m.Unit, m.MeasuredAt, m.Source, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert measurement")
	}
	return &m, nil
}

func (s *PostgresStore) InsertReviewItem(ctx context.Context, item model.ReviewItem) error {
	payload, err := json.Marshal(reviewPayload{
		Row:          item.Row,
		Criteria:     item.Criteria,
		Suggested:    item.Suggested,
		Alternatives: item.Alternatives,
	})
	if err != nil {
		return eris.Wrap(err, "postgres: marshal review payload")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO review_items (id, item_type, organization_id, payload, status, created_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.ID, item.Type, item.OrganizationID, payload, item.Status, item.CreatedAt, item.Notes,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert review item")
	}
	return nil
}

func (s *PostgresStore) GetReviewItem(ctx context.Context, id string) (*model.ReviewItem, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, item_type, organization_id, payload, status, created_at, decided_by, decided_at, notes
		FROM review_items WHERE id = $1`, id)
	item, err := scanPgReviewItem(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get review item")
	}
	return item, nil
}

func (s *PostgresStore) ListPendingReviewItems(ctx context.Context, organizationID string) ([]model.ReviewItem, error) {
	query := `SELECT id, item_type, organization_id, payload, status, created_at, decided_by, decided_at, notes
		FROM review_items WHERE status = 'pending'`
	args := []any{}
	if organizationID != "" {
		query += ` AND organization_id = $1`
		args = append(args, organizationID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pending review items")
	}
	defer rows.Close()

	var out []model.ReviewItem
	for rows.Next() {
		item, err := scanPgReviewItem(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan review item")
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: review rows")
	}
	return out, nil
}

func (s *PostgresStore) CountReviewItems(ctx context.Context, organizationID string) (int, int, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) FROM review_items`
	args := []any{}
	if organizationID != "" {
		query += ` WHERE organization_id = $1`
		args = append(args, organizationID)
	}
	var total, pending int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total, &pending); err != nil {
		return 0, 0, eris.Wrap(err, "postgres: count review items")
	}
	return total, pending, nil
}

func (s *PostgresStore) DecideReviewItem(ctx context.Context, id string, status model.ReviewStatus, reviewer string, decidedAt time.Time, notes string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE review_items SET status = $1, decided_by = $2, decided_at = $3, notes = $4
		WHERE id = $5 AND status = 'pending'`,
		status, reviewer, decidedAt, notes, id,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: decide review item")
	}
	if tag.RowsAffected() == 0 {
		var existing string
		err := s.pool.QueryRow(ctx, `SELECT status FROM review_items WHERE id = $1`, id).Scan(&existing)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return eris.Wrap(err, "postgres: decide status check")
		}
		return ErrAlreadyDecided
	}
	return nil
}

func (s *PostgresStore) SweepReviewItems(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM review_items WHERE status != 'pending' AND created_at < $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: sweep review items")
	}
	return int(tag.RowsAffected()), nil
}

// scanPgReviewItem hydrates one review item from a pgx row scanner.
func scanPgReviewItem(scan func(dest ...any) error) (*model.ReviewItem, error) {
	var item model.ReviewItem
	var payload []byte
	var decidedAt *time.Time
	if err := scan(&item.ID, &item.Type, &item.OrganizationID, &payload, &item.Status,
		&item.CreatedAt, &item.DecidedBy, &decidedAt, &item.Notes); err != nil {
		return nil, err
	}
	var p reviewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal review payload")
	}
	item.Row = p.Row
	item.Criteria = p.Criteria
	item.Suggested = p.Suggested
	item.Alternatives = p.Alternatives
	item.DecidedAt = decidedAt
	return &item, nil
}
