package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reverse_dcf/pkg/models"
)

// Schema is applied by Migrate. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS securities (
	ticker             TEXT PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	sector             TEXT NOT NULL DEFAULT '',
	price              DOUBLE PRECISION NOT NULL,
	shares_outstanding DOUBLE PRECISION NOT NULL,
	profit             DOUBLE PRECISION NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS scenarios (
	id          TEXT PRIMARY KEY,
	ticker      TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	overrides   JSONB NOT NULL,
	report_json JSONB,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS scenarios_ticker_idx ON scenarios (ticker, created_at DESC);
`

// PGStore implements Store on Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a store over an existing pool
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var _ Store = (*PGStore)(nil)

// Migrate creates the tables if they do not exist.
func (s *PGStore) Migrate(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *PGStore) UpsertSecurity(ctx context.Context, sec models.Security) error {
	sec.Ticker = normalizeTicker(sec.Ticker)
	if sec.Ticker == "" {
		return fmt.Errorf("ticker cannot be empty")
	}
	if sec.UpdatedAt.IsZero() {
		sec.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO securities (ticker, name, sector, price, shares_outstanding, profit, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker)
		DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			price = EXCLUDED.price,
			shares_outstanding = EXCLUDED.shares_outstanding,
			profit = EXCLUDED.profit,
			updated_at = EXCLUDED.updated_at;
	`
	_, err := s.pool.Exec(ctx, query,
		sec.Ticker, sec.Name, sec.Sector, sec.Price, sec.SharesOutstanding, sec.Profit, sec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save security %s: %w", sec.Ticker, err)
	}
	return nil
}

func (s *PGStore) GetSecurity(ctx context.Context, ticker string) (models.Security, error) {
	query := `
		SELECT ticker, name, sector, price, shares_outstanding, profit, updated_at
		FROM securities
		WHERE ticker = $1
	`
	var sec models.Security
	err := s.pool.QueryRow(ctx, query, normalizeTicker(ticker)).Scan(
		&sec.Ticker, &sec.Name, &sec.Sector, &sec.Price, &sec.SharesOutstanding, &sec.Profit, &sec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Security{}, fmt.Errorf("security '%s': %w", ticker, ErrNotFound)
		}
		return models.Security{}, fmt.Errorf("failed to load security %s: %w", ticker, err)
	}
	return sec, nil
}

func (s *PGStore) ListSecurities(ctx context.Context) ([]models.Security, error) {
	query := `
		SELECT ticker, name, sector, price, shares_outstanding, profit, updated_at
		FROM securities
		ORDER BY ticker
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list securities: %w", err)
	}
	defer rows.Close()

	out := make([]models.Security, 0)
	for rows.Next() {
		var sec models.Security
		if err := rows.Scan(&sec.Ticker, &sec.Name, &sec.Sector, &sec.Price, &sec.SharesOutstanding, &sec.Profit, &sec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

func (s *PGStore) SaveScenario(ctx context.Context, sc Scenario) (Scenario, error) {
	sc.Ticker = normalizeTicker(sc.Ticker)
	if sc.Ticker == "" {
		return Scenario{}, fmt.Errorf("ticker cannot be empty")
	}
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now()
	}

	overrides, err := json.Marshal(sc.Overrides)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to marshal overrides: %w", err)
	}
	var report []byte
	if len(sc.Report) > 0 {
		report = sc.Report
	}

	query := `
		INSERT INTO scenarios (id, ticker, name, overrides, report_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			ticker = EXCLUDED.ticker,
			name = EXCLUDED.name,
			overrides = EXCLUDED.overrides,
			report_json = EXCLUDED.report_json;
	`
	if _, err := s.pool.Exec(ctx, query, sc.ID, sc.Ticker, sc.Name, overrides, report, sc.CreatedAt); err != nil {
		return Scenario{}, fmt.Errorf("failed to save scenario: %w", err)
	}
	return sc, nil
}

func (s *PGStore) GetScenario(ctx context.Context, id string) (Scenario, error) {
	query := `
		SELECT id, ticker, name, overrides, report_json, created_at
		FROM scenarios
		WHERE id = $1
	`
	sc, err := scanScenario(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Scenario{}, fmt.Errorf("scenario '%s': %w", id, ErrNotFound)
		}
		return Scenario{}, fmt.Errorf("failed to load scenario %s: %w", id, err)
	}
	return sc, nil
}

func (s *PGStore) ListScenarios(ctx context.Context, ticker string) ([]Scenario, error) {
	query := `
		SELECT id, ticker, name, overrides, report_json, created_at
		FROM scenarios
		WHERE $1 = '' OR ticker = $1
		ORDER BY created_at DESC, id
	`
	rows, err := s.pool.Query(ctx, query, normalizeTicker(ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	out := make([]Scenario, 0)
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *PGStore) DeleteScenario(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scenario '%s': %w", id, ErrNotFound)
	}
	return nil
}

func scanScenario(row pgx.Row) (Scenario, error) {
	var sc Scenario
	var overrides, report []byte
	if err := row.Scan(&sc.ID, &sc.Ticker, &sc.Name, &overrides, &report, &sc.CreatedAt); err != nil {
		return Scenario{}, err
	}
	if err := json.Unmarshal(overrides, &sc.Overrides); err != nil {
		return Scenario{}, fmt.Errorf("failed to unmarshal overrides: %w", err)
	}
	if len(report) > 0 {
		sc.Report = json.RawMessage(report)
	}
	return sc, nil
}
