package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/civita/urbanaccess/internal/kpi"
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
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	city       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	started_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS zone_kpis (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	zone_id   TEXT NOT NULL,
	service   TEXT NOT NULL,
	age_group TEXT NOT NULL,
	defined   INTEGER NOT NULL,
	value     REAL NOT NULL,
	PRIMARY KEY (run_id, zone_id, service, age_group)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_city ON runs(city);
CREATE INDEX IF NOT EXISTS idx_zone_kpis_run_id ON zone_kpis(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, city string) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, city, status, started_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, city, string(RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{
		ID:        id,
		City:      city,
		Status:    RunStatusRunning,
		StartedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause error) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(RunStatusFailed), cause.Error(), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, city, status, error, started_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, city, status, error, started_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveZoneKPIs(ctx context.Context, runID string, zk kpi.ZoneKPI) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save kpis")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM zone_kpis WHERE run_id = ?`, runID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: clear kpis for run %s", runID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO zone_kpis (run_id, zone_id, service, age_group, defined, value)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare kpi insert")
	}
	defer stmt.Close()

	for _, row := range kpiRows(runID, zk) {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: insert kpi for run %s", runID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save kpis")
}

func (s *SQLiteStore) GetZoneKPIs(ctx context.Context, runID string) (kpi.ZoneKPI, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT zone_id, service, age_group, defined, value FROM zone_kpis WHERE run_id = ?`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get kpis for run %s", runID)
	}
	defer rows.Close()

	zk := make(kpi.ZoneKPI)
	for rows.Next() {
		var zoneID, service, ageGroup string
		var defined bool
		var value float64
		if err := rows.Scan(&zoneID, &service, &ageGroup, &defined, &value); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan zone kpi")
		}
		if err := kpiFromRow(zk, zoneID, service, ageGroup, defined, value); err != nil {
			return nil, err
		}
	}
	return zk, eris.Wrap(rows.Err(), "sqlite: get kpis iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var errMsg sql.NullString

	err := row.Scan(&r.ID, &r.City, &r.Status, &errMsg, &r.StartedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	r.Error = errMsg.String
	return &r, nil
}
