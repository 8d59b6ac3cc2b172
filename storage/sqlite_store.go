package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"jobprofit/internal/timeutil"
	"jobprofit/ledger"
	"jobprofit/reconcile"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var ErrBuildNotFound = errors.New("build not found")

// createdAtLayout has a fixed width so created_at sorts as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Build is one stored pipeline run.
type Build struct {
	RunID        string
	CreatedAt    time.Time
	Source       string
	FactRows     int
	AllocationOK bool
	UniqueKeysOK bool
	Report       *reconcile.Report
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS builds (
	run_id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	source TEXT NOT NULL,
	fact_rows INTEGER NOT NULL CHECK(fact_rows >= 0),
	allocation_ok INTEGER NOT NULL,
	report_json TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS facts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	job_no TEXT NOT NULL,
	task_name TEXT NOT NULL,
	month_key TEXT NOT NULL,
	fy_label TEXT NOT NULL,
	department_reporting TEXT NOT NULL,
	dept_match_status TEXT NOT NULL,
	revenue_allocated TEXT NOT NULL,
	actual_hours REAL NOT NULL,
	total_cost REAL NOT NULL,
	quoted_amount REAL NOT NULL,
	gross_profit REAL NOT NULL,
	payload TEXT NOT NULL,
	UNIQUE(run_id, job_no, task_name, month_key)
);
CREATE INDEX IF NOT EXISTS idx_facts_run ON facts(run_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	// unique_keys_ok was added after the first release of the builds table.
	if err := s.ensureColumn("builds", "unique_keys_ok", "INTEGER NOT NULL DEFAULT 1"); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) ensureColumn(table, column, definition string) error {
	rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s);`, table))
	if err != nil {
		return fmt.Errorf("query table info: %w", err)
	}
	defer rows.Close()

	hasColumn := false
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		if strings.EqualFold(name, column) {
			hasColumn = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table info: %w", err)
	}

	if hasColumn {
		return nil
	}

	if _, err := s.db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s;`, table, column, definition)); err != nil {
		return fmt.Errorf("add %s column: %w", column, err)
	}

	return nil
}

// SaveBuild stores a run with its fact rows in one transaction. A run ID and
// creation time are assigned when missing.
func (s *SQLiteStore) SaveBuild(build Build, facts []ledger.FactRow) (Build, error) {
	if build.Report == nil {
		return Build{}, fmt.Errorf("save build: report is nil")
	}
	if build.RunID == "" {
		build.RunID = uuid.NewString()
	}
	if build.CreatedAt.IsZero() {
		build.CreatedAt = s.now()
	}
	build.CreatedAt = build.CreatedAt.UTC()
	build.FactRows = len(facts)
	build.AllocationOK = build.Report.AllocationOK
	build.UniqueKeysOK = build.Report.UniqueKeysOK

	reportJSON, err := json.Marshal(build.Report)
	if err != nil {
		return Build{}, fmt.Errorf("encode report: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Build{}, fmt.Errorf("begin transaction: %w", err)
	}

	const insertBuild = `
INSERT INTO builds (
	run_id,
	created_at,
	source,
	fact_rows,
	allocation_ok,
	unique_keys_ok,
	report_json
) VALUES (?, ?, ?, ?, ?, ?, ?);`

	if _, err := tx.Exec(
		insertBuild,
		build.RunID,
		build.CreatedAt.Format(createdAtLayout),
		build.Source,
		build.FactRows,
		build.AllocationOK,
		build.UniqueKeysOK,
		string(reportJSON),
	); err != nil {
		_ = tx.Rollback()
		return Build{}, fmt.Errorf("insert build %s: %w", build.RunID, err)
	}

	const insertFact = `
INSERT INTO facts (
	run_id,
	job_no,
	task_name,
	month_key,
	fy_label,
	department_reporting,
	dept_match_status,
	revenue_allocated,
	actual_hours,
	total_cost,
	quoted_amount,
	gross_profit,
	payload
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	stmt, err := tx.Prepare(insertFact)
	if err != nil {
		_ = tx.Rollback()
		return Build{}, fmt.Errorf("prepare fact insert statement: %w", err)
	}
	defer stmt.Close()

	for _, fact := range facts {
		payload, err := json.Marshal(fact)
		if err != nil {
			_ = tx.Rollback()
			return Build{}, fmt.Errorf("encode fact %s/%s: %w", fact.JobNo, fact.TaskName, err)
		}
		if _, err := stmt.Exec(
			build.RunID,
			fact.JobNo,
			fact.TaskName,
			timeutil.MonthKey(fact.Month),
			fact.FYLabel,
			fact.DepartmentReporting,
			string(fact.DeptMatchStatus),
			fact.RevenueAllocated.String(),
			fact.ActualHours,
			fact.TotalCost,
			fact.QuotedAmount,
			fact.GrossProfit,
			string(payload),
		); err != nil {
			_ = tx.Rollback()
			return Build{}, fmt.Errorf("insert fact %s/%s: %w", fact.JobNo, fact.TaskName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Build{}, fmt.Errorf("commit transaction: %w", err)
	}

	return build, nil
}

const selectBuild = `
SELECT
	run_id,
	created_at,
	source,
	fact_rows,
	allocation_ok,
	unique_keys_ok,
	report_json
FROM builds`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (Build, error) {
	var (
		build      Build
		createdRaw string
		reportRaw  string
	)
	if err := row.Scan(
		&build.RunID,
		&createdRaw,
		&build.Source,
		&build.FactRows,
		&build.AllocationOK,
		&build.UniqueKeysOK,
		&reportRaw,
	); err != nil {
		return Build{}, err
	}

	createdAt, err := time.Parse(createdAtLayout, createdRaw)
	if err != nil {
		return Build{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	build.CreatedAt = createdAt

	build.Report = &reconcile.Report{}
	if err := json.Unmarshal([]byte(reportRaw), build.Report); err != nil {
		return Build{}, fmt.Errorf("decode report for build %s: %w", build.RunID, err)
	}
	return build, nil
}

// ListBuilds returns stored runs, newest first.
func (s *SQLiteStore) ListBuilds() ([]Build, error) {
	rows, err := s.db.Query(selectBuild + `
ORDER BY created_at DESC, rowid DESC;`)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := make([]Build, 0, 16)
	for rows.Next() {
		build, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, build)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}

	return builds, nil
}

// GetBuild returns one run by ID.
func (s *SQLiteStore) GetBuild(runID string) (Build, bool, error) {
	if strings.TrimSpace(runID) == "" {
		return Build{}, false, fmt.Errorf("run id is required")
	}

	build, err := scanBuild(s.db.QueryRow(selectBuild+`
WHERE run_id = ?;`, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Build{}, false, nil
		}
		return Build{}, false, fmt.Errorf("query build %s: %w", runID, err)
	}
	return build, true, nil
}

// LatestBuild returns the most recent run.
func (s *SQLiteStore) LatestBuild() (Build, bool, error) {
	build, err := scanBuild(s.db.QueryRow(selectBuild + `
ORDER BY created_at DESC, rowid DESC
LIMIT 1;`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Build{}, false, nil
		}
		return Build{}, false, fmt.Errorf("query latest build: %w", err)
	}
	return build, true, nil
}

// ListFacts returns the fact rows of a run in key order.
func (s *SQLiteStore) ListFacts(runID string) ([]ledger.FactRow, error) {
	const query = `
SELECT payload
FROM facts
WHERE run_id = ?
ORDER BY job_no, task_name, month_key, id;
`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	facts := make([]ledger.FactRow, 0, 256)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		var fact ledger.FactRow
		if err := json.Unmarshal([]byte(payload), &fact); err != nil {
			return nil, fmt.Errorf("decode fact: %w", err)
		}
		facts = append(facts, fact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}

	return facts, nil
}

// DeleteBuild removes a run and its facts.
func (s *SQLiteStore) DeleteBuild(runID string) error {
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM facts WHERE run_id = ?;`, runID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete facts for build %s: %w", runID, err)
	}
	res, err := tx.Exec(`DELETE FROM builds WHERE run_id = ?;`, runID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete build %s: %w", runID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("read deleted row count: %w", err)
	}
	if rowsAffected == 0 {
		_ = tx.Rollback()
		return ErrBuildNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}
	return nil
}

// DeleteAllBuilds empties the store and returns the number of runs removed.
func (s *SQLiteStore) DeleteAllBuilds() (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM facts;`); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete facts: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM builds;`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete builds: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete transaction: %w", err)
	}
	return rows, nil
}
