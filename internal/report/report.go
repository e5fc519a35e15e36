// Package report is the SQLite findings store behind the graft CLI. Each
// batch run gets a row in runs; every match and every recorded edit hangs off
// it. The core library never touches this package.
package report

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for run reports.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id              INTEGER PRIMARY KEY,
  root            TEXT NOT NULL,
  language        TEXT NOT NULL,
  applied         BOOLEAN NOT NULL DEFAULT FALSE,
  started_at      TIMESTAMP NOT NULL,
  finished_at     TIMESTAMP
);

CREATE TABLE IF NOT EXISTS findings (
  id              INTEGER PRIMARY KEY,
  run_id          INTEGER NOT NULL REFERENCES runs(id),
  file            TEXT NOT NULL,
  rule            TEXT NOT NULL,
  start_byte      INTEGER NOT NULL,
  end_byte        INTEGER NOT NULL,
  matched         TEXT
);

CREATE TABLE IF NOT EXISTS edits (
  id              INTEGER PRIMARY KEY,
  run_id          INTEGER NOT NULL REFERENCES runs(id),
  file            TEXT NOT NULL,
  start_byte      INTEGER NOT NULL,
  end_byte        INTEGER NOT NULL,
  replacement     TEXT NOT NULL,
  edit_group      TEXT
);

CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_rule ON findings(rule);
CREATE INDEX IF NOT EXISTS idx_edits_run ON edits(run_id);
`

// Run is one batch invocation over a source root.
type Run struct {
	ID       int64
	Root     string
	Language string
	Applied  bool
	Started  time.Time
	Finished time.Time
}

// Finding is one pattern match in one file.
type Finding struct {
	ID        int64
	RunID     int64
	File      string
	Rule      string
	StartByte uint32
	EndByte   uint32
	Matched   string
}

// EditRecord is one recorded source edit.
type EditRecord struct {
	ID          int64
	RunID       int64
	File        string
	StartByte   uint32
	EndByte     uint32
	Replacement string
	Group       string
}

// BeginRun inserts a runs row and returns its ID.
func (s *Store) BeginRun(root, language string, applied bool) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (root, language, applied, started_at) VALUES (?, ?, ?, ?)`,
		root, language, applied, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stamps the run's finished_at.
func (s *Store) FinishRun(runID int64) error {
	if _, err := s.db.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`, time.Now(), runID); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// InsertFinding records one match.
func (s *Store) InsertFinding(f *Finding) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO findings (run_id, file, rule, start_byte, end_byte, matched) VALUES (?, ?, ?, ?, ?, ?)`,
		f.RunID, f.File, f.Rule, f.StartByte, f.EndByte, f.Matched,
	)
	if err != nil {
		return 0, fmt.Errorf("insert finding: %w", err)
	}
	return res.LastInsertId()
}

// InsertEdit records one source edit.
func (s *Store) InsertEdit(e *EditRecord) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO edits (run_id, file, start_byte, end_byte, replacement, edit_group) VALUES (?, ?, ?, ?, ?, ?)`,
		e.RunID, e.File, e.StartByte, e.EndByte, e.Replacement, e.Group,
	)
	if err != nil {
		return 0, fmt.Errorf("insert edit: %w", err)
	}
	return res.LastInsertId()
}

// FindingsByRun returns a run's findings in file, offset order.
func (s *Store) FindingsByRun(runID int64) ([]*Finding, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, file, rule, start_byte, end_byte, matched
		 FROM findings WHERE run_id = ? ORDER BY file, start_byte`, runID)
	if err != nil {
		return nil, fmt.Errorf("findings by run: %w", err)
	}
	defer rows.Close()

	var out []*Finding
	for rows.Next() {
		f := &Finding{}
		if err := rows.Scan(&f.ID, &f.RunID, &f.File, &f.Rule, &f.StartByte, &f.EndByte, &f.Matched); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// EditsByRun returns a run's recorded edits in file, offset order.
func (s *Store) EditsByRun(runID int64) ([]*EditRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, file, start_byte, end_byte, replacement, edit_group
		 FROM edits WHERE run_id = ? ORDER BY file, start_byte`, runID)
	if err != nil {
		return nil, fmt.Errorf("edits by run: %w", err)
	}
	defer rows.Close()

	var out []*EditRecord
	for rows.Next() {
		e := &EditRecord{}
		if err := rows.Scan(&e.ID, &e.RunID, &e.File, &e.StartByte, &e.EndByte, &e.Replacement, &e.Group); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
