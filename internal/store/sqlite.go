// Package store persists analysis history to SQLite so past runs can be
// listed without re-processing the documents.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// AnalysisRecord is one saved run: the document it came from, which
// endpoint produced it, the headline score, and the full result payload.
type AnalysisRecord struct {
	ID        int64           `db:"id" json:"id"`
	Filename  string          `db:"filename" json:"filename"`
	Kind      string          `db:"kind" json:"kind"`
	Score     int             `db:"score" json:"score"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"-" json:"created_at"`

	CreatedAtRaw string `db:"created_at" json:"-"`
}

const (
	KindAnalysis = "analysis"
	KindCriteria = "criteria"
	KindQueries  = "queries"
)

type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	filename   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	score      INTEGER NOT NULL DEFAULT 0,
	payload    TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at DESC);
`

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAnalysis records one finished run. The payload must already be
// marshaled; score is only meaningful for KindAnalysis and may be 0.
func (s *Store) SaveAnalysis(filename, kind string, score int, payload any) (int64, error) {
	blob, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO analyses (filename, kind, score, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		filename, kind, score, string(blob), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]AnalysisRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var records []AnalysisRecord
	err := s.db.Select(&records,
		`SELECT id, filename, kind, score, payload, created_at FROM analyses ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	for i := range records {
		records[i].CreatedAt, _ = time.Parse(time.RFC3339Nano, records[i].CreatedAtRaw)
	}
	return records, nil
}
