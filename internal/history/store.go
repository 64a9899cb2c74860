// Package history keeps finished evaluation reports in a local SQLite
// database so they can be listed and shown again later.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spigell/candidate-evaluator/internal/evaluation"
)

// ErrNotFound is returned by Get for an unknown record id.
var ErrNotFound = errors.New("evaluation record not found")

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Record is one stored evaluation.
type Record struct {
	ID            string
	CreatedAt     time.Time
	CandidateName string
	JobTitle      string
	OverallScore  float64
	FitScore      int
	Report        *evaluation.Report
}

// NewRecord wraps a finished report for storage.
func NewRecord(candidateName, jobTitle string, report *evaluation.Report) Record {
	r := Record{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		CandidateName: candidateName,
		JobTitle:      jobTitle,
		Report:        report,
	}
	if report != nil {
		r.OverallScore = report.OverallScore
		if report.Fit != nil {
			r.FitScore = report.Fit.Score
		}
	}
	return r
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			candidate_name TEXT NOT NULL,
			job_title TEXT,
			overall_score REAL NOT NULL,
			fit_score INTEGER NOT NULL,
			report TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores r. Saving a record with an existing id fails.
func (s *Store) Save(ctx context.Context, r Record) error {
	if r.ID == "" {
		return errors.New("record id is required")
	}
	if r.Report == nil {
		return errors.New("record has no report")
	}

	report, err := json.Marshal(r.Report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, created_at, candidate_name, job_title, overall_score, fit_score, report)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(timeLayout), r.CandidateName, r.JobTitle, r.OverallScore, r.FitScore, string(report),
	)
	if err != nil {
		return fmt.Errorf("inserting record %s: %w", r.ID, err)
	}
	return nil
}

// List returns the newest records first without their reports.
// A non-positive limit returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, created_at, candidate_name, job_title, overall_score, fit_score
		FROM evaluations ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r         Record
			createdAt string
			jobTitle  sql.NullString
		)
		if err := rows.Scan(&r.ID, &createdAt, &r.CandidateName, &jobTitle, &r.OverallScore, &r.FitScore); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", r.ID, err)
		}
		r.JobTitle = jobTitle.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// Get returns a single record with its report.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var (
		r         Record
		createdAt string
		jobTitle  sql.NullString
		report    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, candidate_name, job_title, overall_score, fit_score, report
		FROM evaluations WHERE id = ?`, id,
	).Scan(&r.ID, &createdAt, &r.CandidateName, &jobTitle, &r.OverallScore, &r.FitScore, &report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading record %s: %w", id, err)
	}

	if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at of %s: %w", id, err)
	}
	r.JobTitle = jobTitle.String

	r.Report = &evaluation.Report{}
	if err := json.Unmarshal([]byte(report), r.Report); err != nil {
		return nil, fmt.Errorf("decoding report of %s: %w", id, err)
	}

	return &r, nil
}
