// Package ledger stores and loads the usage records the financial views are
// computed from.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/pario-ai/ledgerfin/pkg/models"
)

// Store reads and writes usage records.
type Store interface {
	// Insert validates and stores records in one transaction.
	Insert(ctx context.Context, recs []models.UsageRecord) error
	// Records returns records matching f ordered by date, then insertion.
	Records(ctx context.Context, f Filter) ([]models.UsageRecord, error)
	// Stats summarizes what the ledger holds.
	Stats(ctx context.Context) (Stats, error)
	// Clear removes every record.
	Clear(ctx context.Context) error
	// Close releases resources.
	Close() error
}

// Filter narrows Records. Zero fields match everything; Since and Until are
// inclusive ISO dates.
type Filter struct {
	Since      string
	Until      string
	Department models.Department
	Vendor     models.Vendor
	Customer   string
}

// Validate rejects malformed dates and unknown enum values.
func (f Filter) Validate() error {
	for _, d := range [...]struct{ field, value string }{{"since", f.Since}, {"until", f.Until}} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, d.value); err != nil {
			return models.InvalidInput(d.field, d.value, "expected YYYY-MM-DD")
		}
	}
	if f.Since != "" && f.Until != "" && f.Since > f.Until {
		return models.InvalidInput("since", f.Since, "after until "+f.Until)
	}
	if f.Department != "" && !f.Department.Valid() {
		return models.InvalidInput("department", f.Department, "unknown department")
	}
	if f.Vendor != "" && !f.Vendor.Valid() {
		return models.InvalidInput("vendor", f.Vendor, "unknown vendor")
	}
	return nil
}

// Stats summarizes the ledger contents.
type Stats struct {
	Records   int     `json:"records"`
	FirstDate string  `json:"first_date"`
	LastDate  string  `json:"last_date"`
	TotalCost float64 `json:"total_cost"`
}

// SQLiteStore implements Store with a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *logrus.Logger
}

const createTable = `
CREATE TABLE IF NOT EXISTS usage_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	department TEXT NOT NULL,
	project TEXT NOT NULL,
	customer TEXT NOT NULL DEFAULT '',
	vendor TEXT NOT NULL,
	gpu_class TEXT NOT NULL,
	ncc REAL NOT NULL,
	cost REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_date ON usage_records(date);
CREATE INDEX IF NOT EXISTS idx_usage_vendor_date ON usage_records(vendor, date);
`

// Open creates a SQLiteStore and runs auto-migration.
func Open(dbPath string, log *logrus.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger db: %w", err)
	}

	log.WithField("db_path", dbPath).Debug("ledger opened")
	return &SQLiteStore{db: db, log: log}, nil
}

// Insert validates and stores records in one transaction.
func (s *SQLiteStore) Insert(ctx context.Context, recs []models.UsageRecord) error {
	if err := models.ValidateRecords(recs); err != nil {
		return fmt.Errorf("insert usage: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO usage_records (date, department, project, customer, vendor, gpu_class, ncc, cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx,
			r.Date, string(r.Department), r.Project, r.Customer, string(r.Vendor), r.GPUClass, r.Units, r.Cost,
		); err != nil {
			return fmt.Errorf("insert usage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	s.log.WithField("records", len(recs)).Info("usage records inserted")
	return nil
}

// Records returns records matching f ordered by date, then insertion.
func (s *SQLiteStore) Records(ctx context.Context, f Filter) ([]models.UsageRecord, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	query := `SELECT date, department, project, customer, vendor, gpu_class, ncc, cost FROM usage_records`
	var where []string
	var args []any
	if f.Since != "" {
		where = append(where, "date >= ?")
		args = append(args, f.Since)
	}
	if f.Until != "" {
		where = append(where, "date <= ?")
		args = append(args, f.Until)
	}
	if f.Department != "" {
		where = append(where, "department = ?")
		args = append(args, string(f.Department))
	}
	if f.Vendor != "" {
		where = append(where, "vendor = ?")
		args = append(args, string(f.Vendor))
	}
	if f.Customer != "" {
		where = append(where, "customer = ?")
		args = append(args, f.Customer)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var recs []models.UsageRecord
	for rows.Next() {
		var r models.UsageRecord
		var dept, vendor string
		if err := rows.Scan(&r.Date, &dept, &r.Project, &r.Customer, &vendor, &r.GPUClass, &r.Units, &r.Cost); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		r.Department = models.Department(dept)
		r.Vendor = models.Vendor(vendor)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	s.log.WithFields(logrus.Fields{"records": len(recs), "since": f.Since, "until": f.Until}).Debug("usage records loaded")
	return recs, nil
}

// Stats summarizes the ledger contents.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var first, last sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(date), MAX(date), COALESCE(SUM(cost), 0) FROM usage_records`,
	).Scan(&st.Records, &first, &last, &st.TotalCost)
	if err != nil {
		return Stats{}, fmt.Errorf("ledger stats: %w", err)
	}
	st.FirstDate = first.String
	st.LastDate = last.String
	return st, nil
}

// Clear removes every record.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM usage_records`); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	s.log.Info("ledger cleared")
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
