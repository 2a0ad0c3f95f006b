package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"spendlog/internal/core"

	_ "modernc.org/sqlite"
)

// DateLayout is the persisted text form of an expense date, always UTC.
const DateLayout = "2006-01-02 15:04:05"

// SQLiteStore is a tenant ledger backed by one SQLite file.
type SQLiteStore struct {
	mu      sync.Mutex
	db      *sql.DB
	queries *Queries
	path    string
	loc     *time.Location
	closed  bool
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and applies
// the schema. Dates read back are converted to loc; nil means time.Local.
func NewSQLiteStore(dbPath string, loc *time.Location) (*SQLiteStore, error) {
	if loc == nil {
		loc = time.Local
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w: %w", core.ErrStorage, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w: %w", core.ErrStorage, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w: %w", core.ErrStorage, err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w: %w", core.ErrStorage, err)
	}

	return &SQLiteStore{
		db:      db,
		queries: New(db),
		path:    dbPath,
		loc:     loc,
	}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) InsertExpense(ctx context.Context, date time.Time, name string, cost float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.queries.InsertEntry(ctx, InsertEntryParams{
		Date: formatDate(date),
		Name: name,
		Cost: cost,
	})
	if err != nil {
		return false, fmt.Errorf("insert expense: %w: %w", core.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert expense: %w: %w", core.ErrStorage, err)
	}
	if n != 1 {
		return false, nil
	}

	id, _ := res.LastInsertId()
	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"name", name,
		"cost", cost,
		"db", filepath.Base(s.path))
	return true, nil
}

func (s *SQLiteStore) SelectAll(ctx context.Context, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.queries.ListEntries(ctx, int64(normalizeLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w: %w", core.ErrStorage, err)
	}
	return s.toExpenses(rows)
}

func (s *SQLiteStore) SelectForDateRange(ctx context.Context, from, to time.Time, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.queries.ListEntriesBetween(ctx, ListEntriesBetweenParams{
		From:  formatDate(from),
		To:    formatDate(to),
		Limit: int64(normalizeLimit(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses for range: %w: %w", core.ErrStorage, err)
	}
	return s.toExpenses(rows)
}

func (s *SQLiteStore) SearchByText(ctx context.Context, text string, from, to *time.Time) ([]core.Expense, error) {
	bounded, err := core.HasBounds(from, to)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []Entry
	if bounded {
		rows, err = s.queries.SearchEntriesBetween(ctx, SearchEntriesBetweenParams{
			Text:  text,
			From:  formatDate(*from),
			To:    formatDate(*to),
			Limit: DefaultLimit,
		})
	} else {
		rows, err = s.queries.SearchEntries(ctx, text, DefaultLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("search expenses: %w: %w", core.ErrStorage, err)
	}
	return s.toExpenses(rows)
}

// DeleteMostRecent reads and deletes the highest-id row in one transaction.
func (s *SQLiteStore) DeleteMostRecent(ctx context.Context) (core.Expense, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("begin delete: %w: %w", core.ErrStorage, err)
	}
	defer tx.Rollback()

	q := s.queries.WithTx(tx)
	row, err := q.GetLatestEntry(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, false, nil
	}
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("read latest expense: %w: %w", core.ErrStorage, err)
	}

	if _, err := q.DeleteEntry(ctx, row.ID); err != nil {
		return core.Expense{}, false, fmt.Errorf("delete expense %d: %w: %w", row.ID, core.ErrStorage, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, false, fmt.Errorf("commit delete: %w: %w", core.ErrStorage, err)
	}

	e, err := s.toExpense(row)
	if err != nil {
		return core.Expense{}, false, err
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", e.ID, "name", e.Name)
	return e, true, nil
}

func (s *SQLiteStore) toExpenses(rows []Entry) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(rows))
	for _, r := range rows {
		e, err := s.toExpense(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *SQLiteStore) toExpense(r Entry) (core.Expense, error) {
	d, err := time.ParseInLocation(DateLayout, r.Date, time.UTC)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date of expense %d: %w: %w", r.ID, core.ErrStorage, err)
	}
	return core.Expense{ID: r.ID, Date: d.In(s.loc), Name: r.Name, Cost: r.Cost}, nil
}

func formatDate(t time.Time) string {
	return core.ClampDate(t.UTC()).Format(DateLayout)
}
