package storage

import (
	"context"
	"time"

	"spendlog/internal/core"
)

// DefaultLimit caps every list, range and search query.
const DefaultLimit = 1000

// ExpenseStore is one tenant's ledger. Implementations serialize all
// operations on the same store.
type ExpenseStore interface {
	// InsertExpense returns false, without error, when the write did not
	// affect exactly one row.
	InsertExpense(ctx context.Context, date time.Time, name string, cost float64) (bool, error)

	// SelectAll returns records in storage order. limit <= 0 means DefaultLimit.
	SelectAll(ctx context.Context, limit int) ([]core.Expense, error)

	// SelectForDateRange returns records with from <= date <= to.
	SelectForDateRange(ctx context.Context, from, to time.Time, limit int) ([]core.Expense, error)

	// SearchByText matches text as a case-sensitive substring of the name.
	// Both bounds or neither; exactly one yields core.ErrInvalidRange.
	SearchByText(ctx context.Context, text string, from, to *time.Time) ([]core.Expense, error)

	// DeleteMostRecent removes the record with the highest id.
	// An empty store returns (zero, false, nil).
	DeleteMostRecent(ctx context.Context) (core.Expense, bool, error)

	Close() error
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultLimit {
		return DefaultLimit
	}
	return limit
}
