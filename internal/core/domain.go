package core

import (
	"errors"
	"time"
)

type (
	// Expense is a single ledger record owned by one tenant.
	// ID is unique and increasing within the tenant's store only.
	Expense struct {
		ID   int64
		Date time.Time
		Name string
		Cost float64
	}
)

var (
	ErrStorage       = errors.New("storage unavailable")
	ErrInvalidRange  = errors.New("both range bounds must be given, or neither")
	ErrNotInserted   = errors.New("could not insert")
	ErrInvalidTenant = errors.New("invalid tenant id")
	ErrEmptyName     = errors.New("empty expense name")
	ErrDateRange     = errors.New("date out of range")
)

// Dates are persisted as fixed-width text, which only orders correctly
// for four-digit UTC years.
var (
	MinDate = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxDate = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

// InDateRange reports whether t lies within [MinDate, MaxDate].
func InDateRange(t time.Time) bool {
	return !t.Before(MinDate) && !t.After(MaxDate)
}

// ClampDate pulls t into [MinDate, MaxDate].
func ClampDate(t time.Time) time.Time {
	switch {
	case t.Before(MinDate):
		return MinDate
	case t.After(MaxDate):
		return MaxDate
	}
	return t
}

// Validate performs the light checks adapters run before handing a record to the ledger.
// The ledger itself accepts any cost sign and any name.
func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if !InDateRange(e.Date) {
		return ErrDateRange
	}
	if e.Name == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	return nil
}

// HasBounds reports whether a search range is fully specified.
// It returns ErrInvalidRange when exactly one bound is present.
func HasBounds(from, to *time.Time) (bool, error) {
	switch {
	case from == nil && to == nil:
		return false, nil
	case from != nil && to != nil:
		return true, nil
	default:
		return false, ErrInvalidRange
	}
}
