// Package services provides the ledger operations consumed by every adapter.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/stats"
	"spendlog/internal/storage"
)

type (
	// StoreProvider resolves a tenant to its store.
	StoreProvider interface {
		GetOrCreate(ctx context.Context, tenantID int64) (storage.ExpenseStore, error)
		Close() error
	}

	// EventPublisher receives ledger change notifications.
	EventPublisher interface {
		PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
		Close() error
	}
)

// LedgerService orchestrates tenant stores, the statistics engine and event publishing.
type LedgerService struct {
	stores    StoreProvider
	engine    *stats.Engine
	publisher EventPublisher
	threshold float64
}

// NewLedgerService wires the service. publisher may be nil.
func NewLedgerService(stores StoreProvider, engine *stats.Engine, publisher EventPublisher, threshold float64) *LedgerService {
	if engine == nil {
		engine = stats.NewEngine(0)
	}
	return &LedgerService{
		stores:    stores,
		engine:    engine,
		publisher: publisher,
		threshold: threshold,
	}
}

// Threshold returns the configured statistics filter.
func (s *LedgerService) Threshold() float64 { return s.threshold }

// AddExpense records an expense. It returns core.ErrNotInserted when the
// store reports that nothing was written.
func (s *LedgerService) AddExpense(ctx context.Context, tenantID int64, date time.Time, name string, cost float64) error {
	store, err := s.stores.GetOrCreate(ctx, tenantID)
	if err != nil {
		return err
	}
	ok, err := store.InsertExpense(ctx, date, name, cost)
	if err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	if !ok {
		return core.ErrNotInserted
	}

	s.publish(ctx, amqp.ExpenseCreated, tenantID, core.Expense{Date: date, Name: name, Cost: cost})
	return nil
}

// ListExpenses returns every record when date is nil, otherwise the records
// of date's calendar day.
func (s *LedgerService) ListExpenses(ctx context.Context, tenantID int64, date *time.Time) ([]core.Expense, error) {
	store, err := s.stores.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if date == nil {
		return store.SelectAll(ctx, storage.DefaultLimit)
	}
	from, to := core.DayRange(*date, *date)
	return store.SelectForDateRange(ctx, from, to, storage.DefaultLimit)
}

// ExpensesInRange returns records with from <= date <= to.
func (s *LedgerService) ExpensesInRange(ctx context.Context, tenantID int64, from, to time.Time) ([]core.Expense, error) {
	store, err := s.stores.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return store.SelectForDateRange(ctx, from, to, storage.DefaultLimit)
}

// Statistics summarizes the whole days from..to with the configured threshold.
func (s *LedgerService) Statistics(ctx context.Context, tenantID int64, from, to time.Time) (core.Statistics, []core.Expense, error) {
	return s.StatisticsWithThreshold(ctx, tenantID, from, to, s.threshold)
}

// StatisticsWithThreshold is Statistics with an explicit filter value.
// from is expanded to the start of its day and to to the end of its day.
func (s *LedgerService) StatisticsWithThreshold(ctx context.Context, tenantID int64, from, to time.Time, threshold float64) (core.Statistics, []core.Expense, error) {
	from, to = core.DayRange(from, to)
	records, err := s.ExpensesInRange(ctx, tenantID, from, to)
	if err != nil {
		return core.Statistics{}, nil, err
	}
	st, err := s.engine.Compute(ctx, records, threshold)
	if err != nil {
		return core.Statistics{}, nil, fmt.Errorf("compute statistics: %w", err)
	}
	return st, records, nil
}

// StatisticsForPeriod resolves a named period relative to now and summarizes it.
func (s *LedgerService) StatisticsForPeriod(ctx context.Context, tenantID int64, period Period, now time.Time) (core.Statistics, []core.Expense, error) {
	resolver, err := ResolverFor(period)
	if err != nil {
		return core.Statistics{}, nil, err
	}
	from, to := resolver.Range(now)
	return s.Statistics(ctx, tenantID, from, to)
}

// DeleteLast removes the tenant's most recently inserted record.
// An empty ledger returns (zero, false, nil).
func (s *LedgerService) DeleteLast(ctx context.Context, tenantID int64) (core.Expense, bool, error) {
	store, err := s.stores.GetOrCreate(ctx, tenantID)
	if err != nil {
		return core.Expense{}, false, err
	}
	e, ok, err := store.DeleteMostRecent(ctx)
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("delete last expense: %w", err)
	}
	if ok {
		s.publish(ctx, amqp.ExpenseDeleted, tenantID, e)
	}
	return e, ok, nil
}

// Search matches text in record names, optionally within [from, to].
func (s *LedgerService) Search(ctx context.Context, tenantID int64, text string, from, to *time.Time) ([]core.Expense, error) {
	if _, err := core.HasBounds(from, to); err != nil {
		return nil, err
	}
	store, err := s.stores.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return store.SearchByText(ctx, text, from, to)
}

func (s *LedgerService) publish(ctx context.Context, t amqp.EventType, tenantID int64, e core.Expense) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping ledger event", "type", t)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(t, tenantID, e)); err != nil {
		// the ledger write already succeeded
		fields := applog.NewFields().
			WithComponent(applog.ComponentLedger).
			WithOperation(applog.OpPublish).
			WithTenant(tenantID).
			WithExpense(e.Name, e.Cost).
			WithError(err)
		slog.ErrorContext(ctx, "Failed to publish ledger event", append(fields.ToSlice(), applog.FieldEvent, t)...)
	}
}

// Close releases every tenant store and the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.stores != nil {
		if err := s.stores.Close(); err != nil {
			errs = append(errs, fmt.Errorf("stores: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
