// Package registry maps tenant ids to their open expense stores.
//
// A store is opened the first time its tenant is seen and reused afterwards.
// Concurrent first requests for the same tenant share one open call; a failed
// open is not cached, so the next request retries.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"spendlog/internal/storage"
)

// Opener creates the store for one tenant.
type Opener func(ctx context.Context, tenantID int64) (storage.ExpenseStore, error)

var ErrClosed = errors.New("registry closed")

type Registry struct {
	open   Opener
	logger *slog.Logger

	mu     sync.RWMutex
	stores map[int64]storage.ExpenseStore
	opened int
	closed bool

	group singleflight.Group
}

func New(open Opener, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		open:   open,
		logger: logger,
		stores: make(map[int64]storage.ExpenseStore),
	}
}

// GetOrCreate returns the tenant's store, opening it on first use.
func (r *Registry) GetOrCreate(ctx context.Context, tenantID int64) (storage.ExpenseStore, error) {
	r.mu.RLock()
	s, ok := r.stores[tenantID]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return s, nil
	}

	v, err, _ := r.group.Do(strconv.FormatInt(tenantID, 10), func() (interface{}, error) {
		r.mu.RLock()
		s, ok := r.stores[tenantID]
		r.mu.RUnlock()
		if ok {
			return s, nil
		}

		// The open must outlive the first caller's cancellation since
		// other callers may be waiting on the same result.
		s, err := r.open(context.WithoutCancel(ctx), tenantID)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to open tenant store", "tenant_id", tenantID, "error", err)
			return nil, fmt.Errorf("open store for tenant %d: %w", tenantID, err)
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			s.Close()
			return nil, ErrClosed
		}
		r.stores[tenantID] = s
		r.opened++
		r.logger.InfoContext(ctx, "Opened tenant store", "tenant_id", tenantID)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(storage.ExpenseStore), nil
}

// Len returns the number of open stores.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// Opened returns how many stores were opened over the registry's lifetime.
// Unlike Len it is not reset by Close.
func (r *Registry) Opened() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opened
}

// Close closes every open store. Later GetOrCreate calls fail with ErrClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[int64]storage.ExpenseStore)
	r.closed = true
	r.mu.Unlock()

	var errs []error
	for id, s := range stores {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store for tenant %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
