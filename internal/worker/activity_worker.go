// Package worker consumes ledger events published by the service.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

// TenantActivity is the running tally of one tenant's ledger events.
type TenantActivity struct {
	TenantID  int64
	Created   int
	Deleted   int
	NetSpend  float64
	LastEvent time.Time
}

// ActivityWorker keeps per-tenant tallies of ledger events and reports them periodically.
type ActivityWorker struct {
	mu      sync.Mutex
	tenants map[int64]*tally
	logger  *slog.Logger
}

type tally struct {
	created, deleted int
	net              core.CostSum
	last             time.Time
}

func NewActivityWorker(logger *slog.Logger) *ActivityWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityWorker{
		tenants: make(map[int64]*tally),
		logger:  applog.WithComponent(logger, applog.ComponentWorker),
	}
}

// HandleLedgerEvent applies one event. It matches the amqp consumer handler signature.
func (w *ActivityWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev == nil {
		return fmt.Errorf("nil ledger event")
	}

	if ev.Type != amqp.ExpenseCreated && ev.Type != amqp.ExpenseDeleted {
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	w.mu.Lock()
	t, ok := w.tenants[ev.TenantID]
	if !ok {
		t = &tally{}
		w.tenants[ev.TenantID] = t
	}
	if ev.Type == amqp.ExpenseCreated {
		t.created++
		t.net.Add(ev.Cost)
	} else {
		t.deleted++
		t.net.Add(-ev.Cost)
	}
	if ev.Timestamp.After(t.last) {
		t.last = ev.Timestamp
	}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Processed ledger event",
		applog.FieldEvent, ev.Type,
		applog.FieldTenantID, ev.TenantID,
		applog.FieldName, ev.Name,
		applog.FieldCost, core.FormatCost(ev.Cost))
	return nil
}

// Snapshot returns the tallies ordered by tenant id.
func (w *ActivityWorker) Snapshot() []TenantActivity {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]TenantActivity, 0, len(w.tenants))
	for id, t := range w.tenants {
		out = append(out, TenantActivity{
			TenantID:  id,
			Created:   t.created,
			Deleted:   t.deleted,
			NetSpend:  t.net.Float64(),
			LastEvent: t.last,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out
}

// Report logs one line per tenant seen so far.
func (w *ActivityWorker) Report(ctx context.Context) {
	snap := w.Snapshot()
	if len(snap) == 0 {
		w.logger.DebugContext(ctx, "No ledger activity yet")
		return
	}
	for _, a := range snap {
		w.logger.InfoContext(ctx, "Tenant activity",
			applog.FieldTenantID, a.TenantID,
			"created", a.Created,
			"deleted", a.Deleted,
			"net_spend", core.FormatCost(a.NetSpend),
			"last_event", a.LastEvent.Format(time.RFC3339))
	}
}

// RunReports calls Report every interval until ctx is done.
func (w *ActivityWorker) RunReports(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Report(ctx)
		}
	}
}
