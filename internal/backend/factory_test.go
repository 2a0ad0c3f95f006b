package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spendlog/internal/config"
)

func TestCreateBackend(t *testing.T) {
	for _, typ := range []BackendType{MemoryBackend, SQLiteBackend} {
		t.Run(typ.String(), func(t *testing.T) {
			dir := t.TempDir()
			res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
				Type:           typ,
				DataDir:        dir,
				Location:       time.UTC,
				StatsThreshold: 100,
				StatsWorkers:   2,
			})
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer func() {
				if err := res.Cleanup(); err != nil {
					t.Errorf("Cleanup: %v", err)
				}
			}()

			ctx := context.Background()
			day := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
			if err := res.Ledger.AddExpense(ctx, 42, day, "bread", 2.5); err != nil {
				t.Fatalf("AddExpense: %v", err)
			}
			got, err := res.Ledger.ListExpenses(ctx, 42, nil)
			if err != nil || len(got) != 1 {
				t.Fatalf("ListExpenses = %v, %v", got, err)
			}
			if other, _ := res.Ledger.ListExpenses(ctx, 43, nil); len(other) != 0 {
				t.Fatalf("tenant 43 sees %d records", len(other))
			}
			if res.Registry.Len() != 2 {
				t.Fatalf("registry holds %d stores, want 2", res.Registry.Len())
			}

			if typ == SQLiteBackend {
				if _, err := os.Stat(filepath.Join(dir, "42.db")); err != nil {
					t.Fatalf("tenant database not created: %v", err)
				}
			}
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.CreateBackend(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Fatal("unknown backend accepted")
	}
	if _, err := f.CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("sqlite without data dir accepted")
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:    "memory",
		Timezone:       "UTC",
		StatsThreshold: 10,
		StatsWorkers:   1,
		AMQPURL:        "amqp://localhost",
		AMQPExchange:   "x",
		AMQPQueue:      "q",
	}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if bc.Type != MemoryBackend || bc.Location != time.UTC || bc.AMQPQueue != "q" {
		t.Fatalf("unexpected backend config: %+v", bc)
	}

	cfg.DataBackend = "nope"
	if _, err := FromAppConfig(cfg); err == nil {
		t.Fatal("invalid backend accepted")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("nil config accepted")
	}
}
