package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/registry"
	"spendlog/internal/services"
	"spendlog/internal/stats"
	"spendlog/internal/storage"
	"spendlog/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	var opener registry.Opener
	switch config.Type {
	case SQLiteBackend:
		opener = sqliteOpener(config.DataDir, config.Location)
	case MemoryBackend:
		opener = memoryOpener(config.Location)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	reg := registry.New(opener, f.logger)
	engine := stats.NewEngine(config.StatsWorkers)

	// a nil *amqp.Client must not become a non-nil interface
	var publisher services.EventPublisher
	if client := f.connectAMQP(config); client != nil {
		publisher = client
	}

	ledger := services.NewLedgerService(reg, engine, publisher, config.StatsThreshold)

	f.logger.InfoContext(ctx, "Initialized ledger backend",
		"backend", config.Type,
		"data_dir", config.DataDir,
		"timezone", config.Location.String(),
		"stats_workers", engine.Workers(),
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Ledger:   ledger,
		Registry: reg,
		Cleanup:  ledger.Close,
	}, nil
}

// connectAMQP returns nil when AMQP is disabled or unreachable; the ledger runs without events then.
func (f *DefaultFactory) connectAMQP(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func sqliteOpener(dir string, loc *time.Location) registry.Opener {
	return func(_ context.Context, tenantID int64) (storage.ExpenseStore, error) {
		path, err := storage.TenantDBPath(dir, tenantID)
		if err != nil {
			return nil, err
		}
		store, err := storage.NewSQLiteStore(path, loc)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func memoryOpener(loc *time.Location) registry.Opener {
	return func(_ context.Context, _ int64) (storage.ExpenseStore, error) {
		return memory.New(loc), nil
	}
}
