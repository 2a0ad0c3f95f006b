// Package backend assembles the ledger service for the configured storage backend.
package backend

import (
	"context"
	"time"

	"spendlog/internal/registry"
	"spendlog/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the wired service and its cleanup.
type BackendResult struct {
	Ledger   *services.LedgerService
	Registry *registry.Registry
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// DataDir holds one database file per tenant (sqlite only)
	DataDir  string
	Location *time.Location

	StatsThreshold float64
	StatsWorkers   int

	// AMQP is optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
