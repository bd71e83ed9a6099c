package backend

import (
	"context"

	"bollette/internal/auth"
	"bollette/internal/billing"
	"bollette/internal/ledger"
	"bollette/internal/worker"
)

// Store is the full persistence surface the application needs: bill state
// for the billing service, sync bookkeeping for the worker, and accounts
// for authentication. Both repository implementations satisfy it.
type Store interface {
	billing.Repository
	billing.UserDirectory
	worker.Repository
	auth.UserStorage
	CountUsers(ctx context.Context) (int64, error)
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StoreResult contains the store instance, the optional AMQP client used to
// publish sync messages, and an optional cleanup function.
type StoreResult struct {
	Store   Store
	AMQP    billing.Publisher
	Cleanup CleanupFunc
}

// LedgerResult contains the export sink the sync worker writes to.
type LedgerResult struct {
	Writer  ledger.BillWriter
	Cleanup CleanupFunc
}

// Factory creates stores and ledger sinks based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateLedger(ctx context.Context, config Config) (*LedgerResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Store type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP sync messaging (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets ledger
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Memory store specific: seed demo accounts and bills on startup
	SeedDemoData bool
}

// BackendType represents the type of bill store
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
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
