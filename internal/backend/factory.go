package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bollette/internal/amqp"
	gsheet "bollette/internal/ledger/google"
	ledgermem "bollette/internal/ledger/memory"
	"bollette/internal/storage"
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
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	case MemoryBackend:
		return f.createMemoryStore(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(config Config) (*StoreResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	result := &StoreResult{
		Store:   repo,
		Cleanup: repo.Close,
	}

	// AMQP is optional; without it writes are still recorded as pending and
	// picked up by the worker's poll loop.
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync messaging", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.AMQP = client
			result.Cleanup = func() error {
				cerr := client.Close()
				if rerr := repo.Close(); rerr != nil {
					return rerr
				}
				return cerr
			}
		}
	}

	f.logger.Info("Initialized SQLite store",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", result.AMQP != nil)

	return result, nil
}

func (f *DefaultFactory) createMemoryStore(ctx context.Context, config Config) (*StoreResult, error) {
	repo := storage.NewMemoryRepository()

	if config.SeedDemoData {
		if err := storage.DemoSeed(ctx, repo); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
	}

	f.logger.Info("Initialized memory store", "seeded", config.SeedDemoData)

	return &StoreResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

// CreateLedger implements Factory.CreateLedger. When a spreadsheet ID is
// configured the Google Sheets ledger is used; otherwise an in-memory sink
// keeps the sync pipeline exercisable without external credentials.
func (f *DefaultFactory) CreateLedger(ctx context.Context, config Config) (*LedgerResult, error) {
	if config.GoogleSpreadsheetID != "" {
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets ledger: %w", err)
		}
		f.logger.Info("Initialized Google Sheets ledger", "sheet", config.GoogleSheetName)
		return &LedgerResult{Writer: cli}, nil
	}

	f.logger.Info("Initialized in-memory ledger")
	return &LedgerResult{Writer: ledgermem.New()}, nil
}
