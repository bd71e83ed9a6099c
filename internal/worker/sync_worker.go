package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bollette/internal/amqp"
	"bollette/internal/core"
	"bollette/internal/ledger"
	"bollette/internal/storage"
)

// Repository is the storage surface the sync worker needs.
type Repository interface {
	GetBill(ctx context.Context, id string) (core.Bill, error)
	GetPendingSyncBills(ctx context.Context, limit int) ([]storage.PendingSyncBill, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncWorker exports bills from the local store to the society ledger.
type SyncWorker struct {
	repo      Repository
	ledger    ledger.BillWriter
	batchSize int
}

func NewSyncWorker(repo Repository, writer ledger.BillWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		repo:      repo,
		ledger:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single bill sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.BillSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"bill_id", msg.BillID,
		"version", msg.Version)

	bill, err := w.repo.GetBill(ctx, msg.BillID)
	if err != nil {
		return fmt.Errorf("get bill from storage: %w", err)
	}

	if err := w.exportBill(ctx, bill); err != nil {
		return fmt.Errorf("export bill to ledger: %w", err)
	}

	return nil
}

// ProcessPendingBills exports any bills that still have a pending sync
// status. This is the backup mechanism for lost AMQP messages.
func (w *SyncWorker) ProcessPendingBills(ctx context.Context) error {
	pending, err := w.repo.GetPendingSyncBills(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending bills: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending bills", "count", len(pending))

	for _, p := range pending {
		bill, err := w.repo.GetBill(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get bill", "bill_id", p.ID, "error", err)
			if err := w.repo.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "bill_id", p.ID, "error", err)
			}
			continue
		}
		if err := w.exportBill(ctx, bill); err != nil {
			slog.ErrorContext(ctx, "Failed to export bill", "bill_id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup,
// recovering from missed messages or worker downtime. Bills the ledger
// already holds (a crash between Append and MarkSynced) are reconciled
// by reading the ledger's ID column instead of appending a duplicate row.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.repo.GetPendingSyncBills(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending bills for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending bills found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending bills on startup, processing...",
		"count", len(pending))

	index := newLedgerIndex(w.ledger)

	successCount := 0
	skippedCount := 0
	errorCount := 0
	for _, p := range pending {
		bill, err := w.repo.GetBill(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get bill for startup sync",
				"bill_id", p.ID, "error", err)
			if err := w.repo.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "bill_id", p.ID, "error", err)
			}
			errorCount++
			continue
		}
		if index.contains(ctx, bill.ID, bill.BillDate.Year()) {
			if err := w.repo.MarkSynced(ctx, bill.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark as synced", "bill_id", bill.ID, "error", err)
				errorCount++
				continue
			}
			slog.InfoContext(ctx, "Bill already in ledger, reconciled without re-export",
				"bill_id", bill.ID)
			skippedCount++
			continue
		}
		if err := w.exportBill(ctx, bill); err != nil {
			slog.ErrorContext(ctx, "Failed to export bill during startup",
				"bill_id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"already_in_ledger", skippedCount,
		"errors", errorCount)

	return nil
}

// ledgerIndex lazily loads the ledger's bill IDs one year-sheet at a time.
// A writer without a read side, or a failed read, yields an empty index:
// the worker then re-appends instead of skipping, which the ledger
// tolerates better than silently dropping an export.
type ledgerIndex struct {
	reader ledger.BillReader
	years  map[int]map[string]struct{}
}

func newLedgerIndex(writer ledger.BillWriter) *ledgerIndex {
	reader, _ := writer.(ledger.BillReader)
	return &ledgerIndex{
		reader: reader,
		years:  make(map[int]map[string]struct{}),
	}
}

func (ix *ledgerIndex) contains(ctx context.Context, billID string, year int) bool {
	if ix.reader == nil {
		return false
	}
	ids, ok := ix.years[year]
	if !ok {
		ids = make(map[string]struct{})
		listed, err := ix.reader.ListBillIDs(ctx, year)
		if err != nil {
			slog.WarnContext(ctx, "Failed to read ledger bill IDs",
				"year", year, "error", err)
		}
		for _, id := range listed {
			ids[id] = struct{}{}
		}
		ix.years[year] = ids
	}
	_, present := ids[billID]
	return present
}

func (w *SyncWorker) exportBill(ctx context.Context, bill core.Bill) error {
	ref, err := w.ledger.Append(ctx, bill)
	if err != nil {
		if markErr := w.repo.MarkSyncError(ctx, bill.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "bill_id", bill.ID, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.repo.MarkSynced(ctx, bill.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "bill_id", bill.ID, "error", err)
		// The export itself succeeded, keep going.
	}

	slog.InfoContext(ctx, "Successfully exported bill",
		"bill_id", bill.ID,
		"ledger_ref", ref,
		"status", string(bill.Status),
		"amount_cents", bill.Amount.Cents)

	return nil
}
