// Package billing orchestrates bill operations across the repository, the
// query engine, and the AMQP sync pipeline.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bollette/internal/auth"
	"bollette/internal/core"
)

var (
	// ErrForbidden is returned when a resident touches a bill they do not own.
	ErrForbidden = errors.New("bill belongs to another resident")
)

// Repository is the bill persistence surface the service needs. Both the
// SQLite and the in-memory repositories satisfy it.
type Repository interface {
	ListBillsForPrincipal(ctx context.Context, ownerID string) ([]core.Bill, error)
	GetBill(ctx context.Context, id string) (core.Bill, error)
	CreateBills(ctx context.Context, bills []core.Bill) error
	MarkPaid(ctx context.Context, id string, payment core.Payment) (core.Bill, error)
	MarkOverdue(ctx context.Context, asOf core.Date) (int64, error)
	BillSyncVersion(ctx context.Context, id string) (int64, error)
}

// Publisher emits sync messages for the ledger worker.
type Publisher interface {
	PublishBillSync(ctx context.Context, billID string, version int64) error
}

// BillService coordinates bill reads and state transitions. Writes go to
// the repository first; sync messages are published best-effort afterwards.
type BillService struct {
	repo      Repository
	publisher Publisher
	closer    func() error
}

func NewBillService(repo Repository, publisher Publisher) *BillService {
	return &BillService{
		repo:      repo,
		publisher: publisher,
	}
}

// SetCloser registers a cleanup function invoked by Close.
func (s *BillService) SetCloser(fn func() error) {
	s.closer = fn
}

// Query lists the principal's visible bills and runs the query engine over
// them. The reference instant resolves relative date ranges.
func (s *BillService) Query(ctx context.Context, principal auth.Principal, spec core.QuerySpec, now time.Time) (core.QueryResult, error) {
	if err := spec.Validate(); err != nil {
		return core.QueryResult{}, fmt.Errorf("invalid query: %w", err)
	}
	bills, err := s.repo.ListBillsForPrincipal(ctx, principal.OwnerScope())
	if err != nil {
		return core.QueryResult{}, fmt.Errorf("list bills: %w", err)
	}
	return core.Apply(bills, spec, now), nil
}

// Summary partitions the principal's bills into status buckets.
func (s *BillService) Summary(ctx context.Context, principal auth.Principal) (core.Summary, error) {
	bills, err := s.repo.ListBillsForPrincipal(ctx, principal.OwnerScope())
	if err != nil {
		return core.Summary{}, fmt.Errorf("list bills: %w", err)
	}
	return core.Summarize(bills), nil
}

// Recent returns the principal's n most recently due bills.
func (s *BillService) Recent(ctx context.Context, principal auth.Principal, n int) ([]core.Bill, error) {
	bills, err := s.repo.ListBillsForPrincipal(ctx, principal.OwnerScope())
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return core.Recent(bills, n), nil
}

// GetBill fetches one bill, enforcing resident ownership.
func (s *BillService) GetBill(ctx context.Context, principal auth.Principal, id string) (core.Bill, error) {
	bill, err := s.repo.GetBill(ctx, id)
	if err != nil {
		return core.Bill{}, err
	}
	if scope := principal.OwnerScope(); scope != "" && bill.OwnerID != scope {
		return core.Bill{}, ErrForbidden
	}
	return bill, nil
}

// PayBill transitions a pending or overdue bill to paid and queues its
// ledger export. Residents can only pay their own bills.
func (s *BillService) PayBill(ctx context.Context, principal auth.Principal, id, method string, now time.Time) (core.Bill, error) {
	if _, err := s.GetBill(ctx, principal, id); err != nil {
		return core.Bill{}, err
	}

	if method == "" {
		method = "online"
	}
	payment := core.Payment{
		PaidDate:      core.Date{Time: now},
		Method:        method,
		TransactionID: "TXN-" + uuid.NewString(),
	}

	bill, err := s.repo.MarkPaid(ctx, id, payment)
	if err != nil {
		return core.Bill{}, err
	}

	s.publishSync(ctx, bill.ID)

	return bill, nil
}

// SweepOverdue flips past-due pending bills to overdue. The affected bills
// re-enter the sync queue and the worker's poll loop picks them up.
func (s *BillService) SweepOverdue(ctx context.Context, asOf core.Date) (int64, error) {
	affected, err := s.repo.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("sweep overdue: %w", err)
	}
	return affected, nil
}

// publishSync emits a best-effort sync message. A publish failure never
// fails the request; the bill stays locally persisted with sync pending.
func (s *BillService) publishSync(ctx context.Context, billID string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP publisher not available, skipping sync message", "bill_id", billID)
		return
	}

	version, err := s.repo.BillSyncVersion(ctx, billID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read bill sync version", "bill_id", billID, "error", err)
		version = 1
	}

	if err := s.publisher.PublishBillSync(ctx, billID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"bill_id", billID, "error", err)
	}
}

// Close runs the registered cleanup.
func (s *BillService) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
