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

var ErrNoResidents = errors.New("no resident accounts to bill")

// UserDirectory lists resident accounts for bill fan-out.
type UserDirectory interface {
	ListResidents(ctx context.Context) ([]auth.User, error)
}

// GenerateRequest describes one admin-triggered billing run: one bill of
// the given type and amount per resident flat.
type GenerateRequest struct {
	Title  string
	Type   core.BillType
	Amount core.Money
	// Description is optional free text carried onto every bill.
	Description string
}

func (r GenerateRequest) Validate() error {
	if r.Title == "" {
		return core.ErrEmptyTitle
	}
	if !r.Type.Valid() {
		return core.ErrInvalidType
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if r.Amount.Cents == 0 {
		return core.ErrInvalidAmount
	}
	return nil
}

// Generator creates a billing cycle's bills for every resident.
type Generator struct {
	repo      Repository
	users     UserDirectory
	publisher Publisher
	// DueDays is the gap between bill date and due date.
	dueDays int
}

func NewGenerator(repo Repository, users UserDirectory, publisher Publisher, dueDays int) *Generator {
	if dueDays <= 0 {
		dueDays = 14
	}
	return &Generator{
		repo:      repo,
		users:     users,
		publisher: publisher,
		dueDays:   dueDays,
	}
}

// Generate creates one bill per resident, dated now and due after the
// configured gap, then queues each for ledger export. Returns the created
// bills in resident order.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest, now time.Time) ([]core.Bill, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generate request: %w", err)
	}

	residents, err := g.users.ListResidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	if len(residents) == 0 {
		return nil, ErrNoResidents
	}

	billDate := core.Date{Time: now}
	dueDate := core.Date{Time: now.AddDate(0, 0, g.dueDays)}

	bills := make([]core.Bill, 0, len(residents))
	for _, resident := range residents {
		bills = append(bills, core.Bill{
			ID:          "bill-" + uuid.NewString(),
			Title:       req.Title,
			Type:        req.Type,
			Amount:      req.Amount,
			Status:      core.StatusPending,
			BillDate:    billDate,
			DueDate:     dueDate,
			OwnerID:     resident.ID,
			FlatNumber:  resident.FlatNumber,
			Description: req.Description,
		})
	}

	if err := g.repo.CreateBills(ctx, bills); err != nil {
		return nil, fmt.Errorf("create bills: %w", err)
	}

	slog.InfoContext(ctx, "Billing cycle generated",
		"title", req.Title,
		"type", string(req.Type),
		"count", len(bills),
		"due_date", dueDate.String())

	if g.publisher != nil {
		for _, b := range bills {
			if err := g.publisher.PublishBillSync(ctx, b.ID, 1); err != nil {
				slog.ErrorContext(ctx, "Failed to publish sync message",
					"bill_id", b.ID, "error", err)
			}
		}
	}

	return bills, nil
}
