package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bollette/internal/auth"
	"bollette/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "bollette.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedBills(t *testing.T, repo *SQLiteRepository) []core.Bill {
	t.Helper()
	bills := []core.Bill{
		{
			ID: "bill-003", Title: "Water Bill - May 2023", Type: core.TypeWater,
			Amount: core.Money{Cents: 92000}, Status: core.StatusPending,
			BillDate: core.NewDate(2023, 5, 1), DueDate: core.NewDate(2023, 5, 15),
			OwnerID: "resident123", FlatNumber: "A-101",
		},
		{
			ID: "bill-005", Title: "Special Repair Fund", Type: core.TypeOther,
			Amount: core.Money{Cents: 500000}, Status: core.StatusOverdue,
			BillDate: core.NewDate(2023, 3, 1), DueDate: core.NewDate(2023, 3, 31),
			OwnerID: "resident123", FlatNumber: "A-101",
		},
		{
			ID: "bill-101", Title: "Water Bill - May 2023", Type: core.TypeWater,
			Amount: core.Money{Cents: 87000}, Status: core.StatusPending,
			BillDate: core.NewDate(2023, 5, 1), DueDate: core.NewDate(2023, 5, 15),
			OwnerID: "resident456", FlatNumber: "B-202",
		},
	}
	if err := repo.CreateBills(context.Background(), bills); err != nil {
		t.Fatalf("create bills: %v", err)
	}
	return bills
}

func TestListBillsForPrincipal(t *testing.T) {
	repo := newTestRepo(t)
	seedBills(t, repo)
	ctx := context.Background()

	all, err := repo.ListBillsForPrincipal(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("admin sees %d bills, want 3", len(all))
	}

	own, err := repo.ListBillsForPrincipal(ctx, "resident123")
	if err != nil {
		t.Fatalf("list owned: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("resident sees %d bills, want 2", len(own))
	}
	for _, b := range own {
		if b.OwnerID != "resident123" {
			t.Fatalf("leaked bill %s owned by %s", b.ID, b.OwnerID)
		}
	}
}

func TestGetBill(t *testing.T) {
	repo := newTestRepo(t)
	seedBills(t, repo)
	ctx := context.Background()

	bill, err := repo.GetBill(ctx, "bill-003")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if bill.Title != "Water Bill - May 2023" || bill.Amount.Cents != 92000 {
		t.Fatalf("bill = %+v", bill)
	}
	if bill.Payment != nil {
		t.Fatalf("pending bill has payment details")
	}

	if _, err := repo.GetBill(ctx, "bill-999"); !errors.Is(err, ErrBillNotFound) {
		t.Fatalf("err = %v, want ErrBillNotFound", err)
	}
}

func TestMarkPaid(t *testing.T) {
	repo := newTestRepo(t)
	seedBills(t, repo)
	ctx := context.Background()

	payment := core.Payment{
		PaidDate:      core.NewDate(2023, 5, 10),
		Method:        "UPI",
		TransactionID: "txn_123456",
	}
	bill, err := repo.MarkPaid(ctx, "bill-003", payment)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if bill.Status != core.StatusPaid {
		t.Fatalf("status = %q, want paid", bill.Status)
	}
	if bill.Payment == nil || bill.Payment.TransactionID != "txn_123456" {
		t.Fatalf("payment = %+v", bill.Payment)
	}
	if err := bill.Validate(); err != nil {
		t.Fatalf("paid bill invalid: %v", err)
	}

	if _, err := repo.MarkPaid(ctx, "bill-003", payment); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("err = %v, want ErrAlreadyPaid", err)
	}
	if _, err := repo.MarkPaid(ctx, "bill-999", payment); !errors.Is(err, ErrBillNotFound) {
		t.Fatalf("err = %v, want ErrBillNotFound", err)
	}
}

func TestMarkOverdue(t *testing.T) {
	repo := newTestRepo(t)
	seedBills(t, repo)
	ctx := context.Background()

	// Both pending bills are due 2023-05-15; the day itself is not overdue.
	n, err := repo.MarkOverdue(ctx, core.NewDate(2023, 5, 15))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("swept %d bills on the due date, want 0", n)
	}

	n, err = repo.MarkOverdue(ctx, core.NewDate(2023, 5, 16))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("swept %d bills, want 2", n)
	}

	bill, err := repo.GetBill(ctx, "bill-003")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if bill.Status != core.StatusOverdue {
		t.Fatalf("status = %q, want overdue", bill.Status)
	}

	// Idempotent: a second sweep finds nothing pending.
	n, err = repo.MarkOverdue(ctx, core.NewDate(2023, 5, 16))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep affected %d bills, want 0", n)
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	seedBills(t, repo)
	ctx := context.Background()

	pending, err := repo.GetPendingSyncBills(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3 (all fresh bills)", len(pending))
	}

	if err := repo.MarkSynced(ctx, "bill-003"); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, "bill-005"); err != nil {
		t.Fatalf("mark sync error: %v", err)
	}

	pending, err = repo.GetPendingSyncBills(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "bill-101" {
		t.Fatalf("pending = %+v, want just bill-101", pending)
	}

	// Paying a synced bill re-queues it with a bumped version.
	if _, err := repo.MarkPaid(ctx, "bill-003", core.Payment{
		PaidDate: core.NewDate(2023, 5, 10), Method: "UPI", TransactionID: "txn_1",
	}); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	pending, err = repo.GetPendingSyncBills(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	found := false
	for _, p := range pending {
		if p.ID == "bill-003" {
			found = true
			if p.Version != 2 {
				t.Fatalf("version = %d, want 2", p.Version)
			}
		}
	}
	if !found {
		t.Fatalf("paid bill not re-queued for sync")
	}
}

func TestCreateBillsRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bad := []core.Bill{{
		ID: "bill-x", Title: "Backwards", Type: core.TypeWater,
		Amount: core.Money{Cents: 100}, Status: core.StatusPending,
		BillDate: core.NewDate(2023, 5, 15), DueDate: core.NewDate(2023, 5, 1),
		OwnerID: "resident123",
	}}
	if err := repo.CreateBills(ctx, bad); !errors.Is(err, core.ErrDueBeforeBilled) {
		t.Fatalf("err = %v, want ErrDueBeforeBilled", err)
	}

	// The failed batch must not leave partial rows behind.
	bills, err := repo.ListBillsForPrincipal(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bills) != 0 {
		t.Fatalf("found %d bills after failed batch, want 0", len(bills))
	}
}

func TestUserStorage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := &auth.User{
		ID: "resident123", Email: "resident@example.com", PasswordHash: "hash",
		DisplayName: "John Resident", Role: auth.RoleResident,
		FlatNumber: "A-101", ContactNumber: "+91 9876543210",
	}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := repo.GetUserByEmail(ctx, "resident@example.com")
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if got.ID != "resident123" || got.Role != auth.RoleResident || got.FlatNumber != "A-101" {
		t.Fatalf("user = %+v", got)
	}

	if _, err := repo.GetUserByID(ctx, "nobody"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}

	n, err := repo.CountUsers(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}
