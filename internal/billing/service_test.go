package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"bollette/internal/auth"
	"bollette/internal/core"
	"bollette/internal/storage"
)

type fakePublisher struct {
	published []struct {
		BillID  string
		Version int64
	}
	err error
}

func (p *fakePublisher) PublishBillSync(_ context.Context, billID string, version int64) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, struct {
		BillID  string
		Version int64
	}{billID, version})
	return nil
}

var (
	adminPrincipal    = auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}
	residentPrincipal = auth.Principal{UserID: "user-1", Role: auth.RoleResident}
)

func seededService(t *testing.T) (*BillService, *storage.MemoryRepository, *fakePublisher) {
	t.Helper()
	repo := storage.NewMemoryRepository()
	bills := []core.Bill{
		{
			ID: "bill-001", Title: "Water Bill - June", Type: core.TypeWater,
			Amount: core.Money{Cents: 85000}, Status: core.StatusPending,
			BillDate: core.NewDate(2025, 6, 1), DueDate: core.NewDate(2025, 6, 15),
			OwnerID: "user-1", FlatNumber: "A-101",
		},
		{
			ID: "bill-002", Title: "Maintenance - June", Type: core.TypeMaintenance,
			Amount: core.Money{Cents: 120000}, Status: core.StatusPending,
			BillDate: core.NewDate(2025, 6, 1), DueDate: core.NewDate(2025, 6, 10),
			OwnerID: "user-2", FlatNumber: "B-204",
		},
		{
			ID: "bill-003", Title: "Electricity - May", Type: core.TypeElectricity,
			Amount: core.Money{Cents: 92000}, Status: core.StatusPaid,
			BillDate: core.NewDate(2025, 5, 1), DueDate: core.NewDate(2025, 5, 20),
			Payment: &core.Payment{
				PaidDate: core.NewDate(2025, 5, 18), Method: "online", TransactionID: "TXN-1",
			},
			OwnerID: "user-1", FlatNumber: "A-101",
		},
	}
	if err := repo.CreateBills(context.Background(), bills); err != nil {
		t.Fatalf("seed bills: %v", err)
	}
	pub := &fakePublisher{}
	return NewBillService(repo, pub), repo, pub
}

func TestQueryScopesToPrincipal(t *testing.T) {
	svc, _, _ := seededService(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

	adminRes, err := svc.Query(ctx, adminPrincipal, core.DefaultQuerySpec(), now)
	if err != nil {
		t.Fatalf("admin query: %v", err)
	}
	if adminRes.Count != 3 {
		t.Fatalf("admin sees %d bills, want 3", adminRes.Count)
	}

	resRes, err := svc.Query(ctx, residentPrincipal, core.DefaultQuerySpec(), now)
	if err != nil {
		t.Fatalf("resident query: %v", err)
	}
	if resRes.Count != 2 {
		t.Fatalf("resident sees %d bills, want 2", resRes.Count)
	}
	for _, b := range resRes.Items {
		if b.OwnerID != "user-1" {
			t.Fatalf("leaked bill %s owned by %s", b.ID, b.OwnerID)
		}
	}
}

func TestQueryRejectsInvalidSpec(t *testing.T) {
	svc, _, _ := seededService(t)
	spec := core.QuerySpec{Status: "archived"}
	if _, err := svc.Query(context.Background(), adminPrincipal, spec, time.Now()); err == nil {
		t.Fatalf("expected invalid spec error")
	}
}

func TestGetBillOwnership(t *testing.T) {
	svc, _, _ := seededService(t)
	ctx := context.Background()

	if _, err := svc.GetBill(ctx, residentPrincipal, "bill-001"); err != nil {
		t.Fatalf("own bill: %v", err)
	}
	if _, err := svc.GetBill(ctx, residentPrincipal, "bill-002"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign bill: got %v, want ErrForbidden", err)
	}
	if _, err := svc.GetBill(ctx, adminPrincipal, "bill-002"); err != nil {
		t.Fatalf("admin access: %v", err)
	}
	if _, err := svc.GetBill(ctx, adminPrincipal, "bill-999"); !errors.Is(err, storage.ErrBillNotFound) {
		t.Fatalf("missing bill: got %v, want ErrBillNotFound", err)
	}
}

func TestPayBill(t *testing.T) {
	svc, _, pub := seededService(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)

	bill, err := svc.PayBill(ctx, residentPrincipal, "bill-001", "upi", now)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if bill.Status != core.StatusPaid {
		t.Fatalf("status = %s, want paid", bill.Status)
	}
	if bill.Payment == nil || bill.Payment.Method != "upi" {
		t.Fatalf("payment not recorded: %+v", bill.Payment)
	}
	if bill.Payment.PaidDate.String() != "2025-06-12" {
		t.Fatalf("paid date = %s", bill.Payment.PaidDate.String())
	}
	if bill.Payment.TransactionID == "" {
		t.Fatalf("missing transaction id")
	}

	if len(pub.published) != 1 || pub.published[0].BillID != "bill-001" {
		t.Fatalf("published = %+v", pub.published)
	}
	if pub.published[0].Version != 2 {
		t.Fatalf("version = %d, want 2", pub.published[0].Version)
	}

	// Second payment is rejected.
	if _, err := svc.PayBill(ctx, residentPrincipal, "bill-001", "upi", now); !errors.Is(err, storage.ErrAlreadyPaid) {
		t.Fatalf("repay: got %v, want ErrAlreadyPaid", err)
	}
}

func TestPayBillForbiddenForForeignResident(t *testing.T) {
	svc, _, pub := seededService(t)
	if _, err := svc.PayBill(context.Background(), residentPrincipal, "bill-002", "upi", time.Now()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
	if len(pub.published) != 0 {
		t.Fatalf("no message should be published on rejection")
	}
}

func TestPayBillPublishFailureDoesNotFailRequest(t *testing.T) {
	svc, _, pub := seededService(t)
	pub.err = errors.New("broker down")

	bill, err := svc.PayBill(context.Background(), residentPrincipal, "bill-001", "", time.Now())
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if bill.Payment.Method != "online" {
		t.Fatalf("default method = %s, want online", bill.Payment.Method)
	}
}

func TestSweepOverdue(t *testing.T) {
	svc, repo, _ := seededService(t)
	ctx := context.Background()

	affected, err := svc.SweepOverdue(ctx, core.NewDate(2025, 6, 12))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	// Only bill-002 (due June 10) is past due; bill-001 is due June 15.
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}
	b, err := repo.GetBill(ctx, "bill-002")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Status != core.StatusOverdue {
		t.Fatalf("status = %s, want overdue", b.Status)
	}
}

func TestSummaryAndStats(t *testing.T) {
	svc, _, _ := seededService(t)
	ctx := context.Background()

	sum, err := svc.Summary(ctx, adminPrincipal)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total.Cents != 297000 {
		t.Fatalf("total = %d, want 297000", sum.Total.Cents)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalBills != 3 || stats.PaidCount != 1 || stats.PendingCount != 2 {
		t.Fatalf("counts = %+v", stats)
	}
	if stats.TotalCollected.Cents != 92000 || stats.Outstanding.Cents != 205000 {
		t.Fatalf("money = %+v", stats)
	}
	wantRate := 92000.0 / 297000.0
	if diff := stats.CollectionRate - wantRate; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("rate = %f, want %f", stats.CollectionRate, wantRate)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.CollectionRate != 0 {
		t.Fatalf("rate = %f, want 0", stats.CollectionRate)
	}
}

func TestRecentScoped(t *testing.T) {
	svc, _, _ := seededService(t)
	bills, err := svc.Recent(context.Background(), residentPrincipal, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(bills) != 2 || bills[0].ID != "bill-001" || bills[1].ID != "bill-003" {
		t.Fatalf("recent = %v", billIDs(bills))
	}
}

func billIDs(bills []core.Bill) []string {
	ids := make([]string, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
	}
	return ids
}
