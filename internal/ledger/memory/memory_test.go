package memory

import (
	"context"
	"testing"

	"bollette/internal/core"
)

func testBill(id string, year int) core.Bill {
	return core.Bill{
		ID:         id,
		Title:      "Water Bill",
		Type:       core.TypeWater,
		Amount:     core.Money{Cents: 85000},
		Status:     core.StatusPending,
		BillDate:   core.NewDate(year, 6, 1),
		DueDate:    core.NewDate(year, 6, 15),
		OwnerID:    "user-1",
		FlatNumber: "A-101",
	}
}

func TestStoreAppendAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, testBill("bill-001", 2025))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("ref = %q, want mem:1", ref)
	}
	if _, err := s.Append(ctx, testBill("bill-002", 2024)); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Re-exports of the same bill stay one ID in the listing.
	if _, err := s.Append(ctx, testBill("bill-001", 2025)); err != nil {
		t.Fatalf("append: %v", err)
	}

	ids, err := s.ListBillIDs(ctx, 2025)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != "bill-001" {
		t.Fatalf("ids = %v, want [bill-001]", ids)
	}

	if got := len(s.Rows()); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
}

func TestStoreAppendRejectsInvalid(t *testing.T) {
	s := New()
	b := testBill("bill-003", 2025)
	b.Title = ""
	if _, err := s.Append(context.Background(), b); err == nil {
		t.Fatalf("expected validation error")
	}
}
