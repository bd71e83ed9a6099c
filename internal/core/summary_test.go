package core

import (
	"reflect"
	"testing"
)

func TestSummarizePartitionLaw(t *testing.T) {
	bills := fixtureBills()
	s := Summarize(bills)

	if got := s.Paid.Cents + s.Pending.Cents + s.Overdue.Cents; got != s.Total.Cents {
		t.Fatalf("partition law violated: %d != %d", got, s.Total.Cents)
	}
}

func TestSummarizeBuckets(t *testing.T) {
	bills := []Bill{
		{ID: "a", Amount: Money{Cents: 85000}, Status: StatusPaid},
		{ID: "b", Amount: Money{Cents: 92000}, Status: StatusPending},
		{ID: "c", Amount: Money{Cents: 500000}, Status: StatusOverdue},
	}
	s := Summarize(bills)

	want := Summary{
		Total:   Money{Cents: 677000},
		Paid:    Money{Cents: 85000},
		Pending: Money{Cents: 92000},
		Overdue: Money{Cents: 500000},
	}
	if s != want {
		t.Fatalf("summary = %+v, want %+v", s, want)
	}
	if s.Outstanding().Cents != 592000 {
		t.Fatalf("outstanding = %d, want 592000", s.Outstanding().Cents)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestRecentSortsByDueDateDescending(t *testing.T) {
	bills := fixtureBills()
	recent := Recent(bills, 3)

	if !reflect.DeepEqual(ids(recent), []string{"bill-003", "bill-004", "bill-001"}) {
		t.Fatalf("recent = %v", ids(recent))
	}
}

func TestRecentStableOnTies(t *testing.T) {
	// bill-003 and bill-004 share a due date; input order must survive.
	bills := fixtureBills()
	recent := Recent(bills, 2)
	if !reflect.DeepEqual(ids(recent), []string{"bill-003", "bill-004"}) {
		t.Fatalf("tie order not preserved: %v", ids(recent))
	}

	// Reversed input flips the tie order too.
	rev := []Bill{bills[3], bills[2]}
	recent = Recent(rev, 2)
	if !reflect.DeepEqual(ids(recent), []string{"bill-004", "bill-003"}) {
		t.Fatalf("tie order not preserved on reversed input: %v", ids(recent))
	}
}

func TestRecentDoesNotMutateInput(t *testing.T) {
	bills := fixtureBills()
	before := ids(bills)
	_ = Recent(bills, 3)
	if !reflect.DeepEqual(ids(bills), before) {
		t.Fatalf("input slice was reordered")
	}
}

func TestRecentShortInput(t *testing.T) {
	bills := fixtureBills()[:2]
	if got := Recent(bills, 3); len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got := Recent(nil, 3); len(got) != 0 {
		t.Fatalf("expected empty result for nil input")
	}
}
