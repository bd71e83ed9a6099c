package core

import "sort"

// Summary partitions a bill collection by status and sums amounts per
// partition. Every bill lands in exactly one bucket, so
// Paid + Pending + Overdue == Total.
type Summary struct {
	Total   Money
	Paid    Money
	Pending Money
	Overdue Money
}

// Summarize computes the status partition sums over the full collection.
// It is not affected by any QuerySpec.
func Summarize(bills []Bill) Summary {
	var s Summary
	for _, b := range bills {
		s.Total.Cents += b.Amount.Cents
		switch b.Status {
		case StatusPaid:
			s.Paid.Cents += b.Amount.Cents
		case StatusPending:
			s.Pending.Cents += b.Amount.Cents
		case StatusOverdue:
			s.Overdue.Cents += b.Amount.Cents
		}
	}
	return s
}

// Outstanding is the balance still owed: pending plus overdue.
func (s Summary) Outstanding() Money {
	return Money{Cents: s.Pending.Cents + s.Overdue.Cents}
}

// Recent returns the n bills with the latest due dates, newest first.
// The sort is stable: ties in due date keep input relative order. The
// input slice is never mutated.
func Recent(bills []Bill, n int) []Bill {
	out := make([]Bill, len(bills))
	copy(out, bills)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.After(out[j].DueDate.Time)
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
