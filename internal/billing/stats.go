package billing

import (
	"context"
	"fmt"

	"bollette/internal/core"
)

// Stats is the admin dashboard rollup across every bill in the society.
type Stats struct {
	TotalBills   int
	PaidCount    int
	PendingCount int
	OverdueCount int

	TotalBilled    core.Money
	TotalCollected core.Money
	Outstanding    core.Money

	// CollectionRate is collected over billed, in [0, 1]. Zero when
	// nothing has been billed yet.
	CollectionRate float64
}

// ComputeStats derives the dashboard rollup from the full bill list.
func ComputeStats(bills []core.Bill) Stats {
	summary := core.Summarize(bills)

	stats := Stats{
		TotalBills:     len(bills),
		TotalBilled:    summary.Total,
		TotalCollected: summary.Paid,
		Outstanding:    summary.Outstanding(),
	}
	for _, b := range bills {
		switch b.Status {
		case core.StatusPaid:
			stats.PaidCount++
		case core.StatusPending:
			stats.PendingCount++
		case core.StatusOverdue:
			stats.OverdueCount++
		}
	}
	if summary.Total.Cents > 0 {
		stats.CollectionRate = float64(summary.Paid.Cents) / float64(summary.Total.Cents)
	}
	return stats
}

// Stats computes the society-wide rollup. Only the admin surface calls it.
func (s *BillService) Stats(ctx context.Context) (Stats, error) {
	bills, err := s.repo.ListBillsForPrincipal(ctx, "")
	if err != nil {
		return Stats{}, fmt.Errorf("list bills: %w", err)
	}
	return ComputeStats(bills), nil
}
