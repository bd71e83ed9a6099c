package ledger

import (
	"context"

	"bollette/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// BillWriter appends one bill row to the society ledger and returns a
	// reference to the written row.
	BillWriter interface {
		Append(ctx context.Context, b core.Bill) (rowRef string, err error)
	}

	// BillReader lists the bill IDs already present in the ledger for a
	// given year. Used to reconcile the local store against the export.
	BillReader interface {
		ListBillIDs(ctx context.Context, year int) ([]string, error)
	}
)
