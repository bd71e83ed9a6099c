package memory

import (
	"context"
	"fmt"
	"sync"

	"bollette/internal/core"
)

// Store is an in-memory ledger sink used for development and tests.
type Store struct {
	mu   sync.Mutex
	rows []core.Bill
}

func New() *Store {
	return &Store{}
}

// Append stores the bill and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, b core.Bill) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, b)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// ListBillIDs returns IDs of appended bills whose bill date falls in the year.
func (s *Store) ListBillIDs(_ context.Context, year int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, b := range s.rows {
		if b.BillDate.Year() != year {
			continue
		}
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b.ID)
	}
	return out, nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Bill(nil), s.rows...)
}
