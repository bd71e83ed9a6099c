package storage

import (
	"context"
	"fmt"
	"sync"

	"bollette/internal/auth"
	"bollette/internal/core"
)

// MemoryRepository is an in-memory bill and user store with the same
// surface as SQLiteRepository. It backs the "memory" data backend for
// development and tests.
type MemoryRepository struct {
	mu        sync.Mutex
	order     []string
	bills     map[string]core.Bill
	syncState map[string]string // bill id -> pending|synced|error
	vers      map[string]int64
	userOrder []string
	users     map[string]*auth.User
	emails    map[string]string // email -> user id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bills:     map[string]core.Bill{},
		syncState: map[string]string{},
		vers:      map[string]int64{},
		users:     map[string]*auth.User{},
		emails:    map[string]string{},
	}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) ListBillsForPrincipal(_ context.Context, ownerID string) ([]core.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var bills []core.Bill
	for _, id := range r.order {
		b := r.bills[id]
		if ownerID != "" && b.OwnerID != ownerID {
			continue
		}
		bills = append(bills, b)
	}
	return bills, nil
}

func (r *MemoryRepository) GetBill(_ context.Context, id string) (core.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return core.Bill{}, ErrBillNotFound
	}
	return b, nil
}

func (r *MemoryRepository) CreateBills(_ context.Context, bills []core.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range bills {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("validate bill %s: %w", b.ID, err)
		}
		if _, exists := r.bills[b.ID]; exists {
			return fmt.Errorf("insert bill %s: duplicate id", b.ID)
		}
	}
	for _, b := range bills {
		r.order = append(r.order, b.ID)
		r.bills[b.ID] = b
		r.syncState[b.ID] = "pending"
		r.vers[b.ID] = 1
	}
	return nil
}

func (r *MemoryRepository) MarkPaid(_ context.Context, id string, payment core.Payment) (core.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return core.Bill{}, ErrBillNotFound
	}
	if b.Status == core.StatusPaid {
		return core.Bill{}, ErrAlreadyPaid
	}
	b.Status = core.StatusPaid
	p := payment
	b.Payment = &p
	r.bills[id] = b
	r.syncState[id] = "pending"
	r.vers[id]++
	return b, nil
}

func (r *MemoryRepository) MarkOverdue(_ context.Context, asOf core.Date) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asOfDay := asOf.String()
	var affected int64
	for _, id := range r.order {
		b := r.bills[id]
		if b.Status != core.StatusPending {
			continue
		}
		// Calendar-date comparison, same as the SQLite sweep: a bill due
		// today stays pending regardless of asOf's time of day.
		if b.DueDate.String() >= asOfDay {
			continue
		}
		b.Status = core.StatusOverdue
		r.bills[id] = b
		r.syncState[id] = "pending"
		r.vers[id]++
		affected++
	}
	return affected, nil
}

func (r *MemoryRepository) GetPendingSyncBills(_ context.Context, limit int) ([]PendingSyncBill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []PendingSyncBill
	for _, id := range r.order {
		if r.syncState[id] != "pending" {
			continue
		}
		pending = append(pending, PendingSyncBill{ID: id, Version: r.vers[id]})
		if len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (r *MemoryRepository) BillSyncVersion(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bills[id]; !ok {
		return 0, ErrBillNotFound
	}
	return r.vers[id], nil
}

func (r *MemoryRepository) MarkSynced(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncState[id] = "synced"
	return nil
}

func (r *MemoryRepository) MarkSyncError(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncState[id] = "error"
	return nil
}

// CreateUser implements auth.UserStorage.
func (r *MemoryRepository) CreateUser(_ context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.emails[u.Email]; exists {
		return auth.ErrEmailExists
	}
	cp := *u
	r.userOrder = append(r.userOrder, u.ID)
	r.users[u.ID] = &cp
	r.emails[u.Email] = u.ID
	return nil
}

// GetUserByEmail implements auth.UserStorage.
func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.emails[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *r.users[id]
	return &cp, nil
}

// GetUserByID implements auth.UserStorage.
func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) ListResidents(_ context.Context) ([]auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []auth.User
	for _, id := range r.userOrder {
		if u := r.users[id]; u.Role == auth.RoleResident {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *MemoryRepository) CountUsers(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}
