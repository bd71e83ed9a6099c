package storage

import (
	"context"
	"fmt"

	"bollette/internal/auth"
	"bollette/internal/core"
)

// SeedStore is the surface DemoSeed needs. Both repositories satisfy it.
type SeedStore interface {
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, u *auth.User) error
	CreateBills(ctx context.Context, bills []core.Bill) error
}

// DemoSeed provisions the demo accounts and a small bill history. It is a
// no-op when accounts already exist, so rerunning is safe.
func DemoSeed(ctx context.Context, store SeedStore) error {
	count, err := store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	adminHash, err := auth.HashPassword("admin123")
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	residentHash, err := auth.HashPassword("resident123")
	if err != nil {
		return fmt.Errorf("hash resident password: %w", err)
	}

	users := []*auth.User{
		{
			ID: "admin-1", Email: "admin@society.test", PasswordHash: adminHash,
			DisplayName: "Society Admin", Role: auth.RoleAdmin,
		},
		{
			ID: "user-1", Email: "a101@society.test", PasswordHash: residentHash,
			DisplayName: "Flat A-101", Role: auth.RoleResident, FlatNumber: "A-101",
		},
		{
			ID: "user-2", Email: "b204@society.test", PasswordHash: residentHash,
			DisplayName: "Flat B-204", Role: auth.RoleResident, FlatNumber: "B-204",
		},
	}
	for _, u := range users {
		if err := store.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

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
				PaidDate: core.NewDate(2025, 5, 18), Method: "online", TransactionID: "TXN-1001",
			},
			OwnerID: "user-1", FlatNumber: "A-101",
		},
		{
			ID: "bill-004", Title: "Maintenance - May", Type: core.TypeMaintenance,
			Amount: core.Money{Cents: 120000}, Status: core.StatusOverdue,
			BillDate: core.NewDate(2025, 5, 1), DueDate: core.NewDate(2025, 5, 10),
			OwnerID: "user-1", FlatNumber: "A-101",
		},
		{
			ID: "bill-005", Title: "Annual Sinking Fund", Type: core.TypeOther,
			Amount: core.Money{Cents: 500000}, Status: core.StatusPending,
			BillDate: core.NewDate(2025, 4, 1), DueDate: core.NewDate(2025, 7, 1),
			OwnerID: "user-2", FlatNumber: "B-204",
			Description: "Yearly contribution to the sinking fund",
		},
	}
	if err := store.CreateBills(ctx, bills); err != nil {
		return fmt.Errorf("seed bills: %w", err)
	}

	return nil
}
