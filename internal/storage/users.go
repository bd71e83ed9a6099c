package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bollette/internal/auth"
)

// CreateUser implements auth.UserStorage.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u *auth.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, display_name, role, flat_number, contact_number)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, string(u.Role), u.FlatNumber, u.ContactNumber)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByEmail implements auth.UserStorage.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getUser(ctx, `email = ?`, email)
}

// GetUserByID implements auth.UserStorage.
func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	return r.getUser(ctx, `id = ?`, id)
}

func (r *SQLiteRepository) getUser(ctx context.Context, where string, arg any) (*auth.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, display_name, role, flat_number, contact_number, created_at
		FROM users WHERE `+where, arg)

	var (
		u    auth.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &role,
		&u.FlatNumber, &u.ContactNumber, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = auth.Role(role)
	return &u, nil
}

// ListResidents returns every resident account in creation order. Bill
// generation fans out over this list.
func (r *SQLiteRepository) ListResidents(ctx context.Context) ([]auth.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, password_hash, display_name, role, flat_number, contact_number, created_at
		FROM users WHERE role = 'resident' ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		var (
			u    auth.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &role,
			&u.FlatNumber, &u.ContactNumber, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resident: %w", err)
		}
		u.Role = auth.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers reports how many accounts exist; the seed command uses it to
// avoid re-seeding a populated database.
func (r *SQLiteRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
