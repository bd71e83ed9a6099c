package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeUserStorage struct {
	byEmail map[string]*User
	byID    map[string]*User
}

func newFakeUserStorage() *fakeUserStorage {
	return &fakeUserStorage{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
	}
}

func (s *fakeUserStorage) CreateUser(_ context.Context, u *User) error {
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
	return nil
}

func (s *fakeUserStorage) GetUserByEmail(_ context.Context, email string) (*User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStorage) GetUserByID(_ context.Context, id string) (*User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store := newFakeUserStorage()
	a := NewPasswordAuthenticator(store)
	ctx := context.Background()

	user, err := a.Register(ctx, "resident@example.com", "John Resident", "A-101", "resident123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != RoleResident {
		t.Fatalf("role = %q, want resident", user.Role)
	}
	if user.PasswordHash == "resident123" {
		t.Fatalf("password stored in clear")
	}

	got, err := a.Authenticate(ctx, "resident@example.com", "resident123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("id = %q, want %q", got.ID, user.ID)
	}

	if _, err := a.Authenticate(ctx, "resident@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := a.Authenticate(ctx, "nobody@example.com", "resident123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterRejectsWeakPasswordAndDuplicates(t *testing.T) {
	store := newFakeUserStorage()
	a := NewPasswordAuthenticator(store)
	ctx := context.Background()

	if _, err := a.Register(ctx, "x@example.com", "X", "B-202", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("err = %v, want ErrWeakPassword", err)
	}

	if _, err := a.Register(ctx, "x@example.com", "X", "B-202", "longenough"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := a.Register(ctx, "x@example.com", "X", "B-202", "longenough"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("0123456789abcdef", time.Hour)
	user := &User{ID: "resident123", Email: "resident@example.com", Role: RoleResident}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	p, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if p.UserID != "resident123" || p.Role != RoleResident {
		t.Fatalf("principal = %+v", p)
	}
}

func TestJWTRejectsTamperedAndExpired(t *testing.T) {
	m := NewJWTManager("0123456789abcdef", time.Hour)
	token, err := m.Generate(&User{ID: "u1", Email: "a@b.c", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := NewJWTManager("fedcba9876543210", time.Hour)
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong key: err = %v, want ErrInvalidToken", err)
	}

	expired := NewJWTManager("0123456789abcdef", -time.Minute)
	tok, err := expired.Generate(&User{ID: "u1", Email: "a@b.c", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.Validate(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: err = %v, want ErrInvalidToken", err)
	}
}

func TestPrincipalOwnerScope(t *testing.T) {
	admin := Principal{UserID: "admin123", Role: RoleAdmin}
	if admin.OwnerScope() != "" {
		t.Fatalf("admin scope = %q, want empty", admin.OwnerScope())
	}
	resident := Principal{UserID: "resident123", Role: RoleResident}
	if resident.OwnerScope() != "resident123" {
		t.Fatalf("resident scope = %q", resident.OwnerScope())
	}
}
