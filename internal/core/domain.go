package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPaid    BillStatus = "paid"
	StatusPending BillStatus = "pending"
	StatusOverdue BillStatus = "overdue"
)

const (
	TypeWater       BillType = "water"
	TypeMaintenance BillType = "maintenance"
	TypeElectricity BillType = "electricity"
	TypeOther       BillType = "other"
)

type (
	// BillStatus is the closed set of bill lifecycle states. Exactly one
	// status holds at any time.
	BillStatus string

	// BillType is the closed set of charge categories.
	BillType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Payment records how a bill was settled. It is present if and only
	// if the bill status is paid.
	Payment struct {
		PaidDate      Date
		Method        string
		TransactionID string
	}

	Bill struct {
		ID          string
		Title       string
		Type        BillType
		Amount      Money
		Status      BillStatus
		BillDate    Date
		DueDate     Date
		Payment     *Payment
		OwnerID     string
		FlatNumber  string
		Description string
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidStatus   = errors.New("invalid bill status")
	ErrInvalidType     = errors.New("invalid bill type")
	ErrEmptyTitle      = errors.New("empty bill title")
	ErrEmptyOwner      = errors.New("empty bill owner")
	ErrDueBeforeBilled = errors.New("due date precedes bill date")
	ErrPaymentMismatch = errors.New("payment details must be present exactly when status is paid")
)

// Valid reports whether the status is a member of the closed set.
func (s BillStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusPending, StatusOverdue:
		return true
	}
	return false
}

// Valid reports whether the type is a member of the closed set.
func (t BillType) Valid() bool {
	switch t {
	case TypeWater, TypeMaintenance, TypeElectricity, TypeOther:
		return true
	}
	return false
}

// NewDate creates a Date at midnight UTC for year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date in YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("empty bill id")
	}
	if strings.TrimSpace(b.Title) == "" {
		return ErrEmptyTitle
	}
	if len(b.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if !b.Type.Valid() {
		return ErrInvalidType
	}
	if !b.Status.Valid() {
		return ErrInvalidStatus
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := b.BillDate.Validate(); err != nil {
		return err
	}
	if err := b.DueDate.Validate(); err != nil {
		return err
	}
	if b.DueDate.Before(b.BillDate.Time) {
		return ErrDueBeforeBilled
	}
	if (b.Status == StatusPaid) != (b.Payment != nil) {
		return ErrPaymentMismatch
	}
	if b.Payment != nil {
		if err := b.Payment.PaidDate.Validate(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(b.OwnerID) == "" {
		return ErrEmptyOwner
	}
	return nil
}
