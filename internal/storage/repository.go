package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bollette/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrBillNotFound is the distinct "entity absent" outcome for single
	// bill lookups.
	ErrBillNotFound = errors.New("bill not found")

	// ErrAlreadyPaid guards the one-way pending/overdue -> paid transition.
	ErrAlreadyPaid = errors.New("bill already paid")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const billColumns = `id, title, type, amount_cents, status, bill_date, due_date,
	paid_date, payment_method, transaction_id, owner_id, flat_number, description`

// ListBillsForPrincipal returns all bills when ownerID is empty (the
// administrator convention) or only the bills owned by that principal.
// Rows come back in insertion order so the query engine sees a stable
// input sequence.
func (r *SQLiteRepository) ListBillsForPrincipal(ctx context.Context, ownerID string) ([]core.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills ORDER BY created_at, id`
	args := []any{}
	if ownerID != "" {
		query = `SELECT ` + billColumns + ` FROM bills WHERE owner_id = ? ORDER BY created_at, id`
		args = append(args, ownerID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}

	return bills, nil
}

// GetBill retrieves a single bill by ID. Absence is ErrBillNotFound, not a
// transport failure.
func (r *SQLiteRepository) GetBill(ctx context.Context, id string) (core.Bill, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, ErrBillNotFound
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill %s: %w", id, err)
	}
	return bill, nil
}

// CreateBills inserts a batch of new bills inside one transaction. Every
// inserted bill starts with sync_status pending so the ledger worker picks
// it up.
func (r *SQLiteRepository) CreateBills(ctx context.Context, bills []core.Bill) error {
	if len(bills) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bills (id, title, type, amount_cents, status, bill_date, due_date,
			paid_date, payment_method, transaction_id, owner_id, flat_number, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bills {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("validate bill %s: %w", b.ID, err)
		}
		var paidDate, method, txnID any
		if b.Payment != nil {
			paidDate = b.Payment.PaidDate.String()
			method = b.Payment.Method
			txnID = b.Payment.TransactionID
		}
		if _, err := stmt.ExecContext(ctx,
			b.ID, b.Title, string(b.Type), b.Amount.Cents, string(b.Status),
			b.BillDate.String(), b.DueDate.String(),
			paidDate, method, txnID,
			b.OwnerID, b.FlatNumber, b.Description,
		); err != nil {
			return fmt.Errorf("insert bill %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}

	slog.InfoContext(ctx, "Bills saved to SQLite", "count", len(bills))
	return nil
}

// MarkPaid transitions a pending or overdue bill to paid, recording the
// payment details and bumping the sync version. Paying a paid bill is
// rejected with ErrAlreadyPaid.
func (r *SQLiteRepository) MarkPaid(ctx context.Context, id string, payment core.Payment) (core.Bill, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bills
		SET status = 'paid',
		    paid_date = ?,
		    payment_method = ?,
		    transaction_id = ?,
		    sync_status = 'pending',
		    version = version + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status != 'paid'`,
		payment.PaidDate.String(), payment.Method, payment.TransactionID, id)
	if err != nil {
		return core.Bill{}, fmt.Errorf("mark bill paid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.Bill{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish absent from already paid.
		if _, err := r.GetBill(ctx, id); errors.Is(err, ErrBillNotFound) {
			return core.Bill{}, ErrBillNotFound
		}
		return core.Bill{}, ErrAlreadyPaid
	}

	bill, err := r.GetBill(ctx, id)
	if err != nil {
		return core.Bill{}, err
	}

	slog.InfoContext(ctx, "Bill marked as paid",
		"bill_id", id,
		"payment_method", payment.Method,
		"transaction_id", payment.TransactionID)
	return bill, nil
}

// MarkOverdue flips pending bills whose due date has passed to overdue and
// returns how many were affected. The boundary is exclusive: a bill due
// today is not yet overdue.
func (r *SQLiteRepository) MarkOverdue(ctx context.Context, asOf core.Date) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bills
		SET status = 'overdue',
		    sync_status = 'pending',
		    version = version + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE status = 'pending' AND due_date < ?`, asOf.String())
	if err != nil {
		return 0, fmt.Errorf("mark bills overdue: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		slog.InfoContext(ctx, "Bills marked overdue", "count", affected, "as_of", asOf.String())
	}
	return affected, nil
}

// PendingSyncBill is the minimal record the ledger worker needs to queue a
// sync for one bill.
type PendingSyncBill struct {
	ID      string
	Version int64
}

// GetPendingSyncBills returns bills that still need exporting to the ledger.
func (r *SQLiteRepository) GetPendingSyncBills(ctx context.Context, limit int) ([]PendingSyncBill, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version FROM bills
		WHERE sync_status = 'pending'
		ORDER BY updated_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync bills: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncBill
	for rows.Next() {
		var p PendingSyncBill
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending sync bill: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// BillSyncVersion returns the bill's current sync version, bumped on every
// state transition.
func (r *SQLiteRepository) BillSyncVersion(ctx context.Context, id string) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx, `SELECT version FROM bills WHERE id = ?`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBillNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get bill version: %w", err)
	}
	return version, nil
}

// MarkSynced marks a bill as successfully exported to the ledger.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE bills SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark bill synced: %w", err)
	}
	slog.InfoContext(ctx, "Bill marked as synced", "bill_id", id)
	return nil
}

// MarkSyncError marks a bill as having failed its ledger export.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE bills SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark bill sync error: %w", err)
	}
	slog.WarnContext(ctx, "Bill marked with sync error", "bill_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (core.Bill, error) {
	var (
		b        core.Bill
		billType string
		status   string
		billDate string
		dueDate  string
		paidDate sql.NullString
		method   sql.NullString
		txnID    sql.NullString
	)
	err := row.Scan(&b.ID, &b.Title, &billType, &b.Amount.Cents, &status,
		&billDate, &dueDate, &paidDate, &method, &txnID,
		&b.OwnerID, &b.FlatNumber, &b.Description)
	if err != nil {
		return core.Bill{}, err
	}

	b.Type = core.BillType(billType)
	b.Status = core.BillStatus(status)
	if b.BillDate, err = core.ParseDate(billDate); err != nil {
		return core.Bill{}, fmt.Errorf("bill %s: bad bill_date %q", b.ID, billDate)
	}
	if b.DueDate, err = core.ParseDate(dueDate); err != nil {
		return core.Bill{}, fmt.Errorf("bill %s: bad due_date %q", b.ID, dueDate)
	}
	if b.Status == core.StatusPaid && paidDate.Valid {
		pd, err := core.ParseDate(paidDate.String)
		if err != nil {
			return core.Bill{}, fmt.Errorf("bill %s: bad paid_date %q", b.ID, paidDate.String)
		}
		b.Payment = &core.Payment{
			PaidDate:      pd,
			Method:        method.String,
			TransactionID: txnID.String,
		}
	}
	return b, nil
}
