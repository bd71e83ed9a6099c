package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bollette/internal/auth"
	"bollette/internal/billing"
	"bollette/internal/core"
	"bollette/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		// Internal details stay in the logs.
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrBillNotFound), errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAlreadyPaid), errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, billing.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, billing.ErrNoResidents),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyTitle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type paymentDTO struct {
	PaidDate      string `json:"paid_date"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
}

type billDTO struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Type        string      `json:"type"`
	AmountCents int64       `json:"amount_cents"`
	Amount      string      `json:"amount"`
	Status      string      `json:"status"`
	BillDate    string      `json:"bill_date"`
	DueDate     string      `json:"due_date"`
	Payment     *paymentDTO `json:"payment,omitempty"`
	OwnerID     string      `json:"owner_id"`
	FlatNumber  string      `json:"flat_number"`
	Description string      `json:"description,omitempty"`
}

func toBillDTO(b core.Bill) billDTO {
	dto := billDTO{
		ID:          b.ID,
		Title:       b.Title,
		Type:        string(b.Type),
		AmountCents: b.Amount.Cents,
		Amount:      b.Amount.Display(),
		Status:      string(b.Status),
		BillDate:    b.BillDate.String(),
		DueDate:     b.DueDate.String(),
		OwnerID:     b.OwnerID,
		FlatNumber:  b.FlatNumber,
		Description: b.Description,
	}
	if b.Payment != nil {
		dto.Payment = &paymentDTO{
			PaidDate:      b.Payment.PaidDate.String(),
			Method:        b.Payment.Method,
			TransactionID: b.Payment.TransactionID,
		}
	}
	return dto
}

func toBillDTOs(bills []core.Bill) []billDTO {
	out := make([]billDTO, len(bills))
	for i, b := range bills {
		out[i] = toBillDTO(b)
	}
	return out
}

type queryResultDTO struct {
	Items            []billDTO `json:"items"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	Count            int       `json:"count"`
}

func toQueryResultDTO(res core.QueryResult) queryResultDTO {
	return queryResultDTO{
		Items:            toBillDTOs(res.Items),
		TotalAmountCents: res.TotalAmount.Cents,
		Count:            res.Count,
	}
}

type summaryDTO struct {
	TotalCents       int64 `json:"total_cents"`
	PaidCents        int64 `json:"paid_cents"`
	PendingCents     int64 `json:"pending_cents"`
	OverdueCents     int64 `json:"overdue_cents"`
	OutstandingCents int64 `json:"outstanding_cents"`
}

func toSummaryDTO(s core.Summary) summaryDTO {
	return summaryDTO{
		TotalCents:       s.Total.Cents,
		PaidCents:        s.Paid.Cents,
		PendingCents:     s.Pending.Cents,
		OverdueCents:     s.Overdue.Cents,
		OutstandingCents: s.Outstanding().Cents,
	}
}

type statsDTO struct {
	TotalBills          int     `json:"total_bills"`
	PaidCount           int     `json:"paid_count"`
	PendingCount        int     `json:"pending_count"`
	OverdueCount        int     `json:"overdue_count"`
	TotalBilledCents    int64   `json:"total_billed_cents"`
	TotalCollectedCents int64   `json:"total_collected_cents"`
	OutstandingCents    int64   `json:"outstanding_cents"`
	CollectionRate      float64 `json:"collection_rate"`
}

func toStatsDTO(s billing.Stats) statsDTO {
	return statsDTO{
		TotalBills:          s.TotalBills,
		PaidCount:           s.PaidCount,
		PendingCount:        s.PendingCount,
		OverdueCount:        s.OverdueCount,
		TotalBilledCents:    s.TotalBilled.Cents,
		TotalCollectedCents: s.TotalCollected.Cents,
		OutstandingCents:    s.Outstanding.Cents,
		CollectionRate:      s.CollectionRate,
	}
}

type userDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	FlatNumber  string `json:"flat_number,omitempty"`
}

func toUserDTO(u *auth.User) userDTO {
	return userDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		FlatNumber:  u.FlatNumber,
	}
}
