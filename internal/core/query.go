package core

import (
	"strings"
	"time"
)

const (
	// FilterAll disables a structured filter dimension.
	FilterAll = "all"

	RangeAll         DateRange = "all"
	RangeLastMonth   DateRange = "lastMonth"
	RangeLast3Months DateRange = "last3Months"
	RangeLast6Months DateRange = "last6Months"
	RangeThisYear    DateRange = "thisYear"
)

type (
	// DateRange is a named relative time window resolved against a
	// caller-supplied reference instant.
	DateRange string

	// StatusFilter is either FilterAll or one concrete BillStatus.
	StatusFilter string

	// TypeFilter is either FilterAll or one concrete BillType.
	TypeFilter string

	// QuerySpec carries the user-selected search and filter criteria for
	// one Apply call. The zero value of every field means "no filter".
	QuerySpec struct {
		SearchText string
		Status     StatusFilter
		Type       TypeFilter
		DateRange  DateRange
	}

	// QueryResult is the filtered bill list plus its derived totals. It
	// is recomputed on every Apply call and never mutated in place.
	QueryResult struct {
		Items       []Bill
		TotalAmount Money
		Count       int
	}
)

// DefaultQuerySpec returns the spec used when a screen opens: everything
// passes.
func DefaultQuerySpec() QuerySpec {
	return QuerySpec{
		SearchText: "",
		Status:     FilterAll,
		Type:       FilterAll,
		DateRange:  RangeAll,
	}
}

func (f StatusFilter) Valid() bool {
	return f == "" || f == FilterAll || BillStatus(f).Valid()
}

func (f TypeFilter) Valid() bool {
	return f == "" || f == FilterAll || BillType(f).Valid()
}

func (r DateRange) Valid() bool {
	switch r {
	case "", RangeAll, RangeLastMonth, RangeLast3Months, RangeLast6Months, RangeThisYear:
		return true
	}
	return false
}

func (s QuerySpec) Validate() error {
	if !s.Status.Valid() {
		return ErrInvalidStatus
	}
	if !s.Type.Valid() {
		return ErrInvalidType
	}
	if !s.DateRange.Valid() {
		return ErrInvalidDate
	}
	return nil
}

// StartDate resolves the inclusive lower BillDate bound for the window
// against the reference instant. The second return is false when the range
// imposes no bound. Month arithmetic rolls over year boundaries: lastMonth
// at a January reference starts on December 1 of the previous year.
//
// The bound is built in UTC from the reference's calendar components so it
// lines up with BillDate, which is always a UTC midnight. Using the
// reference's own location would shift the boundary by the zone offset and
// drop bills dated on the bucket's first day.
func (r DateRange) StartDate(now time.Time) (time.Time, bool) {
	year, month := now.Year(), now.Month()
	switch r {
	case RangeLastMonth:
		return time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC), true
	case RangeLast3Months:
		return time.Date(year, month-3, 1, 0, 0, 0, 0, time.UTC), true
	case RangeLast6Months:
		return time.Date(year, month-6, 1, 0, 0, 0, 0, time.UTC), true
	case RangeThisYear:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	default:
		return time.Time{}, false
	}
}

// Apply derives the filtered, ordered result set and its aggregates from a
// bill collection and a query spec. It is a pure function of its inputs:
// the input slice is never mutated, items preserve input relative order,
// and identical inputs always yield structurally equal results.
//
// Filtering is the conjunction of four independent predicates: free-text
// search (case-insensitive substring on title or id), status, type, and a
// date-range window on BillDate resolved against the supplied reference
// instant.
func Apply(bills []Bill, spec QuerySpec, now time.Time) QueryResult {
	search := strings.ToLower(strings.TrimSpace(spec.SearchText))
	filterStatus := spec.Status != "" && spec.Status != FilterAll
	filterType := spec.Type != "" && spec.Type != FilterAll
	start, bounded := spec.DateRange.StartDate(now)

	items := make([]Bill, 0, len(bills))
	var total int64
	for _, b := range bills {
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Title), search) &&
			!strings.Contains(strings.ToLower(b.ID), search) {
			continue
		}
		if filterStatus && b.Status != BillStatus(spec.Status) {
			continue
		}
		if filterType && b.Type != BillType(spec.Type) {
			continue
		}
		if bounded && b.BillDate.Before(start) {
			continue
		}
		items = append(items, b)
		total += b.Amount.Cents
	}

	return QueryResult{
		Items:       items,
		TotalAmount: Money{Cents: total},
		Count:       len(items),
	}
}
