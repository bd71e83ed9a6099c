package http

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"bollette/internal/core"
)

// parseQuerySpec maps list query parameters onto a query spec. Absent
// parameters keep their zero value, which the engine treats as "no filter".
func parseQuerySpec(query url.Values) core.QuerySpec {
	return core.QuerySpec{
		SearchText: query.Get("search"),
		Status:     core.StatusFilter(strings.TrimSpace(query.Get("status"))),
		Type:       core.TypeFilter(strings.TrimSpace(query.Get("type"))),
		DateRange:  core.DateRange(strings.TrimSpace(query.Get("range"))),
	}
}

// parseAsOf resolves the reference instant for relative date ranges. An
// explicit as_of=YYYY-MM-DD parameter overrides the server clock, which
// keeps list responses reproducible for clients that need them.
func parseAsOf(query url.Values, now time.Time) time.Time {
	v := strings.TrimSpace(query.Get("as_of"))
	if v == "" {
		return now
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return now
	}
	return d.Time
}

// parseRecentN bounds the recent-bills count: default 3, at most 20.
func parseRecentN(query url.Values) int {
	n := 3
	if v := strings.TrimSpace(query.Get("n")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	if n > 20 {
		n = 20
	}
	return n
}
