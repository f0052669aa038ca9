// Package schema defines the JSON payload types shared by the Visitly API,
// SDK and CLI.
package schema

import "time"

// PingResult reports the throttle decision for a single ping attempt.
// Success false is a normal outcome, not an error.
type PingResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ActiveUser pairs a visitor identifier with its event count.
type ActiveUser struct {
	VisitorID string `json:"visitorId"`
	PingCount int64  `json:"pingCount"`
}

// Summary is the aggregate view over the whole event log. MostActiveUser is
// nil while the log is empty; ties are broken arbitrarily.
type Summary struct {
	TotalPings       int64       `json:"totalPings"`
	TotalUniqueUsers int64       `json:"totalUniqueUsers"`
	MostActiveUser   *ActiveUser `json:"mostActiveUser"`
}

// DayCount is one calendar-day bucket, formatted YYYY-MM-DD in UTC. Days
// with zero events are omitted from series, never zero-filled.
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// VisitorActivity is the per-visitor rollup row.
type VisitorActivity struct {
	VisitorID  string    `json:"visitorId"`
	FirstSeen  time.Time `json:"firstSeen"`
	LastSeen   time.Time `json:"lastSeen"`
	TotalPings int64     `json:"totalPings"`
}

// Pagination describes the page of rows it accompanies. TotalItems counts
// every distinct visitor ever seen, independent of the requested page.
type Pagination struct {
	TotalItems  int64 `json:"totalItems"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int64 `json:"totalPages"`
}

// ActivityPage is one page of visitor rollups plus its pagination envelope.
type ActivityPage struct {
	Data       []VisitorActivity `json:"data"`
	Pagination Pagination        `json:"pagination"`
}
