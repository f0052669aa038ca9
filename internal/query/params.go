// Package query normalizes caller-supplied query parameters into the closed
// set of values the storage layer accepts. Every function here is total:
// absent, malformed or out-of-range input resolves to a documented default,
// never to an error. Normalization is the only path by which request values
// may reach SQL construction.
package query

import (
	"strconv"
	"time"
)

// Period is a relative time window token.
type Period string

const (
	PeriodDay      Period = "24h"
	PeriodWeek     Period = "7d"
	PeriodMonth    Period = "30d"
	PeriodHalfYear Period = "6month"
	PeriodAll      Period = "all"
)

// DefaultPeriod is substituted for unrecognized period tokens. Deliberately
// not PeriodAll: a typo must not widen the window to the full event log.
const DefaultPeriod = PeriodMonth

// CountMode selects what a day bucket counts.
type CountMode string

const (
	// CountTotal counts raw events per day.
	CountTotal CountMode = "total"
	// CountUnique counts distinct visitors per day.
	CountUnique CountMode = "unique"
)

// DefaultCountMode is substituted for unrecognized count modes.
const DefaultCountMode = CountTotal

// SortColumn names a column of the unique-activity rollup. Only the values
// enumerated below ever reach query construction.
type SortColumn string

// SortOrder is the requested sort direction.
type SortOrder string

const (
	SortFirstSeen  SortColumn = "first_seen"
	SortTotalPings SortColumn = "total_pings"

	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

const (
	DefaultSortColumn = SortFirstSeen
	DefaultSortOrder  = OrderDesc

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ParsePeriod maps raw onto a known period token, substituting
// DefaultPeriod for anything outside the enumerated set.
func ParsePeriod(raw string) Period {
	switch p := Period(raw); p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodHalfYear, PeriodAll:
		return p
	default:
		return DefaultPeriod
	}
}

// ParseCountMode maps raw onto a known count mode, substituting
// DefaultCountMode for anything else.
func ParseCountMode(raw string) CountMode {
	switch m := CountMode(raw); m {
	case CountTotal, CountUnique:
		return m
	default:
		return DefaultCountMode
	}
}

// ParseSortColumn maps raw onto an allow-listed sort column. Any value
// outside the allow list, including hostile input, resolves to
// DefaultSortColumn.
func ParseSortColumn(raw string) SortColumn {
	switch c := SortColumn(raw); c {
	case SortFirstSeen, SortTotalPings:
		return c
	default:
		return DefaultSortColumn
	}
}

// ParseSortOrder maps raw onto asc or desc, substituting DefaultSortOrder
// for anything else.
func ParseSortOrder(raw string) SortOrder {
	switch o := SortOrder(raw); o {
	case OrderAsc, OrderDesc:
		return o
	default:
		return DefaultSortOrder
	}
}

// ParsePage returns the requested page number, clamped to >= 1. Malformed
// input resolves to page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParsePageSize returns the requested page size clamped to [1, MaxPageSize].
// Malformed or absent input resolves to DefaultPageSize.
func ParsePageSize(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultPageSize
	}
	if n < 1 {
		return 1
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// ActivityParams are the fully normalized inputs for the unique-activity
// rollup.
type ActivityParams struct {
	Page     int
	PageSize int
	SortBy   SortColumn
	Order    SortOrder
}

// ResolveActivityParams normalizes the four raw query values in one step.
func ResolveActivityParams(page, pageSize, sortBy, sortOrder string) ActivityParams {
	return ActivityParams{
		Page:     ParsePage(page),
		PageSize: ParsePageSize(pageSize),
		SortBy:   ParseSortColumn(sortBy),
		Order:    ParseSortOrder(sortOrder),
	}
}

// Range resolves the period to its inclusive start bound anchored at now.
// bounded is false for PeriodAll, meaning no range filter applies.
//
// PeriodDay is a rolling 24-hour window with no day-boundary snapping; the
// calendar periods subtract their span and then snap to 00:00:00 UTC of
// that day.
func (p Period) Range(now time.Time) (start time.Time, bounded bool) {
	now = now.UTC()
	switch p {
	case PeriodDay:
		return now.Add(-24 * time.Hour), true
	case PeriodWeek:
		return startOfDay(now.AddDate(0, 0, -7)), true
	case PeriodMonth:
		return startOfDay(now.AddDate(0, 0, -30)), true
	case PeriodHalfYear:
		return startOfDay(now.AddDate(0, -6, 0)), true
	case PeriodAll:
		return time.Time{}, false
	default:
		// Unknown tokens are normalized away by ParsePeriod before they
		// reach here; if one slips through anyway it gets the default
		// window, not the unbounded one.
		return DefaultPeriod.Range(now)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
