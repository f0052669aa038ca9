package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitly-dev/visitly/internal/query"
	"github.com/visitly-dev/visitly/internal/store"
	"github.com/visitly-dev/visitly/pkg/schema"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)

	s, err := store.New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func at(day string, hour int) time.Time {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour) * time.Hour)
}

func TestRegisterVisitorIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := at("2024-01-01", 10)

	require.NoError(t, s.RegisterVisitor(ctx, "id-1", now))
	require.NoError(t, s.RegisterVisitor(ctx, "id-1", now.Add(time.Hour)))

	n, err := s.TotalVisitors(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLastPing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, seen, err := s.LastPing(ctx, "id-1")
	require.NoError(t, err)
	assert.False(t, seen, "identifier without events must report not seen")

	require.NoError(t, s.RegisterVisitor(ctx, "id-1", at("2024-01-01", 9)))
	require.NoError(t, s.RecordPing(ctx, "id-1", at("2024-01-01", 9)))
	require.NoError(t, s.RecordPing(ctx, "id-1", at("2024-01-01", 12)))

	last, seen, err := s.LastPing(ctx, "id-1")
	require.NoError(t, err)
	require.True(t, seen)
	assert.Equal(t, at("2024-01-01", 12), last)
}

func TestSummaryQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	top, err := s.MostActiveVisitor(ctx)
	require.NoError(t, err)
	assert.Nil(t, top, "empty log has no most-active visitor")

	seed := map[string][]time.Time{
		"id-a": {at("2024-01-01", 8), at("2024-01-02", 8), at("2024-01-03", 8)},
		"id-b": {at("2024-01-01", 9)},
	}
	for id, times := range seed {
		require.NoError(t, s.RegisterVisitor(ctx, id, times[0]))
		for _, ts := range times {
			require.NoError(t, s.RecordPing(ctx, id, ts))
		}
	}

	total, err := s.TotalPings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	unique, err := s.TotalVisitors(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unique)

	top, err = s.MostActiveVisitor(ctx)
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, "id-a", top.VisitorID)
	assert.Equal(t, int64(3), top.PingCount)
}

func TestPingsByDayCounting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Three visitors each ping once on day one; one of them pings twice on
	// day two.
	for _, id := range []string{"id-a", "id-b", "id-c"} {
		require.NoError(t, s.RegisterVisitor(ctx, id, at("2024-01-01", 8)))
		require.NoError(t, s.RecordPing(ctx, id, at("2024-01-01", 8)))
	}
	require.NoError(t, s.RecordPing(ctx, "id-a", at("2024-01-02", 8)))
	require.NoError(t, s.RecordPing(ctx, "id-a", at("2024-01-02", 10)))

	now := at("2024-01-03", 0)

	uniq, err := s.PingsByDay(ctx, query.PeriodAll, query.CountUnique, now)
	require.NoError(t, err)
	assert.Equal(t, []schema.DayCount{
		{Day: "2024-01-01", Count: 3},
		{Day: "2024-01-02", Count: 1},
	}, uniq)

	total, err := s.PingsByDay(ctx, query.PeriodAll, query.CountTotal, now)
	require.NoError(t, err)
	assert.Equal(t, []schema.DayCount{
		{Day: "2024-01-01", Count: 3},
		{Day: "2024-01-02", Count: 2},
	}, total)
}

func TestPingsByDayPeriodFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterVisitor(ctx, "id-a", at("2024-01-01", 8)))
	require.NoError(t, s.RecordPing(ctx, "id-a", at("2024-01-01", 8)))  // outside 24h window
	require.NoError(t, s.RecordPing(ctx, "id-a", at("2024-01-10", 6)))  // inside
	require.NoError(t, s.RecordPing(ctx, "id-a", at("2024-01-10", 18))) // inside

	now := at("2024-01-10", 20)

	buckets, err := s.PingsByDay(ctx, query.PeriodDay, query.CountTotal, now)
	require.NoError(t, err)
	assert.Equal(t, []schema.DayCount{{Day: "2024-01-10", Count: 2}}, buckets)

	all, err := s.PingsByDay(ctx, query.PeriodAll, query.CountTotal, now)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestVisitorActivityPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// id-a: 3 pings, first seen Jan 1. id-b: 1 ping Jan 2. id-c: 2 pings,
	// first seen Jan 3.
	seed := map[string][]time.Time{
		"id-a": {at("2024-01-01", 8), at("2024-01-05", 8), at("2024-01-06", 8)},
		"id-b": {at("2024-01-02", 8)},
		"id-c": {at("2024-01-03", 8), at("2024-01-04", 8)},
	}
	for id, times := range seed {
		require.NoError(t, s.RegisterVisitor(ctx, id, times[0]))
		for _, ts := range times {
			require.NoError(t, s.RecordPing(ctx, id, ts))
		}
	}

	page, err := s.VisitorActivity(ctx, query.ActivityParams{
		Page: 1, PageSize: 2,
		SortBy: query.SortTotalPings, Order: query.OrderDesc,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), page.Pagination.TotalItems)
	assert.Equal(t, int64(2), page.Pagination.TotalPages)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 2, page.Pagination.PageSize)

	require.Len(t, page.Data, 2)
	assert.Equal(t, "id-a", page.Data[0].VisitorID)
	assert.Equal(t, int64(3), page.Data[0].TotalPings)
	assert.Equal(t, at("2024-01-01", 8), page.Data[0].FirstSeen)
	assert.Equal(t, at("2024-01-06", 8), page.Data[0].LastSeen)
	assert.Equal(t, "id-c", page.Data[1].VisitorID)

	second, err := s.VisitorActivity(ctx, query.ActivityParams{
		Page: 2, PageSize: 2,
		SortBy: query.SortTotalPings, Order: query.OrderDesc,
	})
	require.NoError(t, err)
	require.Len(t, second.Data, 1)
	assert.Equal(t, "id-b", second.Data[0].VisitorID)
	assert.Equal(t, int64(3), second.Pagination.TotalItems)
}

func TestVisitorActivitySortByFirstSeen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"id-early", "id-mid", "id-late"} {
		ts := at("2024-01-01", 8).AddDate(0, 0, i)
		require.NoError(t, s.RegisterVisitor(ctx, id, ts))
		require.NoError(t, s.RecordPing(ctx, id, ts))
	}

	page, err := s.VisitorActivity(ctx, query.ActivityParams{
		Page: 1, PageSize: 10,
		SortBy: query.SortFirstSeen, Order: query.OrderAsc,
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.Equal(t, "id-early", page.Data[0].VisitorID)
	assert.Equal(t, "id-late", page.Data[2].VisitorID)
	assert.Equal(t, int64(1), page.Pagination.TotalPages)
}

func TestVisitorActivityEmptyLog(t *testing.T) {
	s := newTestStore(t)

	page, err := s.VisitorActivity(context.Background(), query.ActivityParams{
		Page: 1, PageSize: 10,
		SortBy: query.DefaultSortColumn, Order: query.DefaultSortOrder,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data, "data must serialize as [] rather than null")
	assert.Equal(t, int64(0), page.Pagination.TotalItems)
	assert.Equal(t, int64(0), page.Pagination.TotalPages)
}
