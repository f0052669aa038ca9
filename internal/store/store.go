// Package store persists anonymized visitors and their ping events in a
// relational engine and answers the aggregate queries over them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/visitly-dev/visitly/internal/query"
	"github.com/visitly-dev/visitly/pkg/schema"

	_ "modernc.org/sqlite"
)

// Store wraps the SQL handle. All timestamps persist as unix seconds (UTC);
// calendar-day bucketing shares the same convention, so range filters,
// snapping and grouping never disagree on what a day is.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and runs
// the schema migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db)
}

// New wraps an existing handle and runs the schema migration.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping reports whether the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	q := `
	CREATE TABLE IF NOT EXISTS visitors (
		visitor_id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS pings (
		visitor_id  TEXT NOT NULL REFERENCES visitors(visitor_id),
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pings_visitor ON pings(visitor_id);
	CREATE INDEX IF NOT EXISTS idx_pings_recorded ON pings(recorded_at);`
	_, err := s.db.ExecContext(context.Background(), q)
	return err
}

// RegisterVisitor records id as a known visitor. The insert is atomic and
// conflict-free: a second call with the same identifier is a no-op, also
// under concurrent invocation from independent requests.
func (s *Store) RegisterVisitor(ctx context.Context, id string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visitors (visitor_id, created_at) VALUES (?, ?)
		 ON CONFLICT(visitor_id) DO NOTHING`,
		id, now.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("register visitor: %w", err)
	}
	return nil
}

// LastPing returns the most recent recorded event for id, by timestamp
// ordering. seen is false when the identifier has no events yet.
func (s *Store) LastPing(ctx context.Context, id string) (last time.Time, seen bool, err error) {
	var ts sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		`SELECT MAX(recorded_at) FROM pings WHERE visitor_id = ?`, id,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read last ping: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), true, nil
}

// RecordPing appends one immutable event for id at ts.
func (s *Store) RecordPing(ctx context.Context, id string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pings (visitor_id, recorded_at) VALUES (?, ?)`,
		id, ts.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record ping: %w", err)
	}
	return nil
}

// TotalPings returns the size of the whole event log.
func (s *Store) TotalPings(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pings`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pings: %w", err)
	}
	return n, nil
}

// TotalVisitors returns the number of distinct identifiers ever seen.
func (s *Store) TotalVisitors(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count visitors: %w", err)
	}
	return n, nil
}

// MostActiveVisitor returns the identifier with the highest event count.
// Ties are broken arbitrarily. Returns nil while the event log is empty.
func (s *Store) MostActiveVisitor(ctx context.Context) (*schema.ActiveUser, error) {
	var u schema.ActiveUser
	err := s.db.QueryRowContext(ctx,
		`SELECT visitor_id, COUNT(*) AS ping_count
		 FROM pings
		 GROUP BY visitor_id
		 ORDER BY ping_count DESC
		 LIMIT 1`,
	).Scan(&u.VisitorID, &u.PingCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most active visitor: %w", err)
	}
	return &u, nil
}

// countExpr maps a validated count mode to its SQL fragment. Caller input
// never reaches this map without passing query.ParseCountMode first; an
// unknown key falls back to the default mode rather than being interpolated.
var countExpr = map[query.CountMode]string{
	query.CountTotal:  "COUNT(*)",
	query.CountUnique: "COUNT(DISTINCT visitor_id)",
}

// PingsByDay buckets the event log by calendar day (UTC) over the given
// period, anchored at now. Days without events are omitted; the result is
// ordered ascending by day.
func (s *Store) PingsByDay(ctx context.Context, p query.Period, mode query.CountMode, now time.Time) ([]schema.DayCount, error) {
	expr, ok := countExpr[mode]
	if !ok {
		expr = countExpr[query.DefaultCountMode]
	}

	q := fmt.Sprintf(
		`SELECT date(recorded_at, 'unixepoch') AS day, %s AS n FROM pings`, expr)
	var args []any
	if start, bounded := p.Range(now); bounded {
		q += ` WHERE recorded_at >= ?`
		args = append(args, start.Unix())
	}
	q += ` GROUP BY day ORDER BY day ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pings by day: %w", err)
	}
	defer func() { _ = rows.Close() }()

	buckets := make([]schema.DayCount, 0)
	for rows.Next() {
		var b schema.DayCount
		if err := rows.Scan(&b.Day, &b.Count); err != nil {
			return nil, fmt.Errorf("pings by day: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pings by day: %w", err)
	}
	return buckets, nil
}

// sortExpr and orderExpr map validated enum values to fixed SQL literals.
// These lookups are the only way a sort fragment enters the query text.
var sortExpr = map[query.SortColumn]string{
	query.SortFirstSeen:  "first_seen",
	query.SortTotalPings: "total_pings",
}

var orderExpr = map[query.SortOrder]string{
	query.OrderAsc:  "ASC",
	query.OrderDesc: "DESC",
}

// VisitorActivity computes the per-visitor rollup (first seen, last seen,
// total events), sorted and paginated per p.
func (s *Store) VisitorActivity(ctx context.Context, p query.ActivityParams) (schema.ActivityPage, error) {
	total, err := s.TotalVisitors(ctx)
	if err != nil {
		return schema.ActivityPage{}, err
	}

	col, ok := sortExpr[p.SortBy]
	if !ok {
		col = sortExpr[query.DefaultSortColumn]
	}
	dir, ok := orderExpr[p.Order]
	if !ok {
		dir = orderExpr[query.DefaultSortOrder]
	}
	offset := (p.Page - 1) * p.PageSize

	q := fmt.Sprintf(
		`SELECT visitor_id,
		        MIN(recorded_at) AS first_seen,
		        MAX(recorded_at) AS last_seen,
		        COUNT(*)         AS total_pings
		 FROM pings
		 GROUP BY visitor_id
		 ORDER BY %s %s
		 LIMIT ? OFFSET ?`, col, dir)

	rows, err := s.db.QueryContext(ctx, q, p.PageSize, offset)
	if err != nil {
		return schema.ActivityPage{}, fmt.Errorf("visitor activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]schema.VisitorActivity, 0, p.PageSize)
	for rows.Next() {
		var (
			row         schema.VisitorActivity
			first, last int64
		)
		if err := rows.Scan(&row.VisitorID, &first, &last, &row.TotalPings); err != nil {
			return schema.ActivityPage{}, fmt.Errorf("visitor activity: %w", err)
		}
		row.FirstSeen = time.Unix(first, 0).UTC()
		row.LastSeen = time.Unix(last, 0).UTC()
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return schema.ActivityPage{}, fmt.Errorf("visitor activity: %w", err)
	}

	return schema.ActivityPage{
		Data: items,
		Pagination: schema.Pagination{
			TotalItems:  total,
			CurrentPage: p.Page,
			PageSize:    p.PageSize,
			TotalPages:  (total + int64(p.PageSize) - 1) / int64(p.PageSize),
		},
	}, nil
}
