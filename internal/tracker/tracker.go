// Package tracker implements the ping pipeline: anonymize the caller,
// register the identifier, and decide whether a new event may be recorded.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/visitly-dev/visitly/internal/clock"
	"github.com/visitly-dev/visitly/internal/identity"
	"github.com/visitly-dev/visitly/internal/store"
	"github.com/visitly-dev/visitly/pkg/schema"
)

// DefaultMinPingInterval is the minimum spacing between two stored events
// for the same visitor. Elapsed time is compared as a time.Duration
// everywhere; there is exactly one threshold and one unit.
const DefaultMinPingInterval = 30 * time.Minute

// Tracker runs the ping state machine per identifier: a never-seen
// identifier always records; a seen one records only when at least
// minInterval has elapsed since its latest stored event.
type Tracker struct {
	hasher      *identity.Hasher
	store       *store.Store
	clock       clock.Clock
	minInterval time.Duration
}

// New builds a Tracker. A non-positive minInterval falls back to
// DefaultMinPingInterval.
func New(h *identity.Hasher, s *store.Store, c clock.Clock, minInterval time.Duration) *Tracker {
	if minInterval <= 0 {
		minInterval = DefaultMinPingInterval
	}
	return &Tracker{hasher: h, store: s, clock: c, minInterval: minInterval}
}

// MinInterval returns the configured throttle interval.
func (t *Tracker) MinInterval() time.Duration { return t.minInterval }

// Ping runs the full pipeline for one visit from rawAddr. The returned
// result carries the throttle decision; err is non-nil only for storage
// failures. Two near-simultaneous pings from the same address may both be
// recorded: the interval check is best-effort, not a strict exclusion.
func (t *Tracker) Ping(ctx context.Context, rawAddr string) (schema.PingResult, error) {
	id := t.hasher.Anonymize(rawAddr)
	now := t.clock.Now().UTC()

	// The upsert must complete before the last-ping read: it is what
	// guarantees the identifier exists for the event row to reference.
	if err := t.store.RegisterVisitor(ctx, id, now); err != nil {
		return schema.PingResult{}, fmt.Errorf("register: %w", err)
	}

	last, seen, err := t.store.LastPing(ctx, id)
	if err != nil {
		return schema.PingResult{}, fmt.Errorf("last ping: %w", err)
	}
	if seen && now.Sub(last) < t.minInterval {
		return schema.PingResult{
			Success: false,
			Message: fmt.Sprintf("ping ignored: last ping was less than %s ago", t.minInterval),
		}, nil
	}

	if err := t.store.RecordPing(ctx, id, now); err != nil {
		return schema.PingResult{}, fmt.Errorf("record: %w", err)
	}
	return schema.PingResult{Success: true, Message: "ping recorded"}, nil
}
