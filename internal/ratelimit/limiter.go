// Package ratelimit enforces the per-sender submission quota: at most
// MaxPerWindow submissions per identity per rolling Window.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nazarhussain/portfolio-courier/internal/logging"
	"github.com/nazarhussain/portfolio-courier/internal/store"
)

// Fixed policy values, not configuration.
const (
	MaxPerWindow = 3
	Window       = 24 * time.Hour
)

type Limiter struct {
	store store.Store
	now   func() time.Time

	// Serializes the load-modify-save cycle per identity so two
	// concurrent requests from the same sender cannot both pass the
	// admission check on stale state.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a limiter backed by st. A nil now defaults to time.Now;
// tests inject a fixed clock.
func New(st store.Store, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		store: st,
		now:   now,
		locks: map[string]*sync.Mutex{},
	}
}

// CanonicalIdentity maps an email address to its quota bucket key.
// "User@Foo.com " and "user@foo.com" are the same sender.
func CanonicalIdentity(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RemainingAttempts reports how many submissions the identity has left in
// the current window. Expired timestamps are pruned and the pruned record
// persisted, so expiry is enforced whenever an identity is next observed
// rather than by a background sweep.
func (l *Limiter) RemainingAttempts(ctx context.Context, identity string) (int, error) {
	key := CanonicalIdentity(identity)
	unlock := l.lock(key)
	defer unlock()

	table, err := l.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	rec, ok := table[key]
	if !ok {
		return MaxPerWindow, nil
	}

	kept := l.prune(rec.Timestamps)
	if len(kept) == 0 {
		// Functionally equivalent to an absent record; drop it.
		delete(table, key)
	} else {
		table[key] = store.Record{Timestamps: kept}
	}
	l.save(ctx, table)

	remaining := MaxPerWindow - len(kept)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CanSubmit reports whether the identity has quota left. Prunes as a side
// effect, same as RemainingAttempts.
func (l *Limiter) CanSubmit(ctx context.Context, identity string) (bool, error) {
	remaining, err := l.RemainingAttempts(ctx, identity)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// RecordSubmission appends the current instant to the identity's history.
// Called only after a message was actually dispatched, so storage trouble
// must not fail the request: worst case the limiter under-counts.
func (l *Limiter) RecordSubmission(ctx context.Context, identity string) {
	key := CanonicalIdentity(identity)
	unlock := l.lock(key)
	defer unlock()

	table, err := l.store.Load(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("loading submissions for commit failed", "err", err)
		table = store.Table{}
	}

	kept := l.prune(table[key].Timestamps)
	kept = append(kept, l.now().UnixMilli())
	table[key] = store.Record{Timestamps: kept}
	l.save(ctx, table)
}

// prune keeps timestamps strictly younger than the window; a timestamp
// exactly Window old is expired.
func (l *Limiter) prune(timestamps []int64) []int64 {
	cutoff := l.now().Add(-Window).UnixMilli()
	kept := make([]int64, 0, len(timestamps))
	for _, ts := range timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	return kept
}

// save persists the table, swallowing failures: losing rate-limit
// durability is preferable to failing a legitimate submission.
func (l *Limiter) save(ctx context.Context, table store.Table) {
	if err := l.store.Save(ctx, table); err != nil {
		logging.FromContext(ctx).Warn("persisting submissions failed", "err", err)
	}
}

func (l *Limiter) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
