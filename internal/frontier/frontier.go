// Package frontier is the persistent crawl queue: a thin wrapper over
// storage.Repository that adds the in-memory "currently being worked" lease
// set the repository layer itself has no business tracking.
package frontier

import (
	"context"
	"fmt"
	"sync"

	"github.com/ridgeline-labs/seocrawl/internal/storage"
)

// Frontier enqueues, leases, and completes crawl work against a
// storage.Repository, enforcing max-depth rejection and at-least-once
// lease semantics across process restarts.
type Frontier struct {
	repo     storage.Repository
	maxDepth int

	mu     sync.Mutex
	leased map[int64]struct{}
}

func New(repo storage.Repository, maxDepth int) *Frontier {
	return &Frontier{
		repo:     repo,
		maxDepth: maxDepth,
		leased:   make(map[int64]struct{}),
	}
}

// Enqueue inserts urlID at depth with the given parent if absent. Depth of
// an enqueued child is parent.depth+1, except sitemap-sourced URLs which
// enqueue at depth 0; callers pass the already-computed depth. Rejects
// depths beyond maxDepth — maxDepth 0 means only seeds (depth 0) are ever
// enqueued, not "unlimited".
func (f *Frontier) Enqueue(ctx context.Context, urlID int64, depth int, parentURLID *int64) (bool, error) {
	if depth > f.maxDepth {
		return false, nil
	}
	inserted, err := f.repo.FrontierInsertIfAbsent(ctx, urlID, depth, parentURLID)
	if err != nil {
		return false, fmt.Errorf("frontier.Enqueue: %w", err)
	}
	return inserted, nil
}

// Lease atomically selects up to n queued rows in insertion order and marks
// them leased in-process. On crash, leased rows remain `queued` on disk and
// are picked up by the next run, giving at-least-once semantics.
func (f *Frontier) Lease(ctx context.Context, n int) ([]storage.FrontierEntry, error) {
	entries, err := f.repo.FrontierListQueued(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("frontier.Lease: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := entries[:0]
	for _, e := range entries {
		if _, alreadyLeased := f.leased[e.URLID]; alreadyLeased {
			continue
		}
		f.leased[e.URLID] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

// Complete transitions urlID to done and releases its lease. Idempotent.
func (f *Frontier) Complete(ctx context.Context, urlID int64) error {
	f.mu.Lock()
	delete(f.leased, urlID)
	f.mu.Unlock()

	if err := f.repo.FrontierMarkDone(ctx, urlID); err != nil {
		return fmt.Errorf("frontier.Complete: %w", err)
	}
	return nil
}

// Reset truncates the frontier (used by --reset-frontier).
func (f *Frontier) Reset(ctx context.Context) error {
	f.mu.Lock()
	f.leased = make(map[int64]struct{})
	f.mu.Unlock()

	if err := f.repo.FrontierReset(ctx); err != nil {
		return fmt.Errorf("frontier.Reset: %w", err)
	}
	return nil
}

// HasQueued reports whether any row remains queued — the Crawl Controller's
// main-loop continuation condition.
func (f *Frontier) HasQueued(ctx context.Context) (bool, error) {
	has, err := f.repo.FrontierHasQueued(ctx)
	if err != nil {
		return false, fmt.Errorf("frontier.HasQueued: %w", err)
	}
	return has, nil
}

// Counts returns (queued, done) row counts.
func (f *Frontier) Counts(ctx context.Context) (int, int, error) {
	queued, done, err := f.repo.FrontierCounts(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("frontier.Counts: %w", err)
	}
	return queued, done, nil
}
