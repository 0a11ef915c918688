package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
	"github.com/wam-dev/threads/shared/logger"
	"github.com/wam-dev/threads/shared/middleware/metrics"
)

const opReconcile = "reconcile references"

// Reconciler repairs the denormalized id lists (a user's threads, a thread's
// children) from the authoritative fields (author id, parent id).
type Reconciler struct {
	storage ReconcileStorage

	mu        sync.Mutex
	lastStats ReconcileStats
}

type ReconcileStats struct {
	RunAt          time.Time
	UsersScanned   int
	ThreadsScanned int
	UsersFixed     int
	ThreadsFixed   int
	DurationMs     int64
}

type ReconcileStorage interface {
	// AllThreads returns every thread ordered by creation time ascending.
	AllThreads(ctx context.Context) ([]domain.Thread, error)
	AllUsers(ctx context.Context) ([]domain.User, error)
	SetUserThreads(ctx context.Context, userId domain.UserId, threadIds []domain.ThreadId) error
	SetThreadChildren(ctx context.Context, threadId domain.ThreadId, childIds []domain.ThreadId) error
}

func NewReconciler(storage ReconcileStorage) *Reconciler {
	return &Reconciler{storage: storage}
}

// StartBackground runs a reconcile pass every interval until ctx is done.
func (r *Reconciler) StartBackground(ctx context.Context, interval time.Duration) {
	log := logger.Component("reconciler")
	ticker := time.NewTicker(interval)
	log.Info("started background reconcile", "interval", interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats, err := r.Run(ctx)
				if err != nil {
					log.Error("reconcile failed", "error", err)
					continue
				}
				log.Info("reconcile completed",
					"users_scanned", stats.UsersScanned,
					"threads_scanned", stats.ThreadsScanned,
					"users_fixed", stats.UsersFixed,
					"threads_fixed", stats.ThreadsFixed,
					"duration_ms", stats.DurationMs,
				)
			case <-ctx.Done():
				log.Info("reconciler shutting down")
				return
			}
		}
	}()
}

// Run executes one pass. Stored entries that are still valid keep their
// position; missing ones are appended in creation order.
func (r *Reconciler) Run(ctx context.Context) (stats ReconcileStats, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp(opReconcile, start, err) }(time.Now())

	start := time.Now()
	stats.RunAt = start

	threads, err := r.storage.AllThreads(ctx)
	if err != nil {
		return stats, internal_errors.Wrap(opReconcile, err)
	}
	users, err := r.storage.AllUsers(ctx)
	if err != nil {
		return stats, internal_errors.Wrap(opReconcile, err)
	}
	stats.ThreadsScanned = len(threads)
	stats.UsersScanned = len(users)

	byAuthor := make(map[domain.UserId][]domain.ThreadId)
	byParent := make(map[domain.ThreadId][]domain.ThreadId)
	for _, t := range threads {
		byAuthor[t.AuthorId] = append(byAuthor[t.AuthorId], t.Id)
		if t.ParentId != nil {
			byParent[*t.ParentId] = append(byParent[*t.ParentId], t.Id)
		}
	}

	for _, u := range users {
		want := mergeIds(u.Threads, byAuthor[u.Id])
		if slices.Equal(want, u.Threads) {
			continue
		}
		if err := r.storage.SetUserThreads(ctx, u.Id, want); err != nil {
			return stats, internal_errors.Wrap(opReconcile, err)
		}
		stats.UsersFixed++
	}

	for _, t := range threads {
		want := mergeIds(t.ChildIds, byParent[t.Id])
		if slices.Equal(want, t.ChildIds) {
			continue
		}
		if err := r.storage.SetThreadChildren(ctx, t.Id, want); err != nil {
			return stats, internal_errors.Wrap(opReconcile, err)
		}
		stats.ThreadsFixed++
	}

	stats.DurationMs = time.Since(start).Milliseconds()
	r.mu.Lock()
	r.lastStats = stats
	r.mu.Unlock()
	return stats, nil
}

func (r *Reconciler) LastStats() ReconcileStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStats
}

// mergeIds keeps the stored ids that are expected (dropping duplicates and
// strays) and appends expected ids the stored list lacks.
func mergeIds(stored, expected []domain.ThreadId) []domain.ThreadId {
	valid := make(map[domain.ThreadId]bool, len(expected))
	for _, id := range expected {
		valid[id] = true
	}

	seen := make(map[domain.ThreadId]bool, len(expected))
	merged := make([]domain.ThreadId, 0, len(expected))
	for _, id := range stored {
		if valid[id] && !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range expected {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}
