// Package plancache persists episode break plans keyed by job and guards
// plan computation with a best-effort single-flight lock, so concurrent
// requests for the same job reuse one LLM-backed computation instead of
// racing duplicates. The lock degrades gracefully: on store trouble or
// wait timeout the caller computes anyway, because a duplicate computation
// is cheaper than a stuck job.
package plancache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"inkplan/internal/script"
	"inkplan/internal/store"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	defaultWaitTimeout  = 15 * time.Second
)

// Entry is a cached plan with the fingerprint of the panels it was
// computed from. An entry only counts as a hit when both the content hash
// and the panel count match the current request.
type Entry struct {
	ContentHash string                  `json:"content_hash"`
	PanelCount  int                     `json:"panel_count"`
	Plan        script.EpisodeBreakPlan `json:"plan"`
	CreatedAt   time.Time               `json:"created_at"`
}

// lockMarker marks an in-flight computation for a job.
type lockMarker struct {
	JobID     string    `json:"job_id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ComputeFunc produces a fresh plan when the cache cannot.
type ComputeFunc func(ctx context.Context) (script.EpisodeBreakPlan, error)

// Config configures a Cache.
type Config struct {
	// PollInterval is how often a waiting request re-checks the cache.
	// Default 250ms.
	PollInterval time.Duration

	// WaitTimeout bounds how long a request waits on another computation
	// before computing itself. Default 15s.
	WaitTimeout time.Duration

	Logger *slog.Logger
}

// Cache stores computed plans and coordinates concurrent computations.
type Cache struct {
	kv           store.KV
	logger       *slog.Logger
	pollInterval time.Duration
	waitTimeout  time.Duration
}

// New creates a plan cache over the given store.
func New(kv store.KV, cfg Config) (*Cache, error) {
	if kv == nil {
		return nil, fmt.Errorf("plan cache requires a store")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = defaultWaitTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		kv:           kv,
		logger:       logger.With("component", "plancache"),
		pollInterval: cfg.PollInterval,
		waitTimeout:  cfg.WaitTimeout,
	}, nil
}

func planKey(jobID string) string { return "plan:" + jobID }
func lockKey(jobID string) string { return "lock:" + jobID }

// Get returns the cached plan for the job if its fingerprint matches the
// given content hash and panel count. Store errors and corrupt entries are
// logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, jobID, contentHash string, panelCount int) (script.EpisodeBreakPlan, bool) {
	data, err := c.kv.Get(ctx, planKey(jobID))
	if err != nil {
		if !store.IsNotFound(err) {
			c.logger.Warn("plan cache read failed, treating as miss", "job_id", jobID, "error", err)
		}
		return script.EpisodeBreakPlan{}, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("corrupt plan cache entry, treating as miss", "job_id", jobID, "error", err)
		return script.EpisodeBreakPlan{}, false
	}
	if entry.ContentHash != contentHash || entry.PanelCount != panelCount {
		c.logger.Info("plan cache entry is stale for current panels",
			"job_id", jobID, "cached_panels", entry.PanelCount, "current_panels", panelCount)
		return script.EpisodeBreakPlan{}, false
	}
	return entry.Plan, true
}

// Put persists a plan with its panel fingerprint. Concurrent writers for
// the same job follow last-writer-wins; both compute from identical panels
// so either result is acceptable.
func (c *Cache) Put(ctx context.Context, jobID, contentHash string, panelCount int, plan script.EpisodeBreakPlan) error {
	entry := Entry{
		ContentHash: contentHash,
		PanelCount:  panelCount,
		Plan:        plan,
		CreatedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize plan entry: %w", err)
	}
	return c.kv.Put(ctx, planKey(jobID), data)
}

// GetOrCompute returns the cached plan for the job, or computes one under
// the single-flight lock. The second return value reports a cache hit.
//
// Waiting requests poll the cache while the lock holder works. If the
// marker vanishes without a cached plan appearing (holder crashed or its
// write failed), the waiter re-acquires once; past the wait timeout it
// computes without the lock.
func (c *Cache) GetOrCompute(ctx context.Context, jobID, contentHash string, panelCount int, compute ComputeFunc) (script.EpisodeBreakPlan, bool, error) {
	if plan, ok := c.Get(ctx, jobID, contentHash, panelCount); ok {
		return plan, true, nil
	}

	acquired, err := c.acquireLock(ctx, jobID)
	if err != nil {
		// Lock trouble must not block planning.
		c.logger.Warn("lock acquisition failed, computing without lock", "job_id", jobID, "error", err)
		plan, err := c.computeAndStore(ctx, jobID, contentHash, panelCount, compute)
		return plan, false, err
	}
	if acquired {
		defer c.releaseLock(ctx, jobID)
		// Re-check under the lock: another holder may have finished between
		// our miss and our acquisition.
		if plan, ok := c.Get(ctx, jobID, contentHash, panelCount); ok {
			return plan, true, nil
		}
		plan, err := c.computeAndStore(ctx, jobID, contentHash, panelCount, compute)
		return plan, false, err
	}

	return c.waitForPlan(ctx, jobID, contentHash, panelCount, compute)
}

// waitForPlan polls the cache while another request computes.
func (c *Cache) waitForPlan(ctx context.Context, jobID, contentHash string, panelCount int, compute ComputeFunc) (script.EpisodeBreakPlan, bool, error) {
	deadline := time.Now().Add(c.waitTimeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	reacquired := false
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return script.EpisodeBreakPlan{}, false, ctx.Err()
		case <-ticker.C:
		}

		if plan, ok := c.Get(ctx, jobID, contentHash, panelCount); ok {
			return plan, true, nil
		}

		if reacquired {
			continue
		}
		if c.lockHeld(ctx, jobID) {
			continue
		}
		// Marker gone, no plan: the holder died or its write never landed.
		// One re-acquire attempt; after that, wait out the timeout.
		acquired, err := c.acquireLock(ctx, jobID)
		if err != nil || !acquired {
			reacquired = true
			continue
		}
		defer c.releaseLock(ctx, jobID)
		if plan, ok := c.Get(ctx, jobID, contentHash, panelCount); ok {
			return plan, true, nil
		}
		plan, err := c.computeAndStore(ctx, jobID, contentHash, panelCount, compute)
		return plan, false, err
	}

	c.logger.Warn("timed out waiting for concurrent plan computation, computing without lock", "job_id", jobID)
	plan, err := c.computeAndStore(ctx, jobID, contentHash, panelCount, compute)
	return plan, false, err
}

func (c *Cache) computeAndStore(ctx context.Context, jobID, contentHash string, panelCount int, compute ComputeFunc) (script.EpisodeBreakPlan, error) {
	plan, err := compute(ctx)
	if err != nil {
		return script.EpisodeBreakPlan{}, err
	}
	// A failed cache write costs a recomputation later, not the plan.
	if err := c.Put(ctx, jobID, contentHash, panelCount, plan); err != nil {
		c.logger.Warn("failed to persist computed plan", "job_id", jobID, "error", err)
	}
	return plan, nil
}

// acquireLock attempts to create the job's lock marker atomically.
func (c *Cache) acquireLock(ctx context.Context, jobID string) (bool, error) {
	marker := lockMarker{
		JobID:     jobID,
		OwnerID:   uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(marker)
	if err != nil {
		return false, err
	}
	return c.kv.PutIfAbsent(ctx, lockKey(jobID), data)
}

// releaseLock removes the job's lock marker. Always called by the holder,
// success or failure, so waiters never starve on a finished computation.
func (c *Cache) releaseLock(ctx context.Context, jobID string) {
	if err := c.kv.Delete(ctx, lockKey(jobID)); err != nil {
		c.logger.Warn("failed to release plan lock", "job_id", jobID, "error", err)
	}
}

// lockHeld reports whether the job's lock marker still exists. Store
// errors count as not held so waiters fall through to re-acquisition
// rather than spinning on a broken store.
func (c *Cache) lockHeld(ctx context.Context, jobID string) bool {
	_, err := c.kv.Get(ctx, lockKey(jobID))
	if err != nil {
		if !store.IsNotFound(err) {
			c.logger.Warn("failed to check plan lock", "job_id", jobID, "error", err)
		}
		return false
	}
	return true
}
