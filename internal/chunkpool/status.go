// Package chunkpool converts raw text chunks into structured panels with a
// bounded-concurrency worker pool. Per-chunk status is persisted to the
// durable store so an interrupted job resumes without reprocessing
// completed chunks, and the pool fails fast on the first chunk that cannot
// produce content.
package chunkpool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"inkplan/internal/store"
)

// Status is the per-chunk state machine.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// chunkState is the persisted status record for one chunk.
type chunkState struct {
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`
}

func statusKey(jobID string, index int) string {
	return fmt.Sprintf("chunk:%s:%d:status", jobID, index)
}

func contentKey(jobID string, index int) string {
	return fmt.Sprintf("chunk:%s:%d:content", jobID, index)
}

// loadStatus reads a chunk's persisted status. Absent or unreadable
// records count as pending; status is resumability metadata, not truth the
// pipeline depends on.
func loadStatus(ctx context.Context, kv store.KV, logger *slog.Logger, jobID string, index int) Status {
	data, err := kv.Get(ctx, statusKey(jobID, index))
	if err != nil {
		if !store.IsNotFound(err) {
			logger.Warn("failed to read chunk status, treating as pending",
				"job_id", jobID, "chunk", index, "error", err)
		}
		return StatusPending
	}
	var st chunkState
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Warn("corrupt chunk status, treating as pending",
			"job_id", jobID, "chunk", index, "error", err)
		return StatusPending
	}
	return st.Status
}

// saveStatus persists a chunk's status. Failures are logged only: losing a
// status write costs a redundant reconversion on resume, nothing more.
func saveStatus(ctx context.Context, kv store.KV, logger *slog.Logger, jobID string, index int, status Status, failure error) {
	st := chunkState{Status: status, UpdatedAt: time.Now().UTC()}
	if failure != nil {
		st.Error = failure.Error()
	}
	data, err := json.Marshal(st)
	if err != nil {
		logger.Warn("failed to serialize chunk status", "job_id", jobID, "chunk", index, "error", err)
		return
	}
	if err := kv.Put(ctx, statusKey(jobID, index), data); err != nil {
		logger.Warn("failed to persist chunk status", "job_id", jobID, "chunk", index, "error", err)
	}
}
