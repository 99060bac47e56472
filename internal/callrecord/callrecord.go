// Package callrecord records every suggestion-service call with its prompt
// key, token usage, and outcome, persisted to the durable store for
// traceability. Recording is best-effort: failures are logged and never
// affect the pipeline.
package callrecord

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"inkplan/internal/providers"
	"inkplan/internal/store"
)

// Record is one recorded suggestion-service call.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	JobID      string `json:"job_id,omitempty"`
	ChunkIndex int    `json:"chunk_index,omitempty"`
	PromptKey  string `json:"prompt_key"`

	Provider string `json:"provider"`
	Model    string `json:"model"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording a call.
type RecordOptions struct {
	JobID      string
	ChunkIndex int
	PromptKey  string
}

// FromChatResult creates a Record from a ChatResult. Returns nil for a nil
// result.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Record {
	if result == nil {
		return nil
	}
	rec := &Record{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		JobID:        opts.JobID,
		ChunkIndex:   opts.ChunkIndex,
		PromptKey:    opts.PromptKey,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		Success:      result.Success,
	}
	if !result.Success {
		rec.Error = result.ErrorMessage
	}
	return rec
}

// Recorder persists call records to the store.
type Recorder struct {
	kv     store.KV
	logger *slog.Logger
}

// NewRecorder creates a recorder writing to the given store.
func NewRecorder(kv store.KV, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{kv: kv, logger: logger.With("component", "callrecord")}
}

// Record persists one call record. Fire-and-forget: storage problems are
// logged, never returned.
func (r *Recorder) Record(ctx context.Context, rec *Record) {
	if r == nil || rec == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.Warn("failed to serialize call record", "error", err, "prompt_key", rec.PromptKey)
		return
	}
	key := fmt.Sprintf("call:%s:%s", rec.JobID, rec.ID)
	if err := r.kv.Put(ctx, key, data); err != nil {
		r.logger.Warn("failed to persist call record", "error", err, "key", key)
	}
}

// ForJob returns all recorded calls for a job, in key order.
func (r *Recorder) ForJob(ctx context.Context, jobID string) ([]Record, error) {
	keys, err := r.kv.List(ctx, fmt.Sprintf("call:%s:", jobID))
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		data, err := r.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
