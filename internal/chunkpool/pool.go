package chunkpool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"inkplan/internal/script"
	"inkplan/internal/store"
	"inkplan/internal/suggest"
)

// ChunkError is the hard failure raised when a chunk produces no content.
// Downstream segmentation needs a complete panel sequence, so an empty
// conversion aborts the whole pool rather than leaving a hole.
type ChunkError struct {
	JobID      string
	ChunkIndex int
	Err        error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d of job %s failed: %v", e.ChunkIndex, e.JobID, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Config configures the conversion pool.
type Config struct {
	// MaxConcurrency caps concurrent conversions; the effective worker
	// count is min(MaxConcurrency, chunk count). Default 4.
	MaxConcurrency int

	// JudgeEnabled turns on the optional coverage judge per chunk.
	JudgeEnabled bool

	// Summaries provides adjacent-chunk context for conversion prompts
	// (optional). Keyed by chunk index.
	Summaries map[int]string

	Sink   ProgressSink
	Logger *slog.Logger
}

// Pool converts a job's chunks concurrently with resumable status.
type Pool struct {
	service suggest.Service
	kv      store.KV
	cfg     Config
	logger  *slog.Logger
	sink    ProgressSink
}

// New creates a conversion pool.
func New(service suggest.Service, kv store.KV, cfg Config) (*Pool, error) {
	if service == nil {
		return nil, fmt.Errorf("pool requires a suggestion service")
	}
	if kv == nil {
		return nil, fmt.Errorf("pool requires a store")
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = LogSink{Logger: logger}
	}
	return &Pool{
		service: service,
		kv:      kv,
		cfg:     cfg,
		logger:  logger.With("component", "chunkpool"),
		sink:    sink,
	}, nil
}

// Convert processes every chunk and returns the results in original chunk
// order. Chunks already completed in a previous run are loaded from the
// store instead of reconverted. The first hard failure aborts the pool;
// workers already mid-call finish naturally but their results are
// discarded with the failed run.
func (p *Pool) Convert(ctx context.Context, jobID string, chunks []script.Chunk) ([]script.ChunkResult, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	workers := p.cfg.MaxConcurrency
	if workers > len(chunks) {
		workers = len(chunks)
	}

	// Single-consumer-per-index queue: each index is popped by exactly one
	// worker.
	queue := make(chan int, len(chunks))
	for i := range chunks {
		queue <- i
	}
	close(queue)

	var (
		mu        sync.Mutex
		results   = make(map[int]*script.ChunkResult, len(chunks))
		processed atomic.Int64
		aborted   atomic.Bool
	)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for index := range queue {
				if aborted.Load() {
					return nil
				}
				result, err := p.convertOne(ctx, jobID, chunks[index])
				if err != nil {
					aborted.Store(true)
					return err
				}
				mu.Lock()
				results[chunks[index].Index] = result
				mu.Unlock()
				n := int(processed.Add(1))
				p.sink.ReportProcessedCount(jobID, n)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Reassemble in original chunk order, keyed by chunk index rather than
	// slice position; concurrency affects latency only.
	out := make([]script.ChunkResult, 0, len(chunks))
	for _, chunk := range chunks {
		result, ok := results[chunk.Index]
		if !ok {
			return nil, &ChunkError{JobID: jobID, ChunkIndex: chunk.Index, Err: fmt.Errorf("missing result")}
		}
		out = append(out, *result)
	}
	return out, nil
}

// convertOne handles a single chunk: resume check, conversion, optional
// judge, persistence, status updates.
func (p *Pool) convertOne(ctx context.Context, jobID string, chunk script.Chunk) (*script.ChunkResult, error) {
	logger := p.logger.With("job_id", jobID, "chunk", chunk.Index)

	if loadStatus(ctx, p.kv, logger, jobID, chunk.Index) == StatusCompleted {
		result, err := p.loadResult(ctx, jobID, chunk.Index)
		if err == nil {
			logger.Debug("chunk already completed, skipping")
			return result, nil
		}
		logger.Warn("completed chunk has no readable content, reconverting", "error", err)
	}

	saveStatus(ctx, p.kv, logger, jobID, chunk.Index, StatusProcessing, nil)
	p.sink.ReportChunkStatus(jobID, chunk.Index, StatusProcessing)

	result, err := p.service.ConvertChunk(ctx, suggest.ConvertRequest{
		JobID:       jobID,
		ChunkIndex:  chunk.Index,
		ChunkText:   chunk.Text,
		PrevSummary: p.cfg.Summaries[chunk.Index-1],
		NextSummary: p.cfg.Summaries[chunk.Index+1],
	})
	if err == nil && (result == nil || len(result.Panels) == 0) {
		err = fmt.Errorf("conversion returned no panels")
	}
	if err != nil {
		saveStatus(ctx, p.kv, logger, jobID, chunk.Index, StatusFailed, err)
		p.sink.ReportChunkStatus(jobID, chunk.Index, StatusFailed)
		return nil, &ChunkError{JobID: jobID, ChunkIndex: chunk.Index, Err: err}
	}

	if p.cfg.JudgeEnabled {
		p.judgeChunk(ctx, jobID, chunk, result, logger)
	}

	// Content persistence is fatal on failure: silently dropping converted
	// content would corrupt the panel sequence.
	data, err := json.Marshal(result)
	if err != nil {
		saveStatus(ctx, p.kv, logger, jobID, chunk.Index, StatusFailed, err)
		return nil, &ChunkError{JobID: jobID, ChunkIndex: chunk.Index, Err: err}
	}
	if err := p.kv.Put(ctx, contentKey(jobID, chunk.Index), data); err != nil {
		saveStatus(ctx, p.kv, logger, jobID, chunk.Index, StatusFailed, err)
		return nil, &ChunkError{JobID: jobID, ChunkIndex: chunk.Index, Err: err}
	}

	saveStatus(ctx, p.kv, logger, jobID, chunk.Index, StatusCompleted, nil)
	p.sink.ReportChunkStatus(jobID, chunk.Index, StatusCompleted)
	return result, nil
}

// judgeChunk attaches a coverage score when the judge cooperates. The
// service already retries once internally; a judge that still fails is
// logged and skipped. Never blocks chunk completion.
func (p *Pool) judgeChunk(ctx context.Context, jobID string, chunk script.Chunk, result *script.ChunkResult, logger *slog.Logger) {
	generated, err := json.Marshal(result.Panels)
	if err != nil {
		logger.Warn("failed to serialize panels for judge", "error", err)
		return
	}
	verdict, err := p.service.Judge(ctx, suggest.JudgeRequest{
		JobID:         jobID,
		ChunkIndex:    chunk.Index,
		RawText:       chunk.Text,
		GeneratedJSON: string(generated),
	})
	if err != nil {
		logger.Warn("coverage judge failed, proceeding without score", "error", err)
		return
	}
	result.CoverageRatio = verdict.CoverageRatio
	if len(verdict.MissingPoints) > 0 {
		logger.Info("judge flagged missing content",
			"coverage_ratio", verdict.CoverageRatio,
			"missing_points", len(verdict.MissingPoints),
			"over_summarized", verdict.OverSummarized)
	}
}

// loadResult reads a previously persisted chunk result.
func (p *Pool) loadResult(ctx context.Context, jobID string, index int) (*script.ChunkResult, error) {
	data, err := p.kv.Get(ctx, contentKey(jobID, index))
	if err != nil {
		return nil, err
	}
	var result script.ChunkResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("corrupt chunk content: %w", err)
	}
	return &result, nil
}

// Assemble concatenates chunk results in chunk order into the global panel
// sequence, renumbering panels 1..N.
func Assemble(results []script.ChunkResult) []script.Panel {
	var panels []script.Panel
	for _, r := range results {
		panels = append(panels, r.Panels...)
	}
	return script.RenumberPanels(panels)
}
