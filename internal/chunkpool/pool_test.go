package chunkpool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"inkplan/internal/script"
	"inkplan/internal/store"
	"inkplan/internal/suggest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testChunks(n int) []script.Chunk {
	chunks := make([]script.Chunk, n)
	for i := range chunks {
		chunks[i] = script.Chunk{Index: i, Text: fmt.Sprintf("chunk %d text", i)}
	}
	return chunks
}

func panelsFor(chunkIndex, count int) []script.Panel {
	panels := make([]script.Panel, count)
	for i := range panels {
		panels[i] = script.Panel{Index: i + 1, Description: fmt.Sprintf("c%d p%d", chunkIndex, i+1)}
	}
	return panels
}

type recordingSink struct {
	mu       sync.Mutex
	statuses map[int][]Status
	counts   []int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{statuses: make(map[int][]Status)}
}

func (s *recordingSink) ReportChunkStatus(_ string, chunkIndex int, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[chunkIndex] = append(s.statuses[chunkIndex], status)
}

func (s *recordingSink) ReportProcessedCount(_ string, processed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = append(s.counts, processed)
}

func (s *recordingSink) lastStatus(chunkIndex int) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.statuses[chunkIndex]
	if len(seq) == 0 {
		return ""
	}
	return seq[len(seq)-1]
}

func TestConvertAllChunksSucceed(t *testing.T) {
	kv := store.NewMemoryStore()
	svc := &suggest.MockService{
		ConvertFn: func(req suggest.ConvertRequest) (*script.ChunkResult, error) {
			return &script.ChunkResult{ChunkIndex: req.ChunkIndex, Panels: panelsFor(req.ChunkIndex, 3)}, nil
		},
	}
	pool, err := New(svc, kv, Config{MaxConcurrency: 2})
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}

	results, err := pool.Convert(context.Background(), "job1", testChunks(5))
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.ChunkIndex != i {
			t.Fatalf("results out of order at %d: %+v", i, r)
		}
	}

	panels := Assemble(results)
	if len(panels) != 15 {
		t.Fatalf("expected 15 panels, got %d", len(panels))
	}
	for i, p := range panels {
		if p.Index != i+1 {
			t.Fatalf("panels not renumbered globally: index %d at position %d", p.Index, i)
		}
	}
}

func TestConvertEmptyChunkFailsPool(t *testing.T) {
	// 4 chunks, 3 workers, chunk 2 produces nothing: the pool fails even
	// though its siblings can complete individually.
	kv := store.NewMemoryStore()
	svc := &suggest.MockService{
		ConvertFn: func(req suggest.ConvertRequest) (*script.ChunkResult, error) {
			if req.ChunkIndex == 2 {
				return &script.ChunkResult{ChunkIndex: 2}, nil
			}
			return &script.ChunkResult{ChunkIndex: req.ChunkIndex, Panels: panelsFor(req.ChunkIndex, 2)}, nil
		},
	}
	sink := newRecordingSink()
	pool, err := New(svc, kv, Config{MaxConcurrency: 3, Sink: sink})
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}

	_, err = pool.Convert(context.Background(), "job1", testChunks(4))
	if err == nil {
		t.Fatal("expected pool failure for empty chunk")
	}
	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) || chunkErr.ChunkIndex != 2 {
		t.Fatalf("expected ChunkError for chunk 2, got %v", err)
	}
	if sink.lastStatus(2) != StatusFailed {
		t.Fatalf("chunk 2 should end failed, got %q", sink.lastStatus(2))
	}
	if loadStatus(context.Background(), kv, testLogger(), "job1", 2) != StatusFailed {
		t.Fatal("chunk 2 failure not persisted")
	}
}

func TestConvertNonContiguousChunkIndices(t *testing.T) {
	// Results and persistence are keyed by chunk.Index, not slice position,
	// so a sparse index set must still reassemble in order.
	kv := store.NewMemoryStore()
	ctx := context.Background()
	chunks := []script.Chunk{
		{Index: 10, Text: "first"},
		{Index: 20, Text: "second"},
		{Index: 30, Text: "third"},
	}
	svc := &suggest.MockService{
		ConvertFn: func(req suggest.ConvertRequest) (*script.ChunkResult, error) {
			return &script.ChunkResult{ChunkIndex: req.ChunkIndex, Panels: panelsFor(req.ChunkIndex, 2)}, nil
		},
	}
	pool, err := New(svc, kv, Config{MaxConcurrency: 2})
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}

	results, err := pool.Convert(ctx, "job1", chunks)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []int{10, 20, 30} {
		if results[i].ChunkIndex != want {
			t.Fatalf("result %d has chunk index %d, want %d", i, results[i].ChunkIndex, want)
		}
		if loadStatus(ctx, kv, testLogger(), "job1", want) != StatusCompleted {
			t.Fatalf("chunk %d status not persisted under its own index", want)
		}
		if _, err := kv.Get(ctx, contentKey("job1", want)); err != nil {
			t.Fatalf("chunk %d content not persisted under its own index: %v", want, err)
		}
	}
}

func TestConvertResumesCompletedChunks(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()

	// Chunk 1 completed in a previous run.
	persisted := script.ChunkResult{ChunkIndex: 1, Panels: panelsFor(1, 4)}
	data, _ := json.Marshal(persisted)
	if err := kv.Put(ctx, contentKey("job1", 1), data); err != nil {
		t.Fatalf("seed content: %v", err)
	}
	saveStatus(ctx, kv, testLogger(), "job1", 1, StatusCompleted, nil)

	svc := &suggest.MockService{
		ConvertFn: func(req suggest.ConvertRequest) (*script.ChunkResult, error) {
			return &script.ChunkResult{ChunkIndex: req.ChunkIndex, Panels: panelsFor(req.ChunkIndex, 2)}, nil
		},
	}
	pool, err := New(svc, kv, Config{MaxConcurrency: 2})
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}

	results, err := pool.Convert(ctx, "job1", testChunks(3))
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if got := svc.ConvertCalls(); got != 2 {
		t.Fatalf("completed chunk must be skipped, got %d conversions", got)
	}
	if len(results[1].Panels) != 4 {
		t.Fatalf("persisted result not used: %+v", results[1])
	}
}

func TestConvertJudgeFailureDoesNotBlockCompletion(t *testing.T) {
	kv := store.NewMemoryStore()
	svc := &suggest.MockService{
		ConvertFn: func(req suggest.ConvertRequest) (*script.ChunkResult, error) {
			return &script.ChunkResult{ChunkIndex: req.ChunkIndex, Panels: panelsFor(req.ChunkIndex, 2)}, nil
		},
		JudgeFn: func(req suggest.JudgeRequest) (*suggest.JudgeResult, error) {
			return nil, errors.New("judge unavailable")
		},
	}
	sink := newRecordingSink()
	pool, err := New(svc, kv, Config{MaxConcurrency: 1, JudgeEnabled: true, Sink: sink})
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}

	results, err := pool.Convert(context.Background(), "job1", testChunks(2))
	if err != nil {
		t.Fatalf("judge failure must not fail the pool: %v", err)
	}
	if svc.JudgeCalls() != 2 {
		t.Fatalf("expected 2 judge calls, got %d", svc.JudgeCalls())
	}
	for i, r := range results {
		if r.CoverageRatio != 0 {
			t.Fatalf("chunk %d should have no coverage score: %+v", i, r)
		}
		if sink.lastStatus(i) != StatusCompleted {
			t.Fatalf("chunk %d should still complete, got %q", i, sink.lastStatus(i))
		}
	}
}

func TestConvertJudgeScoresAttached(t *testing.T) {
	kv := store.NewMemoryStore()
	svc := &suggest.MockService{
		ConvertFn: func(req suggest.ConvertRequest) (*script.ChunkResult, error) {
			return &script.ChunkResult{ChunkIndex: req.ChunkIndex, Panels: panelsFor(req.ChunkIndex, 2)}, nil
		},
		JudgeFn: func(req suggest.JudgeRequest) (*suggest.JudgeResult, error) {
			return &suggest.JudgeResult{CoverageRatio: 0.85}, nil
		},
	}
	pool, err := New(svc, kv, Config{MaxConcurrency: 2, JudgeEnabled: true})
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}

	results, err := pool.Convert(context.Background(), "job1", testChunks(2))
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	for _, r := range results {
		if r.CoverageRatio != 0.85 {
			t.Fatalf("coverage score lost: %+v", r)
		}
	}
}

func TestConvertContentPersistFailureIsFatal(t *testing.T) {
	kv := store.NewMemoryStore()
	kv.FailOps = map[string]bool{"put": true}
	svc := &suggest.MockService{
		ConvertFn: func(req suggest.ConvertRequest) (*script.ChunkResult, error) {
			return &script.ChunkResult{ChunkIndex: req.ChunkIndex, Panels: panelsFor(req.ChunkIndex, 1)}, nil
		},
	}
	pool, err := New(svc, kv, Config{MaxConcurrency: 1})
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}

	if _, err := pool.Convert(context.Background(), "job1", testChunks(1)); err == nil {
		t.Fatal("expected failure when content cannot be persisted")
	}
}

func TestConvertProcessedCountReachesTotal(t *testing.T) {
	kv := store.NewMemoryStore()
	svc := &suggest.MockService{}
	sink := newRecordingSink()
	pool, err := New(svc, kv, Config{MaxConcurrency: 3, Sink: sink})
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}

	if _, err := pool.Convert(context.Background(), "job1", testChunks(6)); err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.counts) != 6 {
		t.Fatalf("expected 6 count reports, got %v", sink.counts)
	}
	max := 0
	for _, n := range sink.counts {
		if n > max {
			max = n
		}
	}
	if max != 6 {
		t.Fatalf("processed count never reached total: %v", sink.counts)
	}
}
