package suggest

import (
	"context"
	"fmt"
	"sync/atomic"

	"inkplan/internal/script"
)

// MockService is a Service for testing. Zero-value fields fall back to
// simple deterministic behavior; hooks override individual calls.
type MockService struct {
	EpisodesFn func(req EpisodeRequest) (script.EpisodeBreakPlan, error)
	PagesFn    func(req PageRequest) (script.PagePlan, error)
	ConvertFn  func(req ConvertRequest) (*script.ChunkResult, error)
	JudgeFn    func(req JudgeRequest) (*JudgeResult, error)

	episodeCalls atomic.Int64
	pageCalls    atomic.Int64
	convertCalls atomic.Int64
	judgeCalls   atomic.Int64
}

func (m *MockService) SuggestEpisodes(_ context.Context, req EpisodeRequest) (script.EpisodeBreakPlan, error) {
	m.episodeCalls.Add(1)
	if m.EpisodesFn != nil {
		return m.EpisodesFn(req)
	}
	return script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: len(req.Panels)},
	}}, nil
}

func (m *MockService) SuggestPages(_ context.Context, req PageRequest) (script.PagePlan, error) {
	m.pageCalls.Add(1)
	if m.PagesFn != nil {
		return m.PagesFn(req)
	}
	perPage := req.MaxPanelsPerPage
	if perPage <= 0 {
		perPage = 4
	}
	pageOf := make([]int, len(req.Panels))
	for i := range pageOf {
		pageOf[i] = i/perPage + 1
	}
	return script.PagePlan{PageOf: pageOf}, nil
}

func (m *MockService) ConvertChunk(_ context.Context, req ConvertRequest) (*script.ChunkResult, error) {
	m.convertCalls.Add(1)
	if m.ConvertFn != nil {
		return m.ConvertFn(req)
	}
	return &script.ChunkResult{
		ChunkIndex: req.ChunkIndex,
		Panels: []script.Panel{
			{Index: 1, Description: fmt.Sprintf("panel from chunk %d", req.ChunkIndex)},
		},
	}, nil
}

func (m *MockService) Judge(_ context.Context, req JudgeRequest) (*JudgeResult, error) {
	m.judgeCalls.Add(1)
	if m.JudgeFn != nil {
		return m.JudgeFn(req)
	}
	return &JudgeResult{CoverageRatio: 1.0, MissingPoints: []string{}}, nil
}

// EpisodeCalls returns the number of SuggestEpisodes calls.
func (m *MockService) EpisodeCalls() int64 { return m.episodeCalls.Load() }

// PageCalls returns the number of SuggestPages calls.
func (m *MockService) PageCalls() int64 { return m.pageCalls.Load() }

// ConvertCalls returns the number of ConvertChunk calls.
func (m *MockService) ConvertCalls() int64 { return m.convertCalls.Load() }

// JudgeCalls returns the number of Judge calls.
func (m *MockService) JudgeCalls() int64 { return m.judgeCalls.Load() }

// Verify interface
var _ Service = (*MockService)(nil)
