// Package suggest is the boundary to the content-suggestion service: it
// renders prompts, calls an LLM client, and defensively parses the
// structured results into candidate plans. Results from this package are
// raw suggestions; the segment package turns them into valid partitions.
package suggest

import (
	"context"

	"inkplan/internal/script"
)

// JudgeResult is the coverage judge's verdict on one converted chunk.
type JudgeResult struct {
	CoverageRatio  float64  `json:"coverage_ratio"`
	MissingPoints  []string `json:"missing_points"`
	OverSummarized bool     `json:"over_summarized"`
}

// EpisodeRequest asks for episode break candidates over a panel window.
type EpisodeRequest struct {
	JobID        string
	Panels       []script.Panel
	MinUnits     int
	MaxUnits     int
	PriorContext string
}

// PageRequest asks for page break candidates over the full panel sequence.
type PageRequest struct {
	JobID            string
	Panels           []script.Panel
	MaxPanelsPerPage int
}

// ConvertRequest asks for panel conversion of one raw text chunk.
type ConvertRequest struct {
	JobID       string
	ChunkIndex  int
	ChunkText   string
	PrevSummary string
	NextSummary string
	Analysis    string
}

// JudgeRequest asks for a coverage verdict on a converted chunk.
type JudgeRequest struct {
	JobID         string
	ChunkIndex    int
	RawText       string
	GeneratedJSON string
}

// Service is the content-suggestion interface the planner and chunk pool
// depend on. Implementations may return malformed or empty results; callers
// validate defensively.
type Service interface {
	// SuggestEpisodes returns candidate episode breaks. Starts and ends are
	// local to the given panels (1-based).
	SuggestEpisodes(ctx context.Context, req EpisodeRequest) (script.EpisodeBreakPlan, error)

	// SuggestPages returns a candidate page plan covering the given panels.
	SuggestPages(ctx context.Context, req PageRequest) (script.PagePlan, error)

	// ConvertChunk converts one raw text chunk into structured panels.
	ConvertChunk(ctx context.Context, req ConvertRequest) (*script.ChunkResult, error)

	// Judge scores conversion coverage. Optional enrichment only; callers
	// must tolerate failure.
	Judge(ctx context.Context, req JudgeRequest) (*JudgeResult, error)
}
