// Package planner orchestrates the segmentation pipeline: it gathers raw
// boundary suggestions window by window, runs them through the
// deterministic normalize/enforce/bundle/validate chain, and persists the
// finished plans through the single-flight cache. Suggestion noise stops
// here; everything the planner returns satisfies the partition invariants.
package planner

import (
	"context"
	"fmt"
	"log/slog"

	"inkplan/internal/plancache"
	"inkplan/internal/script"
	"inkplan/internal/segment"
	"inkplan/internal/suggest"
)

// EpisodeConfig bounds the episode partition.
type EpisodeConfig struct {
	// SmallUnitThreshold marks scripts small enough that minimum-length
	// violations are waived and a single-episode fallback is unambiguous.
	SmallUnitThreshold int

	MinUnitsPerEpisode int
	MaxUnitsPerEpisode int

	// BundlingEnabled merges undersized episodes into neighbors.
	BundlingEnabled bool
}

// PageConfig bounds the page partition and the page-based episode rebundle.
type PageConfig struct {
	MaxPanelsPerPage   int
	MinPagesPerEpisode int
	BundlingEnabled    bool
}

// Config configures a Planner.
type Config struct {
	Window  segment.WindowConfig
	Episode EpisodeConfig
	Page    PageConfig
	Logger  *slog.Logger
}

// Planner computes validated episode and page plans for a job.
type Planner struct {
	service suggest.Service
	cache   *plancache.Cache
	cfg     Config
	logger  *slog.Logger
}

// New creates a planner. The cache is optional; without one every request
// recomputes.
func New(service suggest.Service, cache *plancache.Cache, cfg Config) (*Planner, error) {
	if service == nil {
		return nil, fmt.Errorf("planner requires a suggestion service")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		service: service,
		cache:   cache,
		cfg:     cfg,
		logger:  logger.With("component", "planner"),
	}, nil
}

// PlanEpisodes returns the validated episode partition for the job's panel
// sequence, from cache when the sequence is unchanged since the last
// computation.
func (p *Planner) PlanEpisodes(ctx context.Context, jobID string, panels []script.Panel) (script.EpisodeBreakPlan, error) {
	if len(panels) == 0 {
		return script.EpisodeBreakPlan{}, fmt.Errorf("job %s has no panels to segment", jobID)
	}

	compute := func(ctx context.Context) (script.EpisodeBreakPlan, error) {
		return p.computeEpisodePlan(ctx, jobID, panels)
	}

	if p.cache == nil {
		return compute(ctx)
	}

	hash, err := script.ContentHash(panels)
	if err != nil {
		return script.EpisodeBreakPlan{}, fmt.Errorf("failed to fingerprint panels for job %s: %w", jobID, err)
	}
	plan, hit, err := p.cache.GetOrCompute(ctx, jobID, hash, len(panels), compute)
	if err != nil {
		return script.EpisodeBreakPlan{}, err
	}
	if hit {
		p.logger.Info("episode plan served from cache", "job_id", jobID, "episodes", len(plan.Episodes))
	}
	return plan, nil
}

// computeEpisodePlan runs the full pipeline: suggest per window, then
// normalize, enforce length, bundle, validate. An invalid result earns one
// fresh round of suggestions; after that, small scripts fall back to a
// single episode and large ones fail with the validator's findings.
func (p *Planner) computeEpisodePlan(ctx context.Context, jobID string, panels []script.Panel) (script.EpisodeBreakPlan, error) {
	total := len(panels)

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		raw, err := p.gatherCandidates(ctx, jobID, panels)
		if err != nil {
			lastErr = err
			p.logger.Warn("episode suggestion failed", "job_id", jobID, "attempt", attempt, "error", err)
			continue
		}

		plan := p.finalizeEpisodes(raw, total)
		report := segment.Validate(plan, total, p.validateConfig())
		if report.Valid {
			return plan, nil
		}
		lastErr = &segment.ValidationError{Stage: "episode planning", Issues: report.Issues}
		p.logger.Warn("episode plan failed validation",
			"job_id", jobID, "attempt", attempt, "issues", len(report.Issues))
	}

	if total <= p.cfg.Episode.SmallUnitThreshold {
		p.logger.Warn("falling back to single-episode plan", "job_id", jobID, "panels", total, "error", lastErr)
		return p.fallbackPlan(total), nil
	}
	return script.EpisodeBreakPlan{}, fmt.Errorf("episode planning failed for job %s: %w", jobID, lastErr)
}

// gatherCandidates collects raw episode suggestions across windows,
// remapped to global panel indices. Candidate numbers run sequentially
// across windows so normalization preserves suggestion order.
func (p *Planner) gatherCandidates(ctx context.Context, jobID string, panels []script.Panel) (script.EpisodeBreakPlan, error) {
	windows := segment.SplitWindows(panels, p.cfg.Window)

	var (
		candidates []script.Episode
		prior      string
	)
	for i, w := range windows {
		suggested, err := p.service.SuggestEpisodes(ctx, suggest.EpisodeRequest{
			JobID:        jobID,
			Panels:       w.Panels,
			MinUnits:     p.cfg.Episode.MinUnitsPerEpisode,
			MaxUnits:     p.cfg.Episode.MaxUnitsPerEpisode,
			PriorContext: prior,
		})
		if err != nil {
			return script.EpisodeBreakPlan{}, fmt.Errorf("window %d/%d: %w", i+1, len(windows), err)
		}
		for _, e := range suggested.Episodes {
			candidates = append(candidates, script.Episode{
				Number:      len(candidates) + 1,
				StartPanel:  w.ToGlobal(e.StartPanel),
				EndPanel:    w.ToGlobal(e.EndPanel),
				Title:       e.Title,
				Description: e.Description,
			})
		}
		if n := len(suggested.Episodes); n > 0 {
			last := suggested.Episodes[n-1]
			prior = fmt.Sprintf("previous window ended episode %q at global panel %d", last.Title, w.ToGlobal(last.EndPanel))
		}
	}
	return script.EpisodeBreakPlan{Episodes: candidates}, nil
}

// finalizeEpisodes turns raw candidates into a bounded partition.
func (p *Planner) finalizeEpisodes(raw script.EpisodeBreakPlan, totalPanels int) script.EpisodeBreakPlan {
	plan := segment.Normalize(raw, totalPanels)
	plan = segment.EnforceMaxLength(plan, p.cfg.Episode.MaxUnitsPerEpisode)
	plan = segment.Bundle(plan, segment.BundleConfig{
		MinLength: p.cfg.Episode.MinUnitsPerEpisode,
		Enabled:   p.cfg.Episode.BundlingEnabled,
	}, segment.PanelCountLength)
	return plan
}

func (p *Planner) validateConfig() segment.ValidateConfig {
	return segment.ValidateConfig{
		SmallUnitThreshold: p.cfg.Episode.SmallUnitThreshold,
		MinUnitsPerEpisode: p.cfg.Episode.MinUnitsPerEpisode,
		MaxUnitsPerEpisode: p.cfg.Episode.MaxUnitsPerEpisode,
	}
}

func (p *Planner) fallbackPlan(totalPanels int) script.EpisodeBreakPlan {
	return script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: totalPanels},
	}}
}

// PlanPages returns a monotonic page assignment covering every panel. One
// retry on suggestion failure; small scripts then fall back to a fixed
// panels-per-page split, larger ones surface the failure.
func (p *Planner) PlanPages(ctx context.Context, jobID string, panels []script.Panel) (script.PagePlan, error) {
	if len(panels) == 0 {
		return script.PagePlan{}, fmt.Errorf("job %s has no panels to paginate", jobID)
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		plan, err := p.service.SuggestPages(ctx, suggest.PageRequest{
			JobID:            jobID,
			Panels:           panels,
			MaxPanelsPerPage: p.cfg.Page.MaxPanelsPerPage,
		})
		if err != nil {
			lastErr = err
			p.logger.Warn("page suggestion failed", "job_id", jobID, "attempt", attempt, "error", err)
			continue
		}
		if len(plan.PageOf) != len(panels) || !plan.Monotonic() {
			lastErr = fmt.Errorf("page plan covers %d of %d panels or is not monotonic", len(plan.PageOf), len(panels))
			p.logger.Warn("page plan rejected", "job_id", jobID, "attempt", attempt, "error", lastErr)
			continue
		}
		return plan, nil
	}

	if len(panels) <= p.cfg.Episode.SmallUnitThreshold {
		p.logger.Warn("falling back to fixed page split", "job_id", jobID, "error", lastErr)
		return p.fixedPageSplit(len(panels)), nil
	}
	return script.PagePlan{}, fmt.Errorf("page planning failed for job %s: %w", jobID, lastErr)
}

func (p *Planner) fixedPageSplit(totalPanels int) script.PagePlan {
	perPage := p.cfg.Page.MaxPanelsPerPage
	if perPage <= 0 {
		perPage = 4
	}
	pageOf := make([]int, totalPanels)
	for i := range pageOf {
		pageOf[i] = i/perPage + 1
	}
	return script.PagePlan{PageOf: pageOf}
}

// AlignEpisodesToPages snaps the episode plan onto page boundaries,
// rebundles by distinct page count, and revalidates continuity. An
// inconsistent page plan surfaces as an AlignmentError; it is never
// silently patched.
func (p *Planner) AlignEpisodesToPages(jobID string, episodes script.EpisodeBreakPlan, pages script.PagePlan, totalPanels int) (script.EpisodeBreakPlan, error) {
	aligned, err := segment.AlignToPages(episodes, pages, totalPanels)
	if err != nil {
		return script.EpisodeBreakPlan{}, fmt.Errorf("page alignment failed for job %s: %w", jobID, err)
	}

	aligned = segment.Bundle(aligned, segment.BundleConfig{
		MinLength: p.cfg.Page.MinPagesPerEpisode,
		Enabled:   p.cfg.Page.BundlingEnabled,
	}, segment.PageCountLength(pages))

	// Size bounds were settled in panel terms before alignment; only the
	// partition invariants are rechecked here.
	report := segment.Validate(aligned, totalPanels, segment.ValidateConfig{})
	if !report.Valid {
		return script.EpisodeBreakPlan{}, &segment.ValidationError{Stage: "page alignment", Issues: report.Issues}
	}

	p.logger.Info("episodes aligned to page boundaries",
		"job_id", jobID, "episodes", len(aligned.Episodes), "pages", pages.PageCount())
	return aligned, nil
}
