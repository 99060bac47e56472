package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"inkplan/internal/plancache"
	"inkplan/internal/script"
	"inkplan/internal/segment"
	"inkplan/internal/store"
	"inkplan/internal/suggest"
)

func makePanels(n int) []script.Panel {
	panels := make([]script.Panel, n)
	for i := range panels {
		panels[i] = script.Panel{Index: i + 1, Description: fmt.Sprintf("panel %d", i+1)}
	}
	return panels
}

func testConfig() Config {
	return Config{
		Window: segment.WindowConfig{
			MinPanelsForSegmentation: 100,
			WindowSize:               100,
			Overlap:                  10,
		},
		Episode: EpisodeConfig{
			SmallUnitThreshold: 400,
			MinUnitsPerEpisode: 10,
			MaxUnitsPerEpisode: 60,
			BundlingEnabled:    true,
		},
		Page: PageConfig{
			MaxPanelsPerPage:   4,
			MinPagesPerEpisode: 2,
			BundlingEnabled:    true,
		},
	}
}

func newTestCache(t *testing.T) *plancache.Cache {
	t.Helper()
	cache, err := plancache.New(store.NewMemoryStore(), plancache.Config{
		PollInterval: 5 * time.Millisecond,
		WaitTimeout:  200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to build cache: %v", err)
	}
	return cache
}

func assertPartition(t *testing.T, plan script.EpisodeBreakPlan, totalPanels int) {
	t.Helper()
	report := segment.Validate(plan, totalPanels, segment.ValidateConfig{})
	if !report.Valid {
		t.Fatalf("plan violates partition invariants: %v", report.Issues)
	}
}

func TestPlanEpisodesNormalizesNoisySuggestions(t *testing.T) {
	// Duplicated and out-of-order starts from the service still produce a
	// strict partition.
	svc := &suggest.MockService{
		EpisodesFn: func(req suggest.EpisodeRequest) (script.EpisodeBreakPlan, error) {
			return script.EpisodeBreakPlan{Episodes: []script.Episode{
				{Number: 1, StartPanel: 1, EndPanel: 10, Title: "Opening"},
				{Number: 2, StartPanel: 24, EndPanel: 30},
				{Number: 3, StartPanel: 24, EndPanel: 40},
			}}, nil
		},
	}
	p, err := New(svc, newTestCache(t), testConfig())
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	plan, err := p.PlanEpisodes(context.Background(), "job1", makePanels(73))
	if err != nil {
		t.Fatalf("planning failed: %v", err)
	}
	assertPartition(t, plan, 73)
	if len(plan.Episodes) != 2 {
		t.Fatalf("expected 2 episodes after normalization, got %+v", plan.Episodes)
	}
	if plan.Episodes[0].EndPanel != 23 || plan.Episodes[1].StartPanel != 24 {
		t.Fatalf("unexpected boundaries: %+v", plan.Episodes)
	}
}

func TestPlanEpisodesCacheHitSkipsService(t *testing.T) {
	svc := &suggest.MockService{}
	p, err := New(svc, newTestCache(t), testConfig())
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}
	panels := makePanels(40)

	first, err := p.PlanEpisodes(context.Background(), "job1", panels)
	if err != nil {
		t.Fatalf("first planning failed: %v", err)
	}
	callsAfterFirst := svc.EpisodeCalls()
	if callsAfterFirst == 0 {
		t.Fatal("first planning must call the service")
	}

	second, err := p.PlanEpisodes(context.Background(), "job1", panels)
	if err != nil {
		t.Fatalf("second planning failed: %v", err)
	}
	if svc.EpisodeCalls() != callsAfterFirst {
		t.Fatalf("cache hit must issue zero suggestion calls, got %d extra", svc.EpisodeCalls()-callsAfterFirst)
	}
	if len(second.Episodes) != len(first.Episodes) {
		t.Fatalf("cached plan differs: %+v vs %+v", second, first)
	}
}

func TestPlanEpisodesChangedPanelsInvalidateCache(t *testing.T) {
	svc := &suggest.MockService{}
	p, err := New(svc, newTestCache(t), testConfig())
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	if _, err := p.PlanEpisodes(context.Background(), "job1", makePanels(40)); err != nil {
		t.Fatalf("first planning failed: %v", err)
	}
	callsAfterFirst := svc.EpisodeCalls()

	// One more panel changes both hash and count.
	if _, err := p.PlanEpisodes(context.Background(), "job1", makePanels(41)); err != nil {
		t.Fatalf("second planning failed: %v", err)
	}
	if svc.EpisodeCalls() == callsAfterFirst {
		t.Fatal("changed panel sequence must recompute")
	}
}

func TestPlanEpisodesWindowsLargeScript(t *testing.T) {
	var windowSizes []int
	svc := &suggest.MockService{
		EpisodesFn: func(req suggest.EpisodeRequest) (script.EpisodeBreakPlan, error) {
			windowSizes = append(windowSizes, len(req.Panels))
			// One episode per window, locally indexed.
			return script.EpisodeBreakPlan{Episodes: []script.Episode{
				{Number: 1, StartPanel: 1, EndPanel: len(req.Panels)},
			}}, nil
		},
	}
	p, err := New(svc, nil, testConfig())
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	plan, err := p.PlanEpisodes(context.Background(), "job1", makePanels(250))
	if err != nil {
		t.Fatalf("planning failed: %v", err)
	}
	if len(windowSizes) < 2 {
		t.Fatalf("250 panels must produce multiple windows, got %v", windowSizes)
	}
	for _, size := range windowSizes {
		if size > 100 {
			t.Fatalf("window exceeds bound: %v", windowSizes)
		}
	}
	assertPartition(t, plan, 250)
}

func TestPlanEpisodesRetriesOnceThenFallsBack(t *testing.T) {
	svc := &suggest.MockService{
		EpisodesFn: func(req suggest.EpisodeRequest) (script.EpisodeBreakPlan, error) {
			return script.EpisodeBreakPlan{}, errors.New("service down")
		},
	}
	p, err := New(svc, nil, testConfig())
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	// 73 panels is under the small threshold: fallback kicks in.
	plan, err := p.PlanEpisodes(context.Background(), "job1", makePanels(73))
	if err != nil {
		t.Fatalf("small script must fall back, got %v", err)
	}
	if svc.EpisodeCalls() != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", svc.EpisodeCalls())
	}
	if len(plan.Episodes) != 1 || plan.Episodes[0].StartPanel != 1 || plan.Episodes[0].EndPanel != 73 {
		t.Fatalf("expected single-episode fallback, got %+v", plan.Episodes)
	}
}

func TestPlanEpisodesLargeScriptFailureNamesStage(t *testing.T) {
	svc := &suggest.MockService{
		EpisodesFn: func(req suggest.EpisodeRequest) (script.EpisodeBreakPlan, error) {
			return script.EpisodeBreakPlan{}, errors.New("service down")
		},
	}
	cfg := testConfig()
	cfg.Episode.SmallUnitThreshold = 50
	cfg.Window.MinPanelsForSegmentation = 500
	cfg.Window.WindowSize = 500
	p, err := New(svc, nil, cfg)
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	_, err = p.PlanEpisodes(context.Background(), "job1", makePanels(200))
	if err == nil {
		t.Fatal("large script with failing service must fail the job")
	}
	if !strings.Contains(err.Error(), "episode planning failed") {
		t.Fatalf("error must name the failing stage: %v", err)
	}
}

func TestPlanEpisodesValidationFailureIncludesIssues(t *testing.T) {
	// Episodes of length 5 with bundling disabled and min 10: validation
	// fails on both attempts for a large script.
	svc := &suggest.MockService{
		EpisodesFn: func(req suggest.EpisodeRequest) (script.EpisodeBreakPlan, error) {
			episodes := make([]script.Episode, 0, len(req.Panels)/5)
			for start := 1; start <= len(req.Panels); start += 5 {
				episodes = append(episodes, script.Episode{
					Number:     len(episodes) + 1,
					StartPanel: start,
					EndPanel:   start + 4,
				})
			}
			return script.EpisodeBreakPlan{Episodes: episodes}, nil
		},
	}
	cfg := testConfig()
	cfg.Episode.SmallUnitThreshold = 50
	cfg.Episode.BundlingEnabled = false
	cfg.Window.MinPanelsForSegmentation = 500
	cfg.Window.WindowSize = 500
	p, err := New(svc, nil, cfg)
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	_, err = p.PlanEpisodes(context.Background(), "job1", makePanels(200))
	if err == nil {
		t.Fatal("expected validation failure")
	}
	var valErr *segment.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(valErr.Issues) == 0 {
		t.Fatal("validation failure must carry the issue list")
	}
	if svc.EpisodeCalls() != 2 {
		t.Fatalf("expected one retry before failing, got %d calls", svc.EpisodeCalls())
	}
}

func TestPlanPagesAcceptsMonotonicAssignment(t *testing.T) {
	svc := &suggest.MockService{}
	p, err := New(svc, nil, testConfig())
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	plan, err := p.PlanPages(context.Background(), "job1", makePanels(10))
	if err != nil {
		t.Fatalf("page planning failed: %v", err)
	}
	if len(plan.PageOf) != 10 || !plan.Monotonic() {
		t.Fatalf("unexpected page plan: %v", plan.PageOf)
	}
}

func TestPlanPagesFallsBackToFixedSplit(t *testing.T) {
	svc := &suggest.MockService{
		PagesFn: func(req suggest.PageRequest) (script.PagePlan, error) {
			return script.PagePlan{}, errors.New("service down")
		},
	}
	p, err := New(svc, nil, testConfig())
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	plan, err := p.PlanPages(context.Background(), "job1", makePanels(10))
	if err != nil {
		t.Fatalf("small script must fall back: %v", err)
	}
	if svc.PageCalls() != 2 {
		t.Fatalf("expected one retry, got %d calls", svc.PageCalls())
	}
	// 10 panels at 4 per page: pages 1,1,1,1,2,2,2,2,3,3.
	if plan.PageOf[0] != 1 || plan.PageOf[4] != 2 || plan.PageOf[9] != 3 {
		t.Fatalf("unexpected fixed split: %v", plan.PageOf)
	}
}

func TestAlignEpisodesToPagesSnapsAndRebundles(t *testing.T) {
	p, err := New(&suggest.MockService{}, nil, testConfig())
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	// 12 panels, 3 pages of 4. Episode boundary at panel 6 lands mid-page.
	pages := script.PagePlan{PageOf: []int{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3}}
	episodes := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 6},
		{Number: 2, StartPanel: 7, EndPanel: 12},
	}}

	aligned, err := p.AlignEpisodesToPages("job1", episodes, pages, 12)
	if err != nil {
		t.Fatalf("alignment failed: %v", err)
	}
	assertPartition(t, aligned, 12)
	for _, e := range aligned.Episodes {
		if e.StartPanel > 1 && pages.PageOf[e.StartPanel-1] == pages.PageOf[e.StartPanel-2] {
			t.Fatalf("episode start %d not on a page boundary: %+v", e.StartPanel, aligned.Episodes)
		}
	}
}

func TestAlignEpisodesToPagesSurfacesAlignmentError(t *testing.T) {
	p, err := New(&suggest.MockService{}, nil, testConfig())
	if err != nil {
		t.Fatalf("failed to build planner: %v", err)
	}

	// One page covering everything with two episodes: snapping inverts the
	// second episode's range.
	pages := script.PagePlan{PageOf: []int{1, 1, 1, 1, 1, 1, 1, 1}}
	episodes := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 4},
		{Number: 2, StartPanel: 5, EndPanel: 8},
	}}

	_, err = p.AlignEpisodesToPages("job1", episodes, pages, 8)
	if err == nil {
		t.Fatal("expected alignment failure")
	}
	var alignErr *segment.AlignmentError
	if !errors.As(err, &alignErr) {
		t.Fatalf("expected AlignmentError, got %v", err)
	}
}
