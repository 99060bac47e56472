package segment

import (
	"testing"

	"inkplan/internal/script"
)

func TestBundleMergesShortIntoNext(t *testing.T) {
	plan := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 3, Title: "Cold open"},
		{Number: 2, StartPanel: 4, EndPanel: 30},
		{Number: 3, StartPanel: 31, EndPanel: 60},
	}}

	got := Bundle(plan, BundleConfig{Enabled: true, MinLength: 10}, PanelCountLength)

	if len(got.Episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %+v", got.Episodes)
	}
	first := got.Episodes[0]
	if first.StartPanel != 1 || first.EndPanel != 30 {
		t.Fatalf("receiver did not absorb short episode: %+v", first)
	}
	if first.Title != "Cold open" {
		t.Fatalf("empty receiver title should be filled from short episode, got %q", first.Title)
	}
}

func TestBundleReceiverKeepsOwnTitle(t *testing.T) {
	plan := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 2, Title: "Short"},
		{Number: 2, StartPanel: 3, EndPanel: 40, Title: "Main"},
	}}

	got := Bundle(plan, BundleConfig{Enabled: true, MinLength: 5}, PanelCountLength)

	if got.Episodes[0].Title != "Main" {
		t.Fatalf("receiver's own title must win, got %q", got.Episodes[0].Title)
	}
}

func TestBundleTailMergesBackward(t *testing.T) {
	plan := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 40},
		{Number: 2, StartPanel: 41, EndPanel: 43},
	}}

	got := Bundle(plan, BundleConfig{Enabled: true, MinLength: 10}, PanelCountLength)

	if len(got.Episodes) != 1 {
		t.Fatalf("short tail should merge backward, got %+v", got.Episodes)
	}
	if got.Episodes[0].EndPanel != 43 {
		t.Fatalf("backward merge lost coverage: %+v", got.Episodes[0])
	}
}

func TestBundleAllShortEpisodesCollapse(t *testing.T) {
	// Ten episodes of 3 panels each, min length 10: coverage must survive
	// and at least one episode must reach the minimum.
	var eps []script.Episode
	for i := 0; i < 10; i++ {
		eps = append(eps, script.Episode{
			Number:     i + 1,
			StartPanel: i*3 + 1,
			EndPanel:   i*3 + 3,
		})
	}
	plan := script.EpisodeBreakPlan{Episodes: eps}

	got := Bundle(plan, BundleConfig{Enabled: true, MinLength: 10}, PanelCountLength)

	if len(got.Episodes) == 0 {
		t.Fatal("bundling produced an empty plan")
	}
	if got.Episodes[0].StartPanel != 1 || got.Episodes[len(got.Episodes)-1].EndPanel != 30 {
		t.Fatalf("coverage lost: %+v", got.Episodes)
	}
	met := false
	prevEnd := 0
	for _, e := range got.Episodes {
		if e.StartPanel != prevEnd+1 {
			t.Fatalf("gap at %s", e)
		}
		if e.Len() >= 10 {
			met = true
		}
		prevEnd = e.EndPanel
	}
	if !met {
		t.Fatalf("no episode reached the minimum: %+v", got.Episodes)
	}
}

func TestBundleDisabledReturnsUnchanged(t *testing.T) {
	plan := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 2},
		{Number: 2, StartPanel: 3, EndPanel: 4},
	}}

	got := Bundle(plan, BundleConfig{Enabled: false, MinLength: 10}, PanelCountLength)

	if len(got.Episodes) != 2 {
		t.Fatalf("disabled bundling must not merge, got %+v", got.Episodes)
	}
}

func TestBundleByPageCount(t *testing.T) {
	// Pages: panels 1-4 page 1, 5-8 page 2, 9-12 page 3, 13-16 page 4.
	pages := script.PagePlan{PageOf: []int{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}}
	plan := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 4},  // 1 page
		{Number: 2, StartPanel: 5, EndPanel: 16}, // 3 pages
	}}

	got := Bundle(plan, BundleConfig{Enabled: true, MinLength: 2}, PageCountLength(pages))

	if len(got.Episodes) != 1 {
		t.Fatalf("1-page episode should merge forward, got %+v", got.Episodes)
	}
	if got.Episodes[0].StartPanel != 1 || got.Episodes[0].EndPanel != 16 {
		t.Fatalf("merged range wrong: %+v", got.Episodes[0])
	}
}
