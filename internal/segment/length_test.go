package segment

import (
	"testing"

	"inkplan/internal/script"
)

func TestEnforceMaxLengthSplitsOversized(t *testing.T) {
	plan := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 10, Title: "Opening", Description: "The storm"},
		{Number: 2, StartPanel: 11, EndPanel: 45},
	}}

	got := EnforceMaxLength(plan, 10)

	prevEnd := 0
	for _, e := range got.Episodes {
		if e.Len() > 10 {
			t.Fatalf("%s exceeds max length 10", e)
		}
		if e.StartPanel != prevEnd+1 {
			t.Fatalf("coverage broken at %s (prev end %d)", e, prevEnd)
		}
		prevEnd = e.EndPanel
	}
	if prevEnd != 45 {
		t.Fatalf("coverage ends at %d, want 45", prevEnd)
	}

	// 10 + ceil(35/10) = 5 episodes total.
	if len(got.Episodes) != 5 {
		t.Fatalf("expected 5 episodes, got %d: %+v", len(got.Episodes), got.Episodes)
	}
}

func TestEnforceMaxLengthCarriesTitleToFirstSubEpisode(t *testing.T) {
	plan := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 30, Title: "Arc One", Description: "Setup"},
	}}

	got := EnforceMaxLength(plan, 10)

	if got.Episodes[0].Title != "Arc One" || got.Episodes[0].Description != "Setup" {
		t.Fatalf("first sub-episode lost metadata: %+v", got.Episodes[0])
	}
	for _, e := range got.Episodes[1:] {
		if e.Title != "" || e.Description != "" {
			t.Fatalf("metadata leaked onto later sub-episode: %+v", e)
		}
	}
}

func TestEnforceMaxLengthRenumbersSequentially(t *testing.T) {
	plan := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 22},
		{Number: 2, StartPanel: 23, EndPanel: 25},
	}}

	got := EnforceMaxLength(plan, 10)

	for i, e := range got.Episodes {
		if e.Number != i+1 {
			t.Fatalf("episode %d has number %d", i, e.Number)
		}
	}
}

func TestEnforceMaxLengthTotalOperation(t *testing.T) {
	plan := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 100},
	}}

	if got := EnforceMaxLength(plan, 0); len(got.Episodes) != 1 {
		t.Fatalf("non-positive max must be a no-op, got %+v", got.Episodes)
	}
	if got := EnforceMaxLength(script.EpisodeBreakPlan{}, 10); len(got.Episodes) != 0 {
		t.Fatalf("empty plan must stay empty, got %+v", got.Episodes)
	}
}
