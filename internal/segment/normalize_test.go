package segment

import (
	"reflect"
	"testing"

	"inkplan/internal/script"
)

func TestNormalizeDropsDuplicatesAndCovers(t *testing.T) {
	// 73 panels, raw candidates with a duplicated start at 24.
	raw := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 10},
		{Number: 2, StartPanel: 24, EndPanel: 30},
		{Number: 3, StartPanel: 24, EndPanel: 40},
	}}

	got := Normalize(raw, 73)

	want := []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 23},
		{Number: 2, StartPanel: 24, EndPanel: 73},
	}
	if !reflect.DeepEqual(got.Episodes, want) {
		t.Fatalf("normalize mismatch:\n got %+v\nwant %+v", got.Episodes, want)
	}

	report := Validate(got, 73, ValidateConfig{})
	if !report.Valid || len(report.Issues) != 0 {
		t.Fatalf("normalized plan should validate cleanly, got %+v", report)
	}
}

func TestNormalizeSingleStartRespectsProposedEnd(t *testing.T) {
	raw := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 1, EndPanel: 5},
	}}

	got := Normalize(raw, 400)

	if len(got.Episodes) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(got.Episodes))
	}
	if got.Episodes[0].EndPanel != 5 {
		t.Fatalf("short script expanded artificially: end %d, want 5", got.Episodes[0].EndPanel)
	}
}

func TestNormalizePrependsFirstEpisode(t *testing.T) {
	raw := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: 12, EndPanel: 40},
	}}

	got := Normalize(raw, 50)

	if len(got.Episodes) != 2 {
		t.Fatalf("expected prepended episode, got %+v", got.Episodes)
	}
	if got.Episodes[0].StartPanel != 1 || got.Episodes[0].EndPanel != 11 {
		t.Fatalf("prepended episode wrong: %+v", got.Episodes[0])
	}
	if got.Episodes[1].StartPanel != 12 || got.Episodes[1].EndPanel != 50 {
		t.Fatalf("second episode wrong: %+v", got.Episodes[1])
	}
}

func TestNormalizeClampsOutOfRangeStarts(t *testing.T) {
	raw := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 1, StartPanel: -3},
		{Number: 2, StartPanel: 10},
		{Number: 3, StartPanel: 999},
	}}

	got := Normalize(raw, 30)

	report := Validate(got, 30, ValidateConfig{})
	if !report.Valid {
		t.Fatalf("clamped plan invalid: %v", report.Issues)
	}
	if got.Episodes[len(got.Episodes)-1].EndPanel != 30 {
		t.Fatalf("last episode must end at 30: %+v", got.Episodes)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 3, StartPanel: 50, EndPanel: 60},
		{Number: 1, StartPanel: 1, EndPanel: 20},
		{Number: 2, StartPanel: 21, EndPanel: 49},
		{Number: 4, StartPanel: 50, EndPanel: 70},
	}}

	once := Normalize(raw, 80)
	twice := Normalize(once, 80)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize not idempotent:\n once %+v\ntwice %+v", once.Episodes, twice.Episodes)
	}
}

func TestNormalizeNoOpOnEmptyInput(t *testing.T) {
	empty := script.EpisodeBreakPlan{}
	if got := Normalize(empty, 10); len(got.Episodes) != 0 {
		t.Fatalf("empty plan should pass through, got %+v", got.Episodes)
	}

	raw := script.EpisodeBreakPlan{Episodes: []script.Episode{{Number: 1, StartPanel: 1, EndPanel: 5}}}
	if got := Normalize(raw, 0); !reflect.DeepEqual(got, raw) {
		t.Fatalf("non-positive totalPanels should pass through, got %+v", got.Episodes)
	}
}

func TestPipelinePartitionsExactly(t *testing.T) {
	// Normalize -> EnforceMaxLength -> Bundle(disabled) -> Validate must
	// partition [1,N] exactly for messy input.
	raw := script.EpisodeBreakPlan{Episodes: []script.Episode{
		{Number: 5, StartPanel: 90, EndPanel: 95},
		{Number: 1, StartPanel: -10, EndPanel: 2},
		{Number: 2, StartPanel: 15, EndPanel: 200},
		{Number: 3, StartPanel: 15, EndPanel: 44},
		{Number: 4, StartPanel: 60, EndPanel: 61},
	}}
	const totalPanels = 120

	plan := Normalize(raw, totalPanels)
	plan = EnforceMaxLength(plan, 25)
	plan = Bundle(plan, BundleConfig{Enabled: false, MinLength: 10}, PanelCountLength)

	report := Validate(plan, totalPanels, ValidateConfig{MaxUnitsPerEpisode: 25})
	if !report.Valid {
		t.Fatalf("pipeline output invalid: %v", report.Issues)
	}

	covered := 0
	prevEnd := 0
	for _, e := range plan.Episodes {
		if e.StartPanel != prevEnd+1 {
			t.Fatalf("gap or overlap at %s (prev end %d)", e, prevEnd)
		}
		covered += e.Len()
		prevEnd = e.EndPanel
	}
	if covered != totalPanels {
		t.Fatalf("coverage %d != %d", covered, totalPanels)
	}
}
