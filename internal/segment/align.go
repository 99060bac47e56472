package segment

import (
	"fmt"

	"inkplan/internal/script"
)

// AlignToPages snaps an episode plan onto an independently computed page
// plan so no episode spans a partial page. Each episode's start is moved to
// the first panel of the page containing it and its end to the last panel
// of the page containing it; continuity is then forced explicitly (first
// start 1, last end totalPanels, every other start follows the previous
// snapped end).
//
// If snapping inverts any episode (end < start) the two plans are mutually
// inconsistent and AlignToPages fails with an *AlignmentError rather than
// patching silently.
func AlignToPages(plan script.EpisodeBreakPlan, pages script.PagePlan, totalPanels int) (script.EpisodeBreakPlan, error) {
	if len(plan.Episodes) == 0 {
		return plan, nil
	}
	ranges := pages.Ranges()
	if len(ranges) == 0 {
		return script.EpisodeBreakPlan{}, fmt.Errorf("page plan is empty, cannot align %d episodes", len(plan.Episodes))
	}

	out := plan.Clone()
	for i := range out.Episodes {
		e := &out.Episodes[i]
		startRange, err := rangeContaining(ranges, e.StartPanel)
		if err != nil {
			return script.EpisodeBreakPlan{}, fmt.Errorf("episode %d start: %w", e.Number, err)
		}
		endRange, err := rangeContaining(ranges, e.EndPanel)
		if err != nil {
			return script.EpisodeBreakPlan{}, fmt.Errorf("episode %d end: %w", e.Number, err)
		}
		e.StartPanel = startRange.StartPanel
		e.EndPanel = endRange.EndPanel
	}

	// Force continuity on the snapped boundaries.
	for i := range out.Episodes {
		e := &out.Episodes[i]
		if i == 0 {
			e.StartPanel = 1
		} else {
			e.StartPanel = out.Episodes[i-1].EndPanel + 1
		}
		if i == len(out.Episodes)-1 {
			e.EndPanel = totalPanels
		}
		if e.EndPanel < e.StartPanel {
			return script.EpisodeBreakPlan{}, &AlignmentError{
				EpisodeNumber: e.Number,
				StartPanel:    e.StartPanel,
				EndPanel:      e.EndPanel,
			}
		}
	}
	return out, nil
}

// rangeContaining finds the page range covering the given panel. Ranges are
// in panel order, so a linear scan is fine at plan sizes.
func rangeContaining(ranges []script.PageRange, panel int) (script.PageRange, error) {
	for _, r := range ranges {
		if panel >= r.StartPanel && panel <= r.EndPanel {
			return r, nil
		}
	}
	return script.PageRange{}, fmt.Errorf("panel %d is not covered by any page range", panel)
}
