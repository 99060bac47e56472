package segment

import (
	"sort"

	"inkplan/internal/script"
)

// Normalize turns raw candidate episodes from the suggestion service into a
// strict, gap-free partition of [1, totalPanels]. Candidates may arrive
// unsorted, duplicated, or with out-of-range boundaries.
//
// The algorithm: sort by episode number, clamp each start into
// [1, totalPanels], keep only strictly increasing starts in order, and
// force the first start to 1. With more than one surviving start, each
// episode ends where the next begins; the last ends at totalPanels. With
// exactly one surviving start the candidate's own end is respected (clamped)
// so a genuinely short script is not artificially expanded to full width.
//
// Normalize is pure and idempotent: normalizing an already-normalized plan
// returns it unchanged.
func Normalize(plan script.EpisodeBreakPlan, totalPanels int) script.EpisodeBreakPlan {
	if totalPanels <= 0 || len(plan.Episodes) == 0 {
		return plan
	}

	candidates := make([]script.Episode, len(plan.Episodes))
	copy(candidates, plan.Episodes)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Number < candidates[j].Number
	})

	// Keep strictly increasing clamped starts; later duplicates lose.
	var kept []script.Episode
	lastStart := 0
	for _, c := range candidates {
		start := clamp(c.StartPanel, 1, totalPanels)
		if start <= lastStart {
			continue
		}
		c.StartPanel = start
		kept = append(kept, c)
		lastStart = start
	}

	if len(kept) == 0 || kept[0].StartPanel != 1 {
		first := script.Episode{StartPanel: 1}
		kept = append([]script.Episode{first}, kept...)
	}

	out := script.EpisodeBreakPlan{Episodes: make([]script.Episode, len(kept))}
	for i, e := range kept {
		e.Number = i + 1
		if i < len(kept)-1 {
			e.EndPanel = kept[i+1].StartPanel - 1
		} else if len(kept) > 1 {
			e.EndPanel = totalPanels
		} else {
			// A single surviving start keeps its proposed end when sane.
			end := clamp(e.EndPanel, e.StartPanel, totalPanels)
			if e.EndPanel < e.StartPanel {
				end = totalPanels
			}
			e.EndPanel = end
		}
		out.Episodes[i] = e
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
