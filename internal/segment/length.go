package segment

import "inkplan/internal/script"

// EnforceMaxLength deterministically splits any episode longer than
// maxUnitsPerEpisode into consecutive sub-episodes of at most that many
// panels. The original title and description carry onto the first
// sub-episode only; episodes are renumbered sequentially afterward.
//
// Coverage is preserved exactly and the operation is total: a non-positive
// max returns the plan unchanged.
func EnforceMaxLength(plan script.EpisodeBreakPlan, maxUnitsPerEpisode int) script.EpisodeBreakPlan {
	if maxUnitsPerEpisode <= 0 {
		return plan
	}

	var out []script.Episode
	for _, e := range plan.Episodes {
		if e.Len() <= maxUnitsPerEpisode {
			out = append(out, e)
			continue
		}
		for start := e.StartPanel; start <= e.EndPanel; start += maxUnitsPerEpisode {
			end := start + maxUnitsPerEpisode - 1
			if end > e.EndPanel {
				end = e.EndPanel
			}
			sub := script.Episode{StartPanel: start, EndPanel: end}
			if start == e.StartPanel {
				sub.Title = e.Title
				sub.Description = e.Description
			}
			out = append(out, sub)
		}
	}

	for i := range out {
		out[i].Number = i + 1
	}
	return script.EpisodeBreakPlan{Episodes: out}
}
