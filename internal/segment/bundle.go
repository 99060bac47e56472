package segment

import "inkplan/internal/script"

// BundleConfig controls minimum-size bundling of episodes.
type BundleConfig struct {
	// MinLength is the smallest acceptable episode length, measured by the
	// LengthFunc in use (panel count before page planning, distinct page
	// count after).
	MinLength int

	// Enabled toggles bundling entirely. Disabled bundling returns plans
	// unchanged.
	Enabled bool
}

// LengthFunc measures an episode for bundling purposes.
type LengthFunc func(script.Episode) int

// PanelCountLength measures an episode by the number of panels it covers.
func PanelCountLength(e script.Episode) int {
	return e.Len()
}

// PageCountLength returns a LengthFunc that measures an episode by the
// number of distinct pages it covers under the given page plan. This is the
// metric used after page alignment, since the true per-episode cost is
// rendered page count.
func PageCountLength(pages script.PagePlan) LengthFunc {
	return func(e script.Episode) int {
		count := 0
		last := 0
		for panel := e.StartPanel; panel <= e.EndPanel; panel++ {
			if panel < 1 || panel > len(pages.PageOf) {
				continue
			}
			pg := pages.PageOf[panel-1]
			if pg != last {
				count++
				last = pg
			}
		}
		return count
	}
}

// Bundle greedily merges undersized episodes into neighbors.
//
// The forward pass scans left to right: a short episode is absorbed by the
// next one, which inherits the short episode's start and, when its own
// title or description is empty, the short episode's. The receiver is then
// re-measured at its extended size, so a run of short episodes collapses in
// a single sweep. The tail pass handles the one case the sweep cannot: a
// short final episode merges backward into the previous survivor. Survivors
// are renumbered 1..K.
//
// With bundling disabled or at most one episode the plan is returned
// unchanged. Coverage is always preserved.
func Bundle(plan script.EpisodeBreakPlan, cfg BundleConfig, length LengthFunc) script.EpisodeBreakPlan {
	if !cfg.Enabled || cfg.MinLength <= 0 || len(plan.Episodes) <= 1 {
		return plan
	}

	var out []script.Episode
	var carry *script.Episode
	for i := range plan.Episodes {
		e := plan.Episodes[i]
		if carry != nil {
			e.StartPanel = carry.StartPanel
			if e.Title == "" {
				e.Title = carry.Title
			}
			if e.Description == "" {
				e.Description = carry.Description
			}
			carry = nil
		}
		if length(e) < cfg.MinLength && i < len(plan.Episodes)-1 {
			held := e
			carry = &held
			continue
		}
		out = append(out, e)
	}

	// Tail pass: a still-short last survivor merges backward.
	if len(out) > 1 {
		last := out[len(out)-1]
		if length(last) < cfg.MinLength {
			prev := &out[len(out)-2]
			prev.EndPanel = last.EndPanel
			if prev.Title == "" {
				prev.Title = last.Title
			}
			if prev.Description == "" {
				prev.Description = last.Description
			}
			out = out[:len(out)-1]
		}
	}

	for i := range out {
		out[i].Number = i + 1
	}
	return script.EpisodeBreakPlan{Episodes: out}
}
