package segment

import (
	"fmt"

	"inkplan/internal/script"
)

// ValidateConfig holds the size bounds the validator enforces.
type ValidateConfig struct {
	// SmallUnitThreshold waives the minimum-length check for tiny scripts:
	// when totalPanels is at or below it, episodes shorter than
	// MinUnitsPerEpisode are accepted.
	SmallUnitThreshold int

	// MinUnitsPerEpisode is the smallest acceptable episode, in panels.
	// Zero disables the check.
	MinUnitsPerEpisode int

	// MaxUnitsPerEpisode is the largest acceptable episode, in panels.
	// Zero disables the check.
	MaxUnitsPerEpisode int
}

// Report is the validator's full finding. Issues lists every violation
// found, not just the first.
type Report struct {
	Valid  bool
	Issues []string
}

// Validate checks a plan against the partition invariants: continuity
// (each start is the previous end plus one, the first start is 1, the last
// end is totalPanels), ordering (start <= end), and length bounds. All
// violations are collected; Validate never fails.
func Validate(plan script.EpisodeBreakPlan, totalPanels int, cfg ValidateConfig) Report {
	var issues []string

	if len(plan.Episodes) == 0 {
		if totalPanels > 0 {
			issues = append(issues, fmt.Sprintf("plan has no episodes but script has %d panels", totalPanels))
		}
		return Report{Valid: len(issues) == 0, Issues: issues}
	}

	waiveMin := cfg.SmallUnitThreshold > 0 && totalPanels <= cfg.SmallUnitThreshold

	prevEnd := 0
	for i, e := range plan.Episodes {
		if i == 0 {
			if e.StartPanel != 1 {
				issues = append(issues, fmt.Sprintf("%s: first episode must start at panel 1, got %d", e, e.StartPanel))
			}
		} else if e.StartPanel != prevEnd+1 {
			issues = append(issues, fmt.Sprintf("%s: start %d is not continuous with previous end %d", e, e.StartPanel, prevEnd))
		}

		if e.StartPanel > e.EndPanel {
			issues = append(issues, fmt.Sprintf("%s: start %d exceeds end %d", e, e.StartPanel, e.EndPanel))
		} else {
			length := e.Len()
			if cfg.MaxUnitsPerEpisode > 0 && length > cfg.MaxUnitsPerEpisode {
				issues = append(issues, fmt.Sprintf("%s: length %d exceeds maximum %d", e, length, cfg.MaxUnitsPerEpisode))
			}
			if cfg.MinUnitsPerEpisode > 0 && length < cfg.MinUnitsPerEpisode && !waiveMin {
				issues = append(issues, fmt.Sprintf("%s: length %d is below minimum %d", e, length, cfg.MinUnitsPerEpisode))
			}
		}

		prevEnd = e.EndPanel
	}

	last := plan.Episodes[len(plan.Episodes)-1]
	if last.EndPanel != totalPanels {
		issues = append(issues, fmt.Sprintf("%s: last episode ends at %d, script has %d panels", last, last.EndPanel, totalPanels))
	}

	return Report{Valid: len(issues) == 0, Issues: issues}
}
