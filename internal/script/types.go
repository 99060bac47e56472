// Package script defines the core content model for the planning engine:
// panels, episode break plans, and page plans. Panels are the atomic units
// produced by chunk conversion; plans are contiguous partitions over them.
package script

import "fmt"

// Dialogue is a single spoken line within a panel.
type Dialogue struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Panel is the smallest ordered content unit in a script.
// Index is 1-based and contiguous within a job's panel sequence.
type Panel struct {
	Index       int        `json:"index"`
	Description string     `json:"description"`
	Dialogues   []Dialogue `json:"dialogues,omitempty"`
	Narration   string     `json:"narration,omitempty"`
}

// Episode is a contiguous range of panels representing one release unit.
// StartPanel and EndPanel are 1-based and inclusive.
type Episode struct {
	Number      int    `json:"number"`
	StartPanel  int    `json:"start_panel"`
	EndPanel    int    `json:"end_panel"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Len returns the number of panels the episode covers.
func (e Episode) Len() int {
	return e.EndPanel - e.StartPanel + 1
}

// EpisodeBreakPlan is an ordered partition of the panel sequence into
// episodes. A valid plan covers [1, totalPanels] with no gaps or overlaps.
type EpisodeBreakPlan struct {
	Episodes []Episode `json:"episodes"`
}

// Clone returns a deep copy of the plan.
func (p EpisodeBreakPlan) Clone() EpisodeBreakPlan {
	out := EpisodeBreakPlan{Episodes: make([]Episode, len(p.Episodes))}
	copy(out.Episodes, p.Episodes)
	return out
}

// TotalPanels returns the end panel of the last episode, or 0 for an
// empty plan.
func (p EpisodeBreakPlan) TotalPanels() int {
	if len(p.Episodes) == 0 {
		return 0
	}
	return p.Episodes[len(p.Episodes)-1].EndPanel
}

// PagePlan assigns every panel to a rendered page. PageOf[i] is the
// 1-based page number of panel i+1. Assignments must be monotonic by
// contiguous run: the page number changes only at run boundaries and
// never returns to an earlier page.
type PagePlan struct {
	PageOf []int `json:"page_of"`
}

// PageCount returns the number of distinct pages in the plan.
func (p PagePlan) PageCount() int {
	count := 0
	last := 0
	for _, pg := range p.PageOf {
		if pg != last {
			count++
			last = pg
		}
	}
	return count
}

// PageRange is a contiguous run of panels sharing one page number.
type PageRange struct {
	Page       int `json:"page"`
	StartPanel int `json:"start_panel"`
	EndPanel   int `json:"end_panel"`
}

// Ranges converts the per-panel assignment into contiguous page ranges,
// in panel order. A new range opens whenever the page number changes.
func (p PagePlan) Ranges() []PageRange {
	var ranges []PageRange
	for i, pg := range p.PageOf {
		panel := i + 1
		if len(ranges) == 0 || ranges[len(ranges)-1].Page != pg {
			ranges = append(ranges, PageRange{Page: pg, StartPanel: panel, EndPanel: panel})
			continue
		}
		ranges[len(ranges)-1].EndPanel = panel
	}
	return ranges
}

// Monotonic reports whether page numbers never return to an earlier page
// once a later page has started.
func (p PagePlan) Monotonic() bool {
	seen := make(map[int]bool)
	last := 0
	for _, pg := range p.PageOf {
		if pg == last {
			continue
		}
		if seen[pg] {
			return false
		}
		seen[pg] = true
		last = pg
	}
	return true
}

// Chunk is a raw text segment of the original input, converted to panels
// independently of its siblings.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ChunkResult is the structured output of converting one chunk.
type ChunkResult struct {
	ChunkIndex    int     `json:"chunk_index"`
	Panels        []Panel `json:"panels"`
	CoverageRatio float64 `json:"coverage_ratio,omitempty"`
}

// RenumberPanels rewrites panel indices to be contiguous and 1-based in
// slice order. Chunk conversion emits per-chunk local indices; after the
// per-chunk outputs are concatenated in chunk order the global sequence
// is renumbered once.
func RenumberPanels(panels []Panel) []Panel {
	out := make([]Panel, len(panels))
	for i, p := range panels {
		p.Index = i + 1
		out[i] = p
	}
	return out
}

// String renders an episode as "E3 [12-40]" for logs and error messages.
func (e Episode) String() string {
	return fmt.Sprintf("E%d [%d-%d]", e.Number, e.StartPanel, e.EndPanel)
}
