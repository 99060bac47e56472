package segment

import "inkplan/internal/script"

// WindowConfig controls how an oversized panel sequence is split into
// bounded-size windows before being sent to the suggestion service.
type WindowConfig struct {
	// MinPanelsForSegmentation is the size below which the whole sequence
	// is sent as a single window.
	MinPanelsForSegmentation int

	// WindowSize is the maximum number of panels per window.
	WindowSize int

	// Overlap is the number of panels shared between consecutive windows.
	// Overlapping context helps the suggestion service place boundaries
	// near window edges.
	Overlap int
}

// Window is a bounded slice of the panel sequence with local 1-based
// indices. IndexMap translates a local index back to the global one:
// IndexMap[local-1] == global.
type Window struct {
	Panels   []script.Panel
	IndexMap []int
}

// SplitWindows cuts the panel sequence into consecutive, optionally
// overlapping windows. Sequences at or below MinPanelsForSegmentation come
// back as a single window covering everything. Empty input yields zero
// windows. The operation is total; there are no error conditions.
func SplitWindows(panels []script.Panel, cfg WindowConfig) []Window {
	total := len(panels)
	if total == 0 {
		return nil
	}
	if total <= cfg.MinPanelsForSegmentation || cfg.WindowSize <= 0 || total <= cfg.WindowSize {
		return []Window{makeWindow(panels, 0, total)}
	}

	step := cfg.WindowSize - cfg.Overlap
	if step < 1 {
		step = 1
	}

	var windows []Window
	for start := 0; start < total; start += step {
		end := start + cfg.WindowSize
		if end > total {
			end = total
		}
		windows = append(windows, makeWindow(panels, start, end))
		if end == total {
			break
		}
	}
	return windows
}

// makeWindow copies panels[start:end] with local indices 1..n and records
// the local-to-global mapping.
func makeWindow(panels []script.Panel, start, end int) Window {
	w := Window{
		Panels:   make([]script.Panel, end-start),
		IndexMap: make([]int, end-start),
	}
	for i := start; i < end; i++ {
		local := i - start
		p := panels[i]
		w.IndexMap[local] = p.Index
		p.Index = local + 1
		w.Panels[local] = p
	}
	return w
}

// ToGlobal translates a local panel index from this window back to its
// global index. Out-of-range locals are clamped to the window edges so a
// suggestion that overshoots a window still lands inside it.
func (w Window) ToGlobal(local int) int {
	if len(w.IndexMap) == 0 {
		return local
	}
	if local < 1 {
		return w.IndexMap[0]
	}
	if local > len(w.IndexMap) {
		return w.IndexMap[len(w.IndexMap)-1]
	}
	return w.IndexMap[local-1]
}
