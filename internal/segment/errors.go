// Package segment implements the deterministic planning algorithms that turn
// noisy boundary suggestions into a strict partition of the panel sequence:
// windowing, normalization, length enforcement, bundling, validation, and
// page alignment. Everything in this package is pure and single-threaded;
// concurrency lives in chunkpool and plancache.
package segment

import (
	"fmt"
	"strings"
)

// ValidationError reports that a plan still violates partition invariants
// after normalization and bundling. It carries the validator's full issue
// list so job-level failure messages can name every problem at once.
type ValidationError struct {
	Stage  string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plan validation failed at stage %q: %s", e.Stage, strings.Join(e.Issues, "; "))
}

// AlignmentError reports that an episode plan and a page plan are mutually
// inconsistent: snapping episode boundaries to page boundaries produced an
// inverted range. This is surfaced rather than silently patched because
// automatic correction risks corrupting the page/episode correspondence.
type AlignmentError struct {
	EpisodeNumber int
	StartPanel    int
	EndPanel      int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("episode %d inverted after page alignment: start %d > end %d",
		e.EpisodeNumber, e.StartPanel, e.EndPanel)
}
