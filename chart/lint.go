package chart

import (
	"fmt"

	"github.com/jsphweid/chartview/model"
)

type Severity int

const (
	Info Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "info"
}

type Issue struct {
	Severity Severity
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%v: %v", i.Severity, i.Message)
}

// Lint reports problems that do not stop a chart from loading. Unsorted
// note or tempo lists are warnings because page selection stops at the
// first entry past the page, so out-of-order entries hide later ones.
func Lint(c *model.Chart) []Issue {
	var issues []Issue
	add := func(s Severity, format string, args ...any) {
		issues = append(issues, Issue{Severity: s, Message: fmt.Sprintf(format, args...)})
	}

	if len(c.PageList) == 0 {
		add(Warning, "page_list is empty")
	}
	for i, p := range c.PageList {
		if p.StartTick > p.EndTick {
			add(Warning, "page %d: start_tick %d is after end_tick %d", i, p.StartTick, p.EndTick)
		}
	}

	for i := 1; i < len(c.NoteList); i++ {
		if c.NoteList[i].Tick < c.NoteList[i-1].Tick {
			add(Warning, "note_list is not sorted by tick (index %d: %d after %d)",
				i, c.NoteList[i].Tick, c.NoteList[i-1].Tick)
			break
		}
	}
	for i := 1; i < len(c.TempoList); i++ {
		if c.TempoList[i].Tick < c.TempoList[i-1].Tick {
			add(Warning, "tempo_list is not sorted by tick (index %d: %d after %d)",
				i, c.TempoList[i].Tick, c.TempoList[i-1].Tick)
			break
		}
	}
	for i, t := range c.TempoList {
		if t.Value == 0 {
			add(Warning, "tempo %d at tick %d has value 0", i, t.Tick)
		}
	}

	ids := make(map[int]bool, len(c.NoteList))
	for _, n := range c.NoteList {
		ids[n.ID] = true
	}
	for _, n := range c.NoteList {
		if n.X < 0 || n.X > 1 {
			add(Info, "note %d: x %v outside [0, 1]", n.ID, n.X)
		}
		if n.IsDrag() && !n.IsChainEnd() && !ids[n.NextID] {
			add(Info, "note %d: next_id %d does not exist", n.ID, n.NextID)
		}
	}

	return issues
}
