// Package session holds the chart being viewed and the page the viewer is
// on, and tells subscribers when either changes.
package session

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/jsphweid/chartview/chart"
	"github.com/jsphweid/chartview/logger"
	"github.com/jsphweid/chartview/model"
	"github.com/jsphweid/chartview/util"
	"github.com/jsphweid/chartview/viewer"
)

// Snapshot is one consistent view of the session. Its chart is never
// mutated after it has been loaded.
type Snapshot struct {
	ID        uuid.UUID
	Chart     *model.Chart
	PageIndex int
}

func (s Snapshot) View() model.PageView {
	return viewer.Render(s.Chart, s.PageIndex)
}

func (s Snapshot) Summary() model.ChartSummary {
	return model.ChartSummary{
		ID:            s.ID.String(),
		PageIndex:     s.PageIndex,
		PageCount:     len(s.Chart.PageList),
		NoteCount:     len(s.Chart.NoteList),
		TempoCount:    len(s.Chart.TempoList),
		FormatVersion: s.Chart.FormatVersion,
	}
}

type Session struct {
	mu   sync.RWMutex
	snap Snapshot

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	// nil when redraws are delivered synchronously
	debounced func(func())
}

// New starts a session on the default chart. A positive redrawDelay
// coalesces bursts of changes into one notification carrying the latest
// state.
func New(redrawDelay time.Duration) *Session {
	s := &Session{
		snap: Snapshot{ID: uuid.New(), Chart: chart.Default()},
		subs: make(map[int]func(Snapshot)),
	}
	if redrawDelay > 0 {
		s.debounced = debounce.New(redrawDelay)
	}
	return s
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// LoadChart replaces the chart wholesale and goes back to the first page.
func (s *Session) LoadChart(c *model.Chart) Snapshot {
	s.mu.Lock()
	s.snap = Snapshot{ID: uuid.New(), Chart: c}
	snap := s.snap
	s.mu.Unlock()

	log := logger.GetLogger()
	log.Info("loaded chart", "id", snap.ID, "pages", len(c.PageList),
		"notes", len(c.NoteList), "tempos", len(c.TempoList))
	for _, issue := range chart.Lint(c) {
		if issue.Severity == chart.Warning {
			log.Warn("chart issue", "id", snap.ID, "issue", issue.Message)
		} else {
			log.Debug("chart issue", "id", snap.ID, "issue", issue.Message)
		}
	}

	s.notify()
	return snap
}

// LoadFile decodes a chart from r and loads it. On error the session is
// left as it was.
func (s *Session) LoadFile(r io.Reader) (Snapshot, error) {
	c, err := chart.Decode(r)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("could not load chart: %w", err)
	}
	return s.LoadChart(c), nil
}

// ChangePage moves by delta pages, staying within the chart. A chart
// without pages keeps the index at 0. The returned snapshot is the one the
// move produced, even if another load has replaced it since.
func (s *Session) ChangePage(delta int) Snapshot {
	return s.movePage(func(current int) int { return current + delta })
}

func (s *Session) SetPageIndex(index int) Snapshot {
	return s.movePage(func(int) int { return index })
}

func (s *Session) movePage(next func(current int) int) Snapshot {
	s.mu.Lock()
	last := len(s.snap.Chart.PageList) - 1
	index := util.Clamp(next(s.snap.PageIndex), 0, last)
	changed := index != s.snap.PageIndex
	s.snap.PageIndex = index
	snap := s.snap
	s.mu.Unlock()

	if changed {
		logger.GetLogger().Debug("page changed", "page", index)
		s.notify()
	}
	return snap
}

// Subscribe registers fn for redraws. fn must not block for long; it runs
// on the goroutine that changed the state, or on the debounce timer.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Session) notify() {
	if s.debounced == nil {
		s.publish()
		return
	}
	s.debounced(s.publish)
}

func (s *Session) publish() {
	snap := s.Snapshot()

	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
