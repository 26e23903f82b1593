// Package viewer picks out the notes and tempo events that belong to one
// page of a chart.
package viewer

import (
	"math"

	"github.com/jsphweid/chartview/model"
)

// FetchPage returns the page at index, or false when there is none.
func FetchPage(c *model.Chart, index int) (model.Page, bool) {
	if index < 0 || index >= len(c.PageList) {
		return model.Page{}, false
	}
	return c.PageList[index], true
}

// selectInPage walks items from the start and keeps those inside page. The
// walk ends at the first item past the page, so items must be sorted by
// tick; an out-of-order item with a large tick hides everything after it.
func selectInPage[A any](items []A, tickOf func(A) int, page model.Page) []A {
	res := make([]A, 0)
	for _, item := range items {
		pos := model.ClassifyTick(tickOf(item), page)
		if pos == model.Past {
			break
		}
		if pos == model.In {
			res = append(res, item)
		}
	}
	return res
}

func SelectNotes(c *model.Chart, index int) []model.Note {
	page, ok := FetchPage(c, index)
	if !ok {
		return []model.Note{}
	}
	return selectInPage(c.NoteList, func(n model.Note) int { return n.Tick }, page)
}

func SelectTempos(c *model.Chart, index int) []model.Tempo {
	page, ok := FetchPage(c, index)
	if !ok {
		return []model.Tempo{}
	}
	return selectInPage(c.TempoList, func(t model.Tempo) int { return t.Tick }, page)
}

func Render(c *model.Chart, index int) model.PageView {
	view := model.PageView{
		PageIndex: index,
		PageCount: len(c.PageList),
		Notes:     SelectNotes(c, index),
		Tempos:    make([]model.TempoView, 0),
	}
	if page, ok := FetchPage(c, index); ok {
		view.Page = &page
	}
	for _, t := range SelectTempos(c, index) {
		tv := model.TempoView{Tempo: t}
		// JSON has no way to spell Inf
		if bpm := model.TempoToBPM(t); !math.IsInf(bpm, 0) && !math.IsNaN(bpm) {
			tv.BPM = &bpm
		}
		view.Tempos = append(view.Tempos, tv)
	}
	return view
}
