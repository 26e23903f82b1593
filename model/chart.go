package model

import "encoding/json"

type Tempo struct {
	Tick int `json:"tick"`
	// microseconds per beat
	Value int `json:"value"`
}

type PositionFunction struct {
	Type      int       `json:"Type"`
	Arguments []float64 `json:"Arguments"`
}

type Page struct {
	StartTick         int               `json:"start_tick"`
	EndTick           int               `json:"end_tick"`
	ScanLineDirection int               `json:"scan_line_direction"`
	PositionFunction  *PositionFunction `json:"PositionFunction,omitempty"`
}

func (p Page) ScansUp() bool {
	return p.ScanLineDirection == 1
}

type Chart struct {
	FormatVersion    int     `json:"format_version"`
	TimeBase         int     `json:"time_base"`
	StartOffsetTime  float64 `json:"start_offset_time"`
	EndOffsetTime    float64 `json:"end_offset_time"`
	IsStartWithoutUI bool    `json:"is_start_without_ui"`
	MusicOffset      float64 `json:"music_offset"`

	PageList  []Page  `json:"page_list"`
	TempoList []Tempo `json:"tempo_list"`

	// NOTE: never interpreted, only carried along
	EventOrderList json.RawMessage `json:"event_order_list,omitempty"`

	NoteList []Note `json:"note_list"`
}

type TickPosition int

const (
	NotYet TickPosition = iota
	In
	Past
)

func (p TickPosition) String() string {
	switch p {
	case NotYet:
		return "not-yet"
	case In:
		return "in"
	case Past:
		return "past"
	}
	return "unknown"
}

// ClassifyTick reports where tick lies relative to the half-open range
// [page.StartTick, page.EndTick).
func ClassifyTick(tick int, page Page) TickPosition {
	if tick < page.StartTick {
		return NotYet
	}
	if tick < page.EndTick {
		return In
	}
	return Past
}

// TempoToBPM is not guarded against a zero value, which yields +Inf.
func TempoToBPM(tempo Tempo) float64 {
	return 60000000 / float64(tempo.Value)
}
