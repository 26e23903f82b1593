package model

type NoteType int

const (
	Tap NoteType = iota
	Hold
	LongHold
	DragHead
	DragChild
	Flick
)

func (t NoteType) String() string {
	switch t {
	case Tap:
		return "tap"
	case Hold:
		return "hold"
	case LongHold:
		return "long-hold"
	case DragHead:
		return "drag-head"
	case DragChild:
		return "drag-child"
	case Flick:
		return "flick"
	}
	return "unknown"
}

func (t NoteType) IsHold() bool {
	return t == Hold || t == LongHold
}

type Note struct {
	PageIndex  int      `json:"page_index"`
	Type       NoteType `json:"type"`
	ID         int      `json:"id"`
	Tick       int      `json:"tick"`
	X          float64  `json:"x"`
	HasSibling bool     `json:"has_sibling"`
	HoldTick   int      `json:"hold_tick"`

	// 0 when the note is not part of a drag chain, -1 for the last link,
	// otherwise the id of the next note in the chain
	NextID int `json:"next_id"`

	IsForward     bool    `json:"is_forward,omitempty"`
	NoteDirection int     `json:"NoteDirection,omitempty"`
	ApproachRate  float64 `json:"approach_rate,omitempty"`
}

func (n Note) IsDrag() bool {
	return n.NextID != 0
}

func (n Note) IsChainEnd() bool {
	return n.NextID == -1
}
