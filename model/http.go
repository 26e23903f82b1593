package model

type ChartSummary struct {
	ID            string `json:"id"`
	PageIndex     int    `json:"page_index"`
	PageCount     int    `json:"page_count"`
	NoteCount     int    `json:"note_count"`
	TempoCount    int    `json:"tempo_count"`
	FormatVersion int    `json:"format_version"`
}

type TempoView struct {
	Tempo
	BPM *float64 `json:"bpm,omitempty"`
}

type PageView struct {
	PageIndex int         `json:"page_index"`
	PageCount int         `json:"page_count"`
	Page      *Page       `json:"page"`
	Notes     []Note      `json:"notes"`
	Tempos    []TempoView `json:"tempos"`
}

type RedrawEvent struct {
	ID        string `json:"id"`
	PageIndex int    `json:"page_index"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
