// Package midi turns the selection of a page into a standard MIDI file so
// it can be opened in a sequencer next to the chart.
package midi

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jsphweid/chartview/model"
	"github.com/jsphweid/chartview/util"
	"github.com/jsphweid/chartview/viewer"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

var ErrNoPage = errors.New("no such page")

const (
	DefaultTicksPerQuarter = 480

	lowestKey = 36
	keySpan   = 48
	velocity  = 100
)

type timedMessage struct {
	tick int
	// tempo before note off before note on at the same tick
	rank int
	msg  smf.Message
}

// Key maps a horizontal note position in [0, 1] onto four octaves from C2.
func Key(x float64) uint8 {
	key := lowestKey + int(math.Round(x*keySpan))
	return uint8(util.Clamp(key, 0, 127))
}

func ticksPerQuarter(c *model.Chart) int {
	if c.TimeBase <= 0 {
		return DefaultTicksPerQuarter
	}
	return util.Clamp(c.TimeBase, 1, math.MaxInt16)
}

func noteLength(n model.Note, tpq int) int {
	if n.Type.IsHold() {
		return util.Max(n.HoldTick, 1)
	}
	return util.Max(tpq/4, 1)
}

func pageMessages(c *model.Chart, index int, origin int, tpq int) []timedMessage {
	var res []timedMessage
	for _, t := range viewer.SelectTempos(c, index) {
		bpm := model.TempoToBPM(t)
		if math.IsInf(bpm, 0) || math.IsNaN(bpm) || bpm <= 0 {
			continue
		}
		res = append(res, timedMessage{tick: t.Tick - origin, rank: 0, msg: smf.MetaTempo(bpm)})
	}
	for _, n := range viewer.SelectNotes(c, index) {
		ch := uint8(util.Clamp(int(n.Type), 0, 15))
		key := Key(n.X)
		start := n.Tick - origin
		res = append(res,
			timedMessage{tick: start, rank: 2, msg: smf.Message(midi.NoteOn(ch, key, velocity))},
			timedMessage{tick: start + noteLength(n, tpq), rank: 1, msg: smf.Message(midi.NoteOff(ch, key))},
		)
	}
	return res
}

func build(name string, msgs []timedMessage, tpq int) (*smf.SMF, error) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].rank < msgs[j].rank
	})

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(name))
	var last int
	for _, m := range msgs {
		// ticks before the origin are pulled up to it
		tick := util.Max(m.tick, 0)
		track.Add(uint32(tick-last), m.msg)
		last = tick
	}
	track.Close(0)

	res := smf.New()
	res.TimeFormat = smf.MetricTicks(tpq)
	if err := res.Add(track); err != nil {
		return nil, fmt.Errorf("could not add track: %w", err)
	}
	return res, nil
}

// FromPage exports the notes and tempos shown for one page, with ticks
// relative to the start of the page.
func FromPage(c *model.Chart, index int) (*smf.SMF, error) {
	page, ok := viewer.FetchPage(c, index)
	if !ok {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoPage, index, len(c.PageList))
	}
	tpq := ticksPerQuarter(c)
	msgs := pageMessages(c, index, page.StartTick, tpq)
	return build(fmt.Sprintf("page %d", index), msgs, tpq)
}

// FromChart exports every page one after another, keeping chart ticks.
func FromChart(c *model.Chart) (*smf.SMF, error) {
	tpq := ticksPerQuarter(c)
	var msgs []timedMessage
	for i := range c.PageList {
		msgs = append(msgs, pageMessages(c, i, 0, tpq)...)
	}
	return build("chart", msgs, tpq)
}

func Write(w io.Writer, s *smf.SMF) error {
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("could not write midi: %w", err)
	}
	return nil
}
