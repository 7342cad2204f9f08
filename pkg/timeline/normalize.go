package timeline

import (
	"sort"
	"strconv"
)

// Default minimum gaps, in seconds.
const (
	DefaultChordGap = 0.01
	DefaultNoteGap  = 0.03
)

// chordEpsilon is the window within which events count as simultaneous.
const chordEpsilon = 1e-9

// Options control normalization gaps.
type Options struct {
	ChordGap float64 // minimum gap between members of one chord
	NoteGap  float64 // minimum gap between consecutive events
}

// DefaultOptions returns the standard gaps.
func DefaultOptions() Options {
	return Options{ChordGap: DefaultChordGap, NoteGap: DefaultNoteGap}
}

// ParseInterval parses a user-supplied interval string, falling back to
// def when the input is not a valid non-negative number.
func ParseInterval(s string, def float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// Normalize spreads simultaneous chord members apart and enforces a
// minimum gap between consecutive events so a one-key-at-a-time output
// can realize the timeline. Events are only ever moved later, never
// earlier. An empty input yields an empty output.
func Normalize(events Timeline, opts Options) Timeline {
	if len(events) == 0 {
		return Timeline{}
	}

	spread := spreadChords(events, opts.ChordGap)
	sort.SliceStable(spread, func(i, j int) bool { return spread[i].Time < spread[j].Time })

	adjusted := make(Timeline, 0, len(spread))
	adjusted = append(adjusted, spread[0])
	for i := 1; i < len(spread); i++ {
		ev := spread[i]
		if floor := adjusted[len(adjusted)-1].Time + opts.NoteGap; ev.Time < floor {
			ev.Time = floor
		}
		adjusted = append(adjusted, ev)
	}
	sort.SliceStable(adjusted, func(i, j int) bool { return adjusted[i].Time < adjusted[j].Time })
	return adjusted
}

// spreadChords groups events whose times coincide within chordEpsilon,
// orders each group by note ascending, and offsets the k-th member by
// k*gap from the group's base time.
func spreadChords(events Timeline, gap float64) Timeline {
	out := make(Timeline, 0, len(events))
	for i := 0; i < len(events); {
		base := events[i].Time
		j := i + 1
		for j < len(events) && absFloat(events[j].Time-base) < chordEpsilon {
			j++
		}
		group := make(Timeline, j-i)
		copy(group, events[i:j])
		sort.SliceStable(group, func(a, b int) bool { return group[a].Note < group[b].Note })
		for k, ev := range group {
			ev.Time = base + float64(k)*gap
			out = append(out, ev)
		}
		i = j
	}
	return out
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
