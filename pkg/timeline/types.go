// Package timeline converts Standard MIDI Files into time-ordered
// press/release note events ready for real-time playback.
package timeline

import "sort"

// EventKind identifies the playback-relevant MIDI message kinds.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	SetTempo
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note_on"
	case NoteOff:
		return "note_off"
	case SetTempo:
		return "set_tempo"
	default:
		return "unknown"
	}
}

// TimedMessage is a MIDI message tagged with its absolute tick,
// produced while merging tracks.
type TimedMessage struct {
	Tick     int64
	Kind     EventKind
	Note     uint8
	Velocity uint8
	Tempo    uint32 // microseconds per quarter note, SetTempo only
}

// NoteEvent is a note action scheduled at an absolute time offset
// (seconds from the start of playback).
type NoteEvent struct {
	Time     float64
	Kind     EventKind
	Note     uint8
	Velocity uint8
}

// Timeline is an ordered sequence of note events, non-decreasing in time.
type Timeline []NoteEvent

// Duration returns the time of the last event, or 0 for an empty timeline.
func (t Timeline) Duration() float64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Time
}

// Notes returns the distinct note numbers appearing in the timeline,
// sorted ascending.
func (t Timeline) Notes() []uint8 {
	seen := make(map[uint8]bool)
	var notes []uint8
	for _, ev := range t {
		if !seen[ev.Note] {
			seen[ev.Note] = true
			notes = append(notes, ev.Note)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i] < notes[j] })
	return notes
}
