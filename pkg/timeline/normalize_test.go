package timeline

import (
	"math"
	"testing"
)

func TestNormalizeChordOrdering(t *testing.T) {
	// Arrival order 64 then 60; chord spreading must order by note.
	events := Timeline{
		{Time: 0, Kind: NoteOn, Note: 64, Velocity: 100},
		{Time: 0, Kind: NoteOn, Note: 60, Velocity: 100},
	}

	result := Normalize(events, Options{ChordGap: 0.01, NoteGap: 0})
	if len(result) != 2 {
		t.Fatalf("Normalize() produced %d events, want 2", len(result))
	}
	if result[0].Note != 60 || result[0].Time != 0 {
		t.Errorf("first event = %+v, want note 60 at 0", result[0])
	}
	if result[1].Note != 64 || math.Abs(result[1].Time-0.01) > 1e-12 {
		t.Errorf("second event = %+v, want note 64 at 0.01", result[1])
	}
}

func TestNormalizeMinimumSpacing(t *testing.T) {
	events := Timeline{
		{Time: 0, Kind: NoteOn, Note: 60, Velocity: 100},
		{Time: 0.005, Kind: NoteOn, Note: 62, Velocity: 100},
	}

	result := Normalize(events, Options{ChordGap: 0.01, NoteGap: 0.03})
	if math.Abs(result[1].Time-0.03) > 1e-12 {
		t.Errorf("second event time = %v, want 0.03", result[1].Time)
	}
}

func TestNormalizeNeverMovesEventsEarlier(t *testing.T) {
	events := Timeline{
		{Time: 0, Kind: NoteOn, Note: 60, Velocity: 100},
		{Time: 0.5, Kind: NoteOff, Note: 60, Velocity: 0},
		{Time: 1.2, Kind: NoteOn, Note: 64, Velocity: 100},
	}

	result := Normalize(events, DefaultOptions())
	for i, ev := range result {
		if ev.Time < events[i].Time {
			t.Errorf("event %d moved earlier: %v < %v", i, ev.Time, events[i].Time)
		}
	}
}

func TestNormalizeMonotonic(t *testing.T) {
	events := Timeline{
		{Time: 0, Kind: NoteOn, Note: 71, Velocity: 100},
		{Time: 0, Kind: NoteOn, Note: 60, Velocity: 100},
		{Time: 0, Kind: NoteOn, Note: 65, Velocity: 100},
		{Time: 0.002, Kind: NoteOn, Note: 48, Velocity: 100},
		{Time: 0.004, Kind: NoteOff, Note: 60, Velocity: 0},
	}

	result := Normalize(events, Options{ChordGap: 0.02, NoteGap: 0.03})
	for i := 1; i < len(result); i++ {
		if result[i].Time < result[i-1].Time {
			t.Errorf("time decreased at index %d: %v < %v", i, result[i].Time, result[i-1].Time)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	events := Timeline{
		{Time: 0, Kind: NoteOn, Note: 60, Velocity: 100},
		{Time: 0, Kind: NoteOn, Note: 64, Velocity: 100},
		{Time: 0.3, Kind: NoteOff, Note: 60, Velocity: 0},
	}

	opts := DefaultOptions()
	once := Normalize(events, opts)
	twice := Normalize(once, opts)

	if len(once) != len(twice) {
		t.Fatalf("second pass changed length: %d != %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("event %d changed on second pass: %+v != %+v", i, once[i], twice[i])
		}
	}
}

func TestNormalizeEmpty(t *testing.T) {
	result := Normalize(Timeline{}, DefaultOptions())
	if len(result) != 0 {
		t.Errorf("Normalize(empty) produced %d events, want 0", len(result))
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		def      float64
		expected float64
	}{
		{"valid value", "0.05", DefaultChordGap, 0.05},
		{"zero is valid", "0", DefaultNoteGap, 0},
		{"empty falls back", "", DefaultChordGap, DefaultChordGap},
		{"non-numeric falls back", "abc", DefaultNoteGap, DefaultNoteGap},
		{"negative falls back", "-0.1", DefaultNoteGap, DefaultNoteGap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseInterval(tt.input, tt.def)
			if result != tt.expected {
				t.Errorf("ParseInterval(%q, %v) = %v, want %v", tt.input, tt.def, result, tt.expected)
			}
		})
	}
}
