package sink

import (
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver

	"github.com/cpayne/midikeys/pkg/timeline"
)

// MIDIPort echoes key actions back out as NoteOn/NoteOff messages on a
// real MIDI output port, so the timeline can be monitored on a synth.
// Symbols map back to notes through the lowest note carrying each symbol.
type MIDIPort struct {
	send     func(midi.Message) error
	notes    map[string]uint8
	mu       sync.Mutex
	sounding map[string]bool
}

// NewMIDIPort opens the named MIDI output port. Call midi.CloseDriver
// when the process is done with MIDI I/O.
func NewMIDIPort(portName string) (*MIDIPort, error) {
	out, err := midi.FindOutPort(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to find MIDI output %q: %w", portName, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to open MIDI output %q: %w", portName, err)
	}
	return &MIDIPort{
		send:     send,
		notes:    reverseKeyMap(),
		sounding: make(map[string]bool),
	}, nil
}

// reverseKeyMap inverts timeline.KeyMap; symbols mapped from more than
// one note resolve to the lowest note.
func reverseKeyMap() map[string]uint8 {
	notes := make(map[string]uint8, len(timeline.KeyMap))
	for _, note := range timeline.WhiteKeys {
		key := timeline.KeyMap[note]
		if _, ok := notes[key]; !ok {
			notes[key] = note
		}
	}
	return notes
}

// Press sends a NoteOn for the key's note. Re-pressing a sounding key
// is ignored so held keys are not retriggered.
func (s *MIDIPort) Press(key string) {
	note, ok := s.notes[key]
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sounding[key] {
		return
	}
	s.sounding[key] = true
	_ = s.send(midi.NoteOn(0, note, 100))
}

// Release sends a NoteOff for the key's note. Releasing an idle key is
// a no-op, which keeps the player's release-all cleanup quiet.
func (s *MIDIPort) Release(key string) {
	note, ok := s.notes[key]
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sounding[key] {
		return
	}
	delete(s.sounding, key)
	_ = s.send(midi.NoteOff(0, note))
}
