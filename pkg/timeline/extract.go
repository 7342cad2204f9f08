package timeline

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// DefaultTempo is the tempo assumed until the first SetTempo event,
// in microseconds per quarter note (120 BPM).
const DefaultTempo = 500000

// ExtractFile reads a Standard MIDI File and extracts its raw timeline.
func ExtractFile(filename string) (Timeline, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return Extract(data)
}

// Extract parses SMF data and converts it into a time-ordered timeline.
// All tracks are merged into one tick-ordered stream, then walked with
// the tempo map to assign each note event an absolute time in seconds.
// A parse failure yields no partial timeline.
func Extract(data []byte) (Timeline, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	resolution := uint16(480)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		resolution = mt.Resolution()
	}

	merged := mergeTracks(s.Tracks)
	return applyTempo(merged, resolution), nil
}

// mergeTracks accumulates each track's delta ticks into absolute ticks,
// keeps the playback-relevant messages, and sorts the concatenation by
// tick. The sort is stable so equal-tick messages retain their original
// per-track order.
func mergeTracks(tracks []smf.Track) []TimedMessage {
	var merged []TimedMessage

	for _, track := range tracks {
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			msg := ev.Message

			// Set Tempo meta event: FF 51 03 tt tt tt
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				tempo := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				merged = append(merged, TimedMessage{Tick: tick, Kind: SetTempo, Tempo: tempo})
				continue
			}

			if len(msg) < 3 {
				continue
			}
			status := msg[0]
			switch {
			case status >= 0x90 && status <= 0x9F:
				merged = append(merged, TimedMessage{Tick: tick, Kind: NoteOn, Note: msg[1], Velocity: msg[2]})
			case status >= 0x80 && status <= 0x8F:
				merged = append(merged, TimedMessage{Tick: tick, Kind: NoteOff, Note: msg[1], Velocity: msg[2]})
			}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Tick < merged[j].Tick })
	return merged
}

// applyTempo walks the tick-ordered stream converting tick deltas into
// seconds under the current tempo. A tempo change affects only the
// deltas after it, never retroactively.
func applyTempo(merged []TimedMessage, resolution uint16) Timeline {
	events := make(Timeline, 0, len(merged))
	currentTime := 0.0
	prevTick := int64(0)
	currentTempo := uint32(DefaultTempo)

	for _, msg := range merged {
		deltaTick := msg.Tick - prevTick
		if deltaTick < 0 {
			deltaTick = 0
		}
		if deltaTick > 0 {
			currentTime += float64(deltaTick) * (float64(currentTempo) / 1e6) / float64(resolution)
		}
		prevTick = msg.Tick

		if msg.Kind == SetTempo {
			if msg.Tempo > 0 {
				currentTempo = msg.Tempo
			}
			continue
		}
		events = append(events, NoteEvent{
			Time:     currentTime,
			Kind:     msg.Kind,
			Note:     msg.Note,
			Velocity: msg.Velocity,
		})
	}

	// Interleaved tempo changes can leave pathological files locally
	// out of order; time order is authoritative for playback.
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time < events[j].Time })
	return events
}
