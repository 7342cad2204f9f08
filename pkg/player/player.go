// Package player schedules a normalized timeline against an output sink
// in real time.
package player

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cpayne/midikeys/pkg/timeline"
)

// ErrNothingToPlay is returned by Start when the timeline is empty.
var ErrNothingToPlay = errors.New("nothing to play, load a MIDI file first")

// pollInterval bounds scheduling jitter; the dispatch loop re-checks the
// clock and the stop flag at this granularity.
const pollInterval = time.Millisecond

// Sink receives the key actions produced during playback. Calls are
// synchronous and best-effort; the player never inspects their outcome.
type Sink interface {
	Press(key string)
	Release(key string)
}

// Player replays one timeline at a time against a Sink. At most one
// playback session is active; starting a new one stops and joins the
// previous session first.
type Player struct {
	sink   Sink
	logger *zap.Logger
	onDone func()

	mu      sync.Mutex
	current *session
}

// session is a single playback run. The timeline is read-only for the
// session's lifetime; stop is the cooperative cancellation flag and done
// closes after all held keys have been released.
type session struct {
	events timeline.Timeline
	stop   atomic.Bool
	done   chan struct{}
}

// New creates a Player dispatching to sink. A nil logger disables logging.
func New(sink Sink, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{sink: sink, logger: logger}
}

// SetOnDone registers fn to run every time a session ends, whether by
// natural completion or cancellation, after all held keys have been
// released. Must be called before Start.
func (p *Player) SetOnDone(fn func()) {
	p.onDone = fn
}

// Start begins playback of events on a new goroutine. Any playback
// already in progress is stopped and joined before the new session
// starts, so sessions never overlap.
func (p *Player) Start(events timeline.Timeline) error {
	if len(events) == 0 {
		return ErrNothingToPlay
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	s := &session{events: events, done: make(chan struct{})}
	p.current = s
	p.logger.Info("playback started",
		zap.Int("events", len(events)),
		zap.Float64("duration", events.Duration()))
	go p.run(s)
	return nil
}

// Stop cancels the active session and blocks until its dispatch loop has
// exited and all held keys have been released. Stopping an idle player
// is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	p.current.stop.Store(true)
	<-p.current.done
	p.current = nil
}

// IsPlaying reports whether a session is currently dispatching.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return false
	}
	select {
	case <-p.current.done:
		return false
	default:
		return true
	}
}

// run is the dispatch loop. It fires each event once its scheduled time
// has elapsed on the wall clock, never early, and checks the stop flag
// between iterations. On any exit it releases every key the timeline
// touches.
func (p *Player) run(s *session) {
	defer close(s.done)
	defer p.notifyDone()
	defer p.releaseAll(s.events)

	start := time.Now()
	idx := 0
	for idx < len(s.events) && !s.stop.Load() {
		ev := s.events[idx]
		if time.Since(start).Seconds() >= ev.Time {
			p.dispatch(ev)
			idx++
		} else {
			time.Sleep(pollInterval)
		}
	}
	p.logger.Info("playback finished",
		zap.Bool("cancelled", s.stop.Load()),
		zap.Int("dispatched", idx))
}

func (p *Player) dispatch(ev timeline.NoteEvent) {
	key, ok := timeline.KeyFor(ev.Note)
	if !ok {
		return
	}
	if ev.Kind == timeline.NoteOn && ev.Velocity > 0 {
		p.sink.Press(key)
	} else {
		// NoteOff, or the note-off-via-zero-velocity convention.
		p.sink.Release(key)
	}
}

// notifyDone fires the completion hook. Deferred after releaseAll so
// observers see the session's cleanup as finished, and before the done
// channel closes so a joining Stop returns only after the hook ran.
func (p *Player) notifyDone() {
	if p.onDone != nil {
		p.onDone()
	}
}

// releaseAll releases the key of every distinct note in the timeline so
// an interrupted session cannot leave keys held down.
func (p *Player) releaseAll(events timeline.Timeline) {
	for _, note := range events.Notes() {
		if key, ok := timeline.KeyFor(note); ok {
			p.sink.Release(key)
		}
	}
}
