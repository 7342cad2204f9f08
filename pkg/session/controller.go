// Package session coordinates file loading and playback for the
// surrounding application (CLI, TUI or API).
package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/cpayne/midikeys/pkg/player"
	"github.com/cpayne/midikeys/pkg/timeline"
)

// ErrLoadInProgress is returned when a load is requested while another
// one is still running; the new request is dropped, not queued.
var ErrLoadInProgress = errors.New("a file is already being loaded, wait for it to finish")

// StatusKind identifies a controller status notification.
type StatusKind int

const (
	ParseStarted StatusKind = iota
	ParseCompleted
	ParseFailed
	PlaybackStarted
	PlaybackStopped
)

// Status is delivered to the notify callback on every state change.
type Status struct {
	Kind       StatusKind
	EventCount int   // set on ParseCompleted
	Err        error // set on ParseFailed
}

// Loader turns a file path into a raw timeline. Swappable in tests.
type Loader func(path string) (timeline.Timeline, error)

// Controller owns the prepared timeline and the player, and enforces
// the one-load-at-a-time / one-playback-at-a-time rules.
type Controller struct {
	player *player.Player
	logger *zap.Logger
	load   Loader
	notify func(Status)

	mu      sync.Mutex
	events  timeline.Timeline
	loading bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithNotify sets the status callback. It may be called from the load
// goroutine.
func WithNotify(fn func(Status)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithLoader replaces the file loader.
func WithLoader(load Loader) Option {
	return func(c *Controller) { c.load = load }
}

// New creates a Controller dispatching playback to sink.
func New(sink player.Sink, opts ...Option) *Controller {
	c := &Controller{
		logger: zap.NewNop(),
		load:   timeline.ExtractFile,
		notify: func(Status) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.player = player.New(sink, c.logger)
	// Every session end, natural or cancelled, is observable.
	c.player.SetOnDone(func() {
		c.notify(Status{Kind: PlaybackStopped})
	})
	return c
}

// LoadFile extracts and normalizes path on its own goroutine, replacing
// the current timeline when done. chordGap and noteGap are interval
// strings; invalid values silently fall back to the defaults. A load
// already in flight rejects the request.
func (c *Controller) LoadFile(path, chordGap, noteGap string) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrLoadInProgress
	}
	c.loading = true
	c.mu.Unlock()

	// Playback must not keep reading the timeline we are replacing.
	c.Stop()

	go c.runLoad(path, chordGap, noteGap)
	return nil
}

func (c *Controller) runLoad(path, chordGap, noteGap string) {
	c.notify(Status{Kind: ParseStarted})
	c.logger.Info("parsing MIDI file", zap.String("path", path))

	raw, err := c.load(path)
	if err != nil {
		c.logger.Error("parse failed", zap.String("path", path), zap.Error(err))
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		c.notify(Status{Kind: ParseFailed, Err: err})
		return
	}

	normalized := timeline.Normalize(raw, optionsFrom(chordGap, noteGap))

	c.mu.Lock()
	c.events = normalized
	c.loading = false
	c.mu.Unlock()

	c.logger.Info("parse completed", zap.Int("events", len(normalized)))
	c.notify(Status{Kind: ParseCompleted, EventCount: len(normalized)})
}

// LoadBytes is the synchronous variant of LoadFile for callers that
// already hold the file contents, such as the HTTP API. It returns the
// normalized event count.
func (c *Controller) LoadBytes(data []byte, chordGap, noteGap string) (int, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return 0, ErrLoadInProgress
	}
	c.loading = true
	c.mu.Unlock()

	c.Stop()
	c.notify(Status{Kind: ParseStarted})

	raw, err := timeline.Extract(data)
	if err != nil {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		c.notify(Status{Kind: ParseFailed, Err: err})
		return 0, err
	}

	normalized := timeline.Normalize(raw, optionsFrom(chordGap, noteGap))

	c.mu.Lock()
	c.events = normalized
	c.loading = false
	c.mu.Unlock()

	c.notify(Status{Kind: ParseCompleted, EventCount: len(normalized)})
	return len(normalized), nil
}

// Play starts playback of the prepared timeline.
func (c *Controller) Play() error {
	c.mu.Lock()
	events := c.events
	c.mu.Unlock()

	if err := c.player.Start(events); err != nil {
		return err
	}
	c.notify(Status{Kind: PlaybackStarted})
	return nil
}

// Stop halts playback, blocking until all held keys are released and
// the PlaybackStopped notification has fired. Stopping when idle is a
// no-op and stays silent.
func (c *Controller) Stop() {
	c.player.Stop()
}

// IsPlaying reports whether playback is active.
func (c *Controller) IsPlaying() bool {
	return c.player.IsPlaying()
}

// IsLoading reports whether a load is in flight.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// EventCount returns the size of the prepared timeline.
func (c *Controller) EventCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func optionsFrom(chordGap, noteGap string) timeline.Options {
	return timeline.Options{
		ChordGap: timeline.ParseInterval(chordGap, timeline.DefaultChordGap),
		NoteGap:  timeline.ParseInterval(noteGap, timeline.DefaultNoteGap),
	}
}
