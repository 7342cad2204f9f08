package player

import (
	"sync"
	"testing"
	"time"

	"github.com/cpayne/midikeys/pkg/timeline"
)

// recordingSink implements Sink and records every action for assertions.
type recordingSink struct {
	mu       sync.Mutex
	presses  []string
	releases []string
}

func (r *recordingSink) Press(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presses = append(r.presses, key)
}

func (r *recordingSink) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases = append(r.releases, key)
}

func (r *recordingSink) snapshot() (presses, releases []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.presses...), append([]string(nil), r.releases...)
}

func waitNotPlaying(t *testing.T, p *Player) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.IsPlaying() {
		if time.Now().After(deadline) {
			t.Fatal("playback did not finish in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartEmptyTimeline(t *testing.T) {
	sink := &recordingSink{}
	p := New(sink, nil)

	if err := p.Start(timeline.Timeline{}); err != ErrNothingToPlay {
		t.Fatalf("Start(empty) error = %v, want ErrNothingToPlay", err)
	}

	presses, releases := sink.snapshot()
	if len(presses) != 0 || len(releases) != 0 {
		t.Errorf("empty start performed sink calls: %v %v", presses, releases)
	}
}

func TestPlaybackCompletes(t *testing.T) {
	sink := &recordingSink{}
	p := New(sink, nil)

	events := timeline.Timeline{
		{Time: 0, Kind: timeline.NoteOn, Note: 60, Velocity: 100},
		{Time: 0.01, Kind: timeline.NoteOff, Note: 60, Velocity: 0},
	}
	if err := p.Start(events); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitNotPlaying(t, p)

	presses, releases := sink.snapshot()
	if len(presses) != 1 || presses[0] != "q" {
		t.Errorf("presses = %v, want [q]", presses)
	}
	// One dispatched release plus the cleanup release.
	if len(releases) != 2 {
		t.Errorf("releases = %v, want two releases of q", releases)
	}
	for _, key := range releases {
		if key != "q" {
			t.Errorf("unexpected release %q", key)
		}
	}
}

func TestCleanupOnCancel(t *testing.T) {
	sink := &recordingSink{}
	p := New(sink, nil)

	// Events scheduled far in the future so nothing dispatches before
	// the stop.
	events := timeline.Timeline{
		{Time: 60, Kind: timeline.NoteOn, Note: 60, Velocity: 100},
		{Time: 61, Kind: timeline.NoteOn, Note: 64, Velocity: 100},
	}
	if err := p.Start(events); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	p.Stop()

	presses, releases := sink.snapshot()
	if len(presses) != 0 {
		t.Errorf("presses = %v, want none", presses)
	}
	want := map[string]bool{"q": false, "e": false}
	for _, key := range releases {
		if _, ok := want[key]; !ok {
			t.Errorf("unexpected release %q", key)
			continue
		}
		want[key] = true
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("key %q was not released on stop", key)
		}
	}
	if p.IsPlaying() {
		t.Error("IsPlaying() = true after Stop()")
	}
}

func TestOnDoneFires(t *testing.T) {
	t.Run("natural completion", func(t *testing.T) {
		sink := &recordingSink{}
		p := New(sink, nil)
		done := make(chan struct{}, 1)
		p.SetOnDone(func() { done <- struct{}{} })

		events := timeline.Timeline{
			{Time: 0, Kind: timeline.NoteOn, Note: 60, Velocity: 100},
			{Time: 0.01, Kind: timeline.NoteOff, Note: 60, Velocity: 0},
		}
		if err := p.Start(events); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("completion hook did not fire after playback ran out")
		}
		// The hook runs after cleanup, so the release is already visible.
		_, releases := sink.snapshot()
		if len(releases) == 0 {
			t.Error("no releases recorded before completion hook")
		}
	})

	t.Run("cancellation", func(t *testing.T) {
		p := New(&recordingSink{}, nil)
		done := make(chan struct{}, 1)
		p.SetOnDone(func() { done <- struct{}{} })

		events := timeline.Timeline{
			{Time: 60, Kind: timeline.NoteOn, Note: 60, Velocity: 100},
		}
		if err := p.Start(events); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		p.Stop()

		// Stop joins the session, so the hook must already have fired.
		select {
		case <-done:
		default:
			t.Error("completion hook did not fire before Stop() returned")
		}
	})
}

func TestStopIdle(t *testing.T) {
	sink := &recordingSink{}
	p := New(sink, nil)

	p.Stop()
	p.Stop()

	presses, releases := sink.snapshot()
	if len(presses) != 0 || len(releases) != 0 {
		t.Errorf("idle Stop() performed sink calls: %v %v", presses, releases)
	}
}

func TestStartReplacesSession(t *testing.T) {
	sink := &recordingSink{}
	p := New(sink, nil)

	first := timeline.Timeline{
		{Time: 60, Kind: timeline.NoteOn, Note: 48, Velocity: 100},
	}
	second := timeline.Timeline{
		{Time: 60, Kind: timeline.NoteOn, Note: 72, Velocity: 100},
	}

	if err := p.Start(first); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := p.Start(second); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	// The first session must have been joined and cleaned up before the
	// second began.
	_, releases := sink.snapshot()
	found := false
	for _, key := range releases {
		if key == "a" {
			found = true
		}
	}
	if !found {
		t.Error("first session's note 48 was not released before restart")
	}
	if !p.IsPlaying() {
		t.Error("IsPlaying() = false while second session should be active")
	}
	p.Stop()
}
