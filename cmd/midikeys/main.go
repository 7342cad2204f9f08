// Package main is the entry point for the midikeys CLI
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"github.com/cpayne/midikeys/pkg/api"
	"github.com/cpayne/midikeys/pkg/player"
	"github.com/cpayne/midikeys/pkg/session"
	"github.com/cpayne/midikeys/pkg/sink"
	"github.com/cpayne/midikeys/pkg/timeline"
	"github.com/cpayne/midikeys/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	chordGap   string
	noteGap    string
	midiOut    string
	dryRun     bool
	serverPort int
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "midikeys",
	Short: "Replay MIDI files as timed key presses",
	Long: `midikeys converts a Standard MIDI File into a time-ordered sequence
of key press/release actions and replays it in real time.

Notes map onto the white-key rows of the in-game piano; chords are
spread apart and a minimum gap between events is enforced so a
one-key-at-a-time output can keep up.

Examples:
  midikeys play song.mid
  midikeys play song.mid --chord-gap 0.02 --note-gap 0.05
  midikeys play song.mid --midi-out "FluidSynth"
  midikeys inspect song.mid
  midikeys tui
  midikeys serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var playCmd = &cobra.Command{
	Use:   "play <file.mid>",
	Short: "Play a MIDI file as key actions",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Print the normalized timeline without playing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive control panel",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&chordGap, "chord-gap", "", "Minimum gap between chord members in seconds (default 0.01)")
	rootCmd.PersistentFlags().StringVar(&noteGap, "note-gap", "", "Minimum gap between consecutive events in seconds (default 0.03)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	playCmd.Flags().StringVar(&midiOut, "midi-out", "", "Echo key actions to this MIDI output port")
	playCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print key actions instead of sending them")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// pickSink selects the output sink from the play flags.
func pickSink() (player.Sink, error) {
	if midiOut != "" && !dryRun {
		return sink.NewMIDIPort(midiOut)
	}
	return sink.NewWriter(os.Stdout), nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	defer midi.CloseDriver()

	out, err := pickSink()
	if err != nil {
		return err
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	events, err := timeline.ExtractFile(args[0])
	if err != nil {
		return err
	}
	normalized := timeline.Normalize(events, timeline.Options{
		ChordGap: timeline.ParseInterval(chordGap, timeline.DefaultChordGap),
		NoteGap:  timeline.ParseInterval(noteGap, timeline.DefaultNoteGap),
	})

	fmt.Printf("Playing %s: %d events, %.1fs\n", args[0], len(normalized), normalized.Duration())

	p := player.New(out, logger)
	if err := p.Start(normalized); err != nil {
		return err
	}

	// Ctrl+C stops playback and releases held keys before exiting.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	for p.IsPlaying() {
		select {
		case <-interrupt:
			fmt.Println("\nStopping...")
			p.Stop()
			return nil
		case <-time.After(100 * time.Millisecond):
		}
	}
	p.Stop()
	fmt.Println("Done.")
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	events, err := timeline.ExtractFile(args[0])
	if err != nil {
		return err
	}
	normalized := timeline.Normalize(events, timeline.Options{
		ChordGap: timeline.ParseInterval(chordGap, timeline.DefaultChordGap),
		NoteGap:  timeline.ParseInterval(noteGap, timeline.DefaultNoteGap),
	})

	fmt.Printf("%s: %d events, %.2fs\n", args[0], len(normalized), normalized.Duration())
	for _, ev := range normalized {
		key, _ := timeline.KeyFor(ev.Note)
		fmt.Printf("%9.3fs  %-8s note=%3d vel=%3d key=%s\n",
			ev.Time, ev.Kind, ev.Note, ev.Velocity, key)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	defer midi.CloseDriver()

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	statusCh := make(chan session.Status, 8)
	ctl := session.New(sink.NewWriter(os.Stdout),
		session.WithLogger(logger),
		session.WithNotify(func(s session.Status) { statusCh <- s }),
	)
	return tui.Run(ctl, statusCh)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	ctl := session.New(sink.NewWriter(os.Stdout), session.WithLogger(logger))

	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.NewServer(ctl).Start(serverPort)
}
