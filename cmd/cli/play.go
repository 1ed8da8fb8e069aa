//go:build !js && !wasm

package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/himanishpuri/SyncDeck/internal/config"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/syncer"
	"github.com/spf13/cobra"
)

// Play flags
var (
	playFrom   float64
	playFor    float64
	playTick   time.Duration
	playEvery  float64
	playDrift  float64
	playOffset float64
)

// simElement is a media element that decodes at its own slightly wrong
// clock, so the sync controllers have something to correct.
type simElement struct {
	mu     sync.Mutex
	time   float64
	rate   float64
	paused bool
	drift  float64
	seeks  int
}

func (e *simElement) CurrentTime() float64 { e.mu.Lock(); defer e.mu.Unlock(); return e.time }
func (e *simElement) Paused() bool         { e.mu.Lock(); defer e.mu.Unlock(); return e.paused }
func (e *simElement) Ready() bool          { return true }
func (e *simElement) Rate() float64        { e.mu.Lock(); defer e.mu.Unlock(); return e.rate }

func (e *simElement) Seek(t float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.time = t
	e.seeks++
}

func (e *simElement) SetRate(rate float64) { e.mu.Lock(); defer e.mu.Unlock(); e.rate = rate }
func (e *simElement) Play() error          { e.mu.Lock(); defer e.mu.Unlock(); e.paused = false; return nil }
func (e *simElement) Pause()               { e.mu.Lock(); defer e.mu.Unlock(); e.paused = true }

func (e *simElement) seekCount() int { e.mu.Lock(); defer e.mu.Unlock(); return e.seeks }

func (e *simElement) step(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		e.time += dt * e.rate * (1 + e.drift)
	}
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Simulate synchronized playback of --project without a display",
	Long: `Binds a simulated media element to every clip, each decoding with a small
clock error, then runs the transport for --for seconds of timeline time and
prints what the sync controllers do about it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if playTick <= 0 {
			return fmt.Errorf("--tick must be positive")
		}
		if err := requireProject(); err != nil {
			return err
		}
		svc, frames, err := createService()
		if err != nil {
			return err
		}
		defer svc.Close()
		if err := svc.LoadProject(projectID); err != nil {
			return err
		}
		return simulate(cmd.OutOrStdout(), svc, frames)
	},
}

func simulate(out io.Writer, svc syncdeck.Service, frames *syncer.FrameScheduler) error {
	transport := svc.Transport()
	if err := transport.Seek(playFrom); err != nil {
		return err
	}

	clips := svc.Timeline().AllClips()
	elements := make(map[string]*simElement, len(clips))
	for i, c := range clips {
		// Alternate fast and slow decoders.
		drift := playDrift
		if i%2 == 1 {
			drift = -playDrift
		}
		el := &simElement{time: c.InPoint + playOffset, rate: 1, paused: true, drift: drift}
		elements[c.ID] = el
		svc.Sync().Bind(c.ID, el)
	}
	fmt.Fprintf(out, "▶️  Playing %d clips from %s for %gs\n", len(clips), formatSeconds(playFrom), playFor)

	dt := playTick.Seconds()
	transport.Play()
	frames.Frame()

	var elapsed, nextReport float64
	for elapsed < playFor && transport.Playing() {
		for _, el := range elements {
			el.step(dt)
		}
		transport.Advance(dt)
		frames.Frame()
		elapsed += dt

		if elapsed >= nextReport {
			printStates(out, transport.Time(), svc.Sync().States())
			nextReport += playEvery
		}
	}
	transport.Pause()
	frames.Frame()

	fmt.Fprintf(out, "⏹  Stopped at %s\n", formatSeconds(transport.Time()))
	ids := make([]string, 0, len(elements))
	for id := range elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		el := elements[id]
		fmt.Fprintf(out, "   %s  media %.3f  seeks %d\n", id, el.CurrentTime(), el.seekCount())
	}
	return nil
}

func printStates(out io.Writer, at float64, states map[string]syncer.State) {
	counts := make(map[syncer.State]int)
	for _, st := range states {
		counts[st]++
	}
	parts := make([]string, 0, 4)
	for _, st := range []syncer.State{syncer.Converged, syncer.SoftCorrecting, syncer.HardCorrecting, syncer.Inactive} {
		if counts[st] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", st, counts[st]))
		}
	}
	fmt.Fprintf(out, "   %s  %s\n", formatSeconds(at), strings.Join(parts, " "))
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and write configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the default configuration as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Default().Write(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", args[0])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "db_path:      %s\n", cfg.DBPath)
		fmt.Fprintf(out, "frame_rate:   %g\n", cfg.FrameRate)
		fmt.Fprintf(out, "log_level:    %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "sync:         soft %gs, hard %gs, paused %gs, bias %g, tick %s\n",
			cfg.Sync.SoftThreshold, cfg.Sync.HardThreshold, cfg.Sync.PausedTolerance, cfg.Sync.RateBias, cfg.Sync.TickInterval)
		fmt.Fprintf(out, "snap:         %gpx at %g px/s\n", cfg.Snap.Pixels, cfg.Snap.PixelsPerSecond)
		return nil
	},
}

func init() {
	playCmd.Flags().Float64Var(&playFrom, "from", 0, "Start time in seconds")
	playCmd.Flags().Float64Var(&playFor, "for", 5, "Seconds of timeline time to play")
	playCmd.Flags().DurationVar(&playTick, "tick", 33*time.Millisecond, "Simulated frame interval")
	playCmd.Flags().Float64Var(&playEvery, "every", 0.5, "Seconds between state reports")
	playCmd.Flags().Float64Var(&playDrift, "drift", 0.02, "Relative clock error of the simulated decoders")
	playCmd.Flags().Float64Var(&playOffset, "offset", 0.3, "Initial position error of the simulated decoders")

	configCmd.AddCommand(configInitCmd, configShowCmd)
}
