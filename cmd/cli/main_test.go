//go:build !js && !wasm

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "off"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("syncdeck %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func capture(t *testing.T, pattern, out string) string {
	t.Helper()

	m := regexp.MustCompile(pattern).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("Output does not match %q:\n%s", pattern, out)
	}
	return m[1]
}

func writeWAV(t *testing.T, seconds float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "narration.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create WAV: %v", err)
	}
	defer f.Close()

	const rate = 8000
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, int(rate*seconds)),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize WAV: %v", err)
	}
	return path
}

func TestEditWorkflow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.sqlite3")

	out := mustRun(t, "--db", db, "project", "new", "Demo")
	project := capture(t, `ID: (\S+)`, out)

	out = mustRun(t, "--db", db, "media", "import", writeWAV(t, 4))
	media := capture(t, `ID:\s+(\S+)`, out)
	if !strings.Contains(out, "Kind: audio") {
		t.Errorf("Import output = %q, want audio kind", out)
	}

	out = mustRun(t, "--db", db, "-p", project, "track", "add", "--role", "audio", "--name", "Narration")
	track := capture(t, `\((\S+)\)`, out)

	out = mustRun(t, "--db", db, "-p", project, "clip", "place", "--track", track, "--media", media, "--at", "1")
	clip := capture(t, `Placed clip (\S+)`, out)
	if !strings.Contains(out, "0:01.000 → 0:05.000") {
		t.Errorf("Place output = %q, want clip over [1, 5)", out)
	}

	out = mustRun(t, "--db", db, "-p", project, "clip", "split", clip, "--at", "2", "--keep", "both")
	right := capture(t, `Updated clip (\S+)`, out)
	if !strings.Contains(out, "0:02.000 → 0:05.000") {
		t.Errorf("Split output = %q, want right half over [2, 5)", out)
	}

	out = mustRun(t, "--db", db, "-p", project, "project", "show")
	for _, want := range []string{"Narration", "narration.wav", clip, right} {
		if !strings.Contains(out, want) {
			t.Errorf("Show output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "--db", db, "-p", project, "resolve", "--at", "3")
	if !strings.Contains(out, right+"  narration.wav @ 2.000") {
		t.Errorf("Resolve output = %q, want right half at media time 2", out)
	}

	out = mustRun(t, "--db", db, "-p", project, "marker", "add", "--at", "4", "--label", "cue")
	if !strings.Contains(out, "at 0:04.000") {
		t.Errorf("Marker output = %q", out)
	}

	out = mustRun(t, "--db", db, "-p", project, "play", "--from", "1.5", "--for", "1", "--tick", "20ms")
	if !strings.Contains(out, "Playing 2 clips") || !strings.Contains(out, "Stopped at") {
		t.Errorf("Play output = %q", out)
	}

	if _, err := run(t, "--db", db, "media", "rm", media); err == nil {
		t.Error("Expected removing media used by a stored project to fail")
	}

	out = mustRun(t, "--db", db, "project", "list")
	if !strings.Contains(out, "Demo") {
		t.Errorf("List output = %q, want Demo", out)
	}
}

func TestLockedTrackRefusesEdits(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.sqlite3")

	project := capture(t, `ID: (\S+)`, mustRun(t, "--db", db, "project", "new", "Locked"))
	media := capture(t, `ID:\s+(\S+)`, mustRun(t, "--db", db, "media", "import", writeWAV(t, 2)))
	track := capture(t, `\((\S+)\)`, mustRun(t, "--db", db, "-p", project, "track", "add", "--role", "audio"))
	clip := capture(t, `Placed clip (\S+)`,
		mustRun(t, "--db", db, "-p", project, "clip", "place", "--track", track, "--media", media, "--at", "0"))

	out := mustRun(t, "--db", db, "-p", project, "track", "set", track, "--lock")
	if !strings.Contains(out, "locked=true") {
		t.Fatalf("Set output = %q, want locked", out)
	}

	if _, err := run(t, "--db", db, "-p", project, "clip", "move", clip, "--at", "3"); err == nil {
		t.Error("Expected move on a locked track to fail")
	}
}

func TestProjectRequired(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.sqlite3")

	_, err := run(t, "--db", db, "--project=", "resolve", "--at", "1")
	if err == nil || !strings.Contains(err.Error(), "--project is required") {
		t.Errorf("Error = %v, want missing project", err)
	}

	_, err = run(t, "--db", db, "--project", "demo", "project", "show")
	if err == nil || !strings.Contains(err.Error(), "not a project id") {
		t.Errorf("Error = %v, want malformed project id", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncdeck.yaml")

	mustRun(t, "config", "init", path)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config file not written: %v", err)
	}

	out := mustRun(t, "--config", path, "--db", "elsewhere.sqlite3", "config", "show")
	if !strings.Contains(out, "db_path:      elsewhere.sqlite3") {
		t.Errorf("Show output = %q, want --db override", out)
	}
	if !strings.Contains(out, "frame_rate:   30") {
		t.Errorf("Show output = %q, want default frame rate", out)
	}
}
