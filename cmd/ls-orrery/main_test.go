package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/litescript/ls-orrery/internal/config"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/version"
)

var wallNow = time.Date(2024, 4, 8, 12, 0, 0, 0, time.UTC)

// run executes the CLI in an empty directory so no config file is picked up.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	var out, errOut bytes.Buffer
	a := &app{out: &out, errOut: &errOut, wall: clockwork.NewFakeClockAt(wallNow)}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if want := "ls-orrery v" + version.Version + "\n"; out != want {
		t.Errorf("version output = %q, want %q", out, want)
	}
}

func TestStateJSON(t *testing.T) {
	out, err := run(t, "state", "--json", "--at", "2024-04-08T18:17:00Z", "--focus", "earth")
	if err != nil {
		t.Fatalf("state: %v", err)
	}

	var got scene.FrameExport
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("state output is not a frame: %v\n%s", err, out)
	}
	if want := time.Date(2024, 4, 8, 18, 17, 0, 0, time.UTC); !got.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, want)
	}
	if got.Focus != "earth" {
		t.Errorf("focus = %q, want earth", got.Focus)
	}
	if len(got.Bodies) != 3 {
		t.Errorf("got %d bodies, want 3", len(got.Bodies))
	}
	if got.Shadow == nil {
		t.Error("shadow missing during the eclipse")
	}
}

func TestRootDefaultsToStateWithoutTTY(t *testing.T) {
	out, err := run(t, "--at", "2024-06-21T12:00:00Z")
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	for _, want := range []string{"Orrery @ 2024-06-21T12:00:00Z", "Sub-solar:", "Moon"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestStartDefaultsToWallClock(t *testing.T) {
	out, err := run(t, "state")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !strings.Contains(out, "Orrery @ 2024-04-08T12:00:00Z") {
		t.Errorf("state should start at the wall clock:\n%s", out)
	}
}

func TestSweepCmd(t *testing.T) {
	out, err := run(t, "sweep", "--from", "2024-01-01T00:00:00Z", "--to", "2024-01-02T00:00:00Z", "--step", "6h")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "Total: 5 samples") {
		t.Errorf("sweep should hold 5 samples:\n%s", out)
	}
	if !strings.Contains(out, "2024-01-01 18:00:00") {
		t.Errorf("sweep missing the 18:00 row:\n%s", out)
	}
}

func TestSweepRejectsHugeRanges(t *testing.T) {
	_, err := run(t, "sweep", "--from", "2000-01-01T00:00:00Z", "--to", "2100-01-01T00:00:00Z", "--step", "1m")
	if err == nil || !strings.Contains(err.Error(), "larger --step") {
		t.Errorf("sweep error = %v, want a frame limit error", err)
	}
}

func TestEclipsesCmd(t *testing.T) {
	out, err := run(t, "eclipses", "--from", "2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("eclipses: %v", err)
	}
	for _, want := range []string{"2024-04-08", "central", "2 eclipses from 2024-01-01 to 2025-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("eclipses output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckCmd(t *testing.T) {
	out, err := run(t, "check", "--at", "2024-06-21T12:00:00Z")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	for _, want := range []string{"2024-06-21T12:00:00Z", "Moon longitude:", "Sun distance:"} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckCmdJSONSweep(t *testing.T) {
	out, err := run(t, "check", "--from", "2024-01-01T00:00:00Z", "--to", "2024-01-08T00:00:00Z", "--step", "12h", "--json")
	if err != nil {
		t.Fatalf("check sweep: %v", err)
	}
	var rep struct {
		Samples  int `json:"samples"`
		Failures int `json:"failures"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("check output is not a report: %v\n%s", err, out)
	}
	if rep.Samples != 15 || rep.Failures != 0 {
		t.Errorf("report = %+v, want 15 samples and no failures", rep)
	}
}

func TestInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad start", []string{"state", "--at", "2024-13-45"}},
		{"bad focus", []string{"state", "--focus", "mars"}},
		{"bad range", []string{"sweep", "--from", "2024-01-02T00:00:00Z", "--to", "2024-01-01T00:00:00Z"}},
		{"zero step", []string{"eclipses", "--step", "0s"}},
		{"bad from", []string{"check", "--from", "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Errorf("%v: expected an error", tt.args)
			}
		})
	}
}

func TestInvalidConfigIsWrapped(t *testing.T) {
	_, err := run(t, "state", "--speed", "NaN")
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestFormatPoint(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     string
	}{
		{25.3, -104.1, "25.30°N 104.10°W"},
		{-16.8, 135.9, "16.80°S 135.90°E"},
	}
	for _, tt := range tests {
		if got := formatPoint(tt.lat, tt.lon); got != tt.want {
			t.Errorf("formatPoint(%v, %v) = %q, want %q", tt.lat, tt.lon, got, tt.want)
		}
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir for Go < 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
