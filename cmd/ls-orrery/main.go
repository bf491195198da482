// Command ls-orrery is a terminal orrery and ephemeris service for the
// Sun, Earth and Moon, driven by a steerable simulated clock.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/config"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/simclock"
	"github.com/litescript/ls-orrery/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		out:    os.Stdout,
		errOut: os.Stderr,
		wall:   clockwork.NewRealClock(),
		isTTY:  term.IsTerminal(int(os.Stdout.Fd())),
	}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries what every subcommand shares once flags are parsed.
type app struct {
	configPath string
	cfg        config.Config
	logger     *logging.Logger
	logFile    *os.File

	out    io.Writer
	errOut io.Writer
	wall   clockwork.Clock
	isTTY  bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ls-orrery",
		Short: "Sun, Earth and Moon on a simulated clock",
		Long: `ls-orrery computes the positions of the Earth and Moon for any instant
and shows them in a terminal orrery, as text or JSON, or over HTTP.

The simulated clock starts at --at (default: now) and runs at --speed times
real time; negative speeds run backward. Settings are read from
ls-orrery.yaml, ORRERY_* environment variables and flags, in that order.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.teardown()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.isTTY {
				return a.runTUI(cmd.Context())
			}
			return a.runState(cmd.Context(), false, 0)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./ls-orrery.yaml if present)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-file", "", "write logs to this file")
	pf.String("at", "", `simulation start instant, e.g. 2024-04-08T18:17:00Z (default "now")`)
	pf.Float64("speed", 1, "simulated seconds per real second; negative runs backward")
	pf.String("focus", "sun", "body at the scene origin (sun, earth, moon)")
	pf.Float64("moon-x", 1, "Earth-Moon distance exaggeration")
	pf.Duration("tick", 0, "tick interval (default 100ms)")
	pf.Float64("lat", 0, "observer latitude in degrees (default Greenwich)")
	pf.Float64("lon", 0, "observer longitude in degrees, east positive")

	root.AddCommand(
		newTUICmd(a),
		newStateCmd(a),
		newSweepCmd(a),
		newEclipsesCmd(a),
		newCheckCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads the configuration with the command's flags bound and builds
// the logger. Flags the user did not set leave file and environment values alone.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.New(logging.ParseLevel(cfg.LogLevel))
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.logFile = f
		a.logger.SetOutput(f)
	case a.usesTerminal(cmd):
		// Log lines would tear the full-screen UI.
		a.logger = logging.Discard()
	default:
		a.logger.SetOutput(a.errOut)
	}
	a.logger.Debug("config loaded", "config", a.configPath, "start", cfg.Start, "speed", cfg.Speed)
	return nil
}

func (a *app) teardown() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func (a *app) usesTerminal(cmd *cobra.Command) bool {
	return cmd.Name() == "tui" || (!cmd.HasParent() && a.isTTY)
}

// newClock builds the simulated clock at the configured start and speed.
func (a *app) newClock() *simclock.Clock {
	c := simclock.New(a.wall)
	if start, err := a.cfg.StartTime(); err == nil && !start.IsZero() {
		c.SetCurrent(start)
	}
	c.SetSpeed(a.cfg.Speed)
	return c
}

func (a *app) observer() astro.Observer {
	o := a.cfg.Observer
	return astro.Observer{LatDeg: o.LatDeg, LonDeg: o.LonDeg, Name: o.Name}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.out, "ls-orrery v%s\n", version.Version)
		},
	}
}
