package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/metrics"
	"github.com/litescript/ls-orrery/internal/reference"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/server"
	"github.com/litescript/ls-orrery/internal/simclock"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/tick"
	"github.com/litescript/ls-orrery/internal/ui"
)

// maxSweepFrames bounds the sweep subcommand's output.
const maxSweepFrames = 100_000

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal orrery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context())
		},
	}
}

func (a *app) runTUI(ctx context.Context) error {
	model := ui.New(a.newClock(), state.NewManager(a.cfg.StateConfig()), ui.Options{
		Scene:    a.cfg.SceneConfig(),
		Observer: a.observer(),
		Logger:   a.logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func newStateCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		watch  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the Earth-Moon state at the simulated instant",
		Long: `Print the Earth-Moon state at the simulated instant as a summary table
or JSON. With --watch the simulated clock keeps running and a new state is
printed every interval until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runState(cmd.Context(), asJSON, watch)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().DurationVar(&watch, "watch", 0, "print again at this interval (e.g. 1s)")
	return cmd
}

func (a *app) runState(ctx context.Context, asJSON bool, watch time.Duration) error {
	clock := a.newClock()
	sceneCfg := a.cfg.SceneConfig()

	if watch <= 0 {
		return writeFrame(a.out, scene.Compose(astro.Ephemeris(clock.Current()), sceneCfg), asJSON)
	}

	driver := tick.NewDriver(clock, state.NewManager(a.cfg.StateConfig()), tick.Config{
		Interval: watch,
		Scene:    sceneCfg,
		Logger:   a.logger,
	})
	frames, cancel := driver.Subscribe(1)
	defer cancel()
	go driver.Run(ctx)

	first := true
	for f := range frames {
		if !first && !asJSON {
			fmt.Fprintln(a.out)
		}
		first = false
		if err := writeFrame(a.out, f, asJSON); err != nil {
			return err
		}
	}
	return nil
}

func writeFrame(w io.Writer, f scene.Frame, asJSON bool) error {
	if asJSON {
		return scene.ExportFrame(f).WriteJSON(w)
	}
	scene.WriteSummaryTable(w, f)
	return nil
}

// timeRange holds the --from/--to/--step flags shared by the scanning commands.
type timeRange struct {
	from, to string
	step     time.Duration
}

func (r *timeRange) register(cmd *cobra.Command, defaultStep time.Duration, toHelp string) {
	cmd.Flags().StringVar(&r.from, "from", "", "range start (default: the simulated start instant)")
	cmd.Flags().StringVar(&r.to, "to", "", toHelp)
	cmd.Flags().DurationVar(&r.step, "step", defaultStep, "sampling step")
}

// resolve parses the range. A missing from is the clock's start; a missing
// to is from plus defaultSpan.
func (r *timeRange) resolve(start time.Time, defaultSpan time.Duration) (time.Time, time.Time, error) {
	from := start
	if r.from != "" {
		t, err := simclock.ParseInstant(r.from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
		}
		from = t
	}
	to := from.Add(defaultSpan)
	if r.to != "" {
		t, err := simclock.ParseInstant(r.to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
		}
		to = t
	}
	if r.step <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("--step must be positive, got %s", r.step)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	return from, to, nil
}

func newSweepCmd(a *app) *cobra.Command {
	var (
		r      timeRange
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Tabulate the Earth-Moon state over a time range",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			from, to, err := r.resolve(a.newClock().Current(), 24*time.Hour)
			if err != nil {
				return err
			}
			if n := to.Sub(from) / r.step; n >= maxSweepFrames {
				return fmt.Errorf("sweep of %d frames exceeds %d; use a larger --step", n+1, maxSweepFrames)
			}

			sceneCfg := a.cfg.SceneConfig()
			var frames []scene.Frame
			for t := from; !t.After(to); t = t.Add(r.step) {
				frames = append(frames, scene.Compose(astro.Ephemeris(t), sceneCfg))
			}
			a.logger.Debug("sweep", "from", from, "to", to, "step", r.step, "frames", len(frames))

			if !asJSON {
				scene.WriteSweepTable(a.out, frames)
				return nil
			}
			out := make([]*scene.FrameExport, len(frames))
			for i, f := range frames {
				out[i] = scene.ExportFrame(f)
			}
			return writeJSON(a.out, out)
		},
	}
	r.register(cmd, time.Hour, "range end (default: one day after --from)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON array of frames")
	return cmd
}

type eclipseJSON struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Gamma   float64   `json:"gamma"`
	Central bool      `json:"central"`
	LonDeg  float64   `json:"lon_deg"`
	LatDeg  float64   `json:"lat_deg"`
}

func newEclipsesCmd(a *app) *cobra.Command {
	var (
		r      timeRange
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "eclipses",
		Short: "List solar eclipses in a time range",
		Long: `List solar eclipses in a time range at greatest eclipse. Central
eclipses give the shadow axis ground point, partial ones the sub-lunar point.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			from, to, err := r.resolve(a.newClock().Current(), 366*24*time.Hour)
			if err != nil {
				return err
			}
			found, err := astro.SearchEclipses(from, to, r.step)
			if err != nil {
				return err
			}

			if asJSON {
				out := make([]eclipseJSON, len(found))
				for i, ec := range found {
					out[i] = eclipseJSON{At: ec.At, Kind: ec.Kind(), Gamma: ec.Gamma, Central: ec.Central, LonDeg: ec.LonDeg, LatDeg: ec.LatDeg}
				}
				return writeJSON(a.out, out)
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "GREATEST ECLIPSE\tKIND\tGAMMA\tPOINT")
			for _, ec := range found {
				fmt.Fprintf(w, "%s\t%s\t%+.3f\t%s\n", ec.At.Format("2006-01-02 15:04:05"), ec.Kind(), ec.Gamma, formatPoint(ec.LatDeg, ec.LonDeg))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\n%d eclipses from %s to %s\n", len(found), from.Format("2006-01-02"), to.Format("2006-01-02"))
			return nil
		},
	}
	r.register(cmd, time.Hour, "range end (default: one year after --from)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		r      timeRange
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Cross-check the ephemeris against Meeus' solar and lunar theories",
		Long: `Compare the model's Sun and Moon against the higher-precision series of
Meeus' Astronomical Algorithms. Without --to a single instant is checked.
Exits non-zero when any sample is outside tolerance.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			tol := reference.DefaultTolerance()
			if r.to == "" {
				from, _, err := r.resolve(a.newClock().Current(), 0)
				if err != nil {
					return err
				}
				d := reference.Compare(from)
				if asJSON {
					if err := writeJSON(a.out, d); err != nil {
						return err
					}
				} else {
					writeDeviation(a.out, d)
				}
				return d.Check(tol)
			}

			from, to, err := r.resolve(a.newClock().Current(), 0)
			if err != nil {
				return err
			}
			rep, err := reference.Sweep(from, to, r.step, tol)
			if err != nil {
				return err
			}
			if asJSON {
				if err := writeJSON(a.out, rep); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(a.out, "%d samples from %s to %s every %s, %d outside tolerance\n",
					rep.Samples, rep.Start.Format(time.RFC3339), rep.End.Format(time.RFC3339), rep.Step, rep.Failures)
				fmt.Fprintln(a.out, "Maximum deviations:")
				writeDeviation(a.out, rep.Max)
			}
			if rep.Failures > 0 {
				return fmt.Errorf("%w: %d of %d samples", reference.ErrOutOfTolerance, rep.Failures, rep.Samples)
			}
			return nil
		},
	}
	r.register(cmd, 6*time.Hour, "range end; enables a sweep")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeDeviation(w io.Writer, d reference.Deviation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  At:\t%s\n", d.At.Format(time.RFC3339))
	fmt.Fprintf(tw, "  Sun longitude:\t%.5f°\n", d.SunLonDeg)
	fmt.Fprintf(tw, "  Sun distance:\t%.2e AU\n", d.SunDistAU)
	fmt.Fprintf(tw, "  Moon longitude:\t%.3f°\n", d.MoonLonDeg)
	fmt.Fprintf(tw, "  Moon latitude:\t%.3f°\n", d.MoonLatDeg)
	fmt.Fprintf(tw, "  Moon distance:\t%.0f km\n", d.MoonDistKm)
	_ = tw.Flush()
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ephemeris, clock control and frame stream over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Float64("stream-hz", 10, "maximum WebSocket frames per second per client")
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	m := metrics.NewCollector()
	mgr := state.NewManager(a.cfg.StateConfig())
	driver := tick.NewDriver(a.newClock(), mgr, tick.Config{
		Interval: a.cfg.TickInterval,
		Scene:    a.cfg.SceneConfig(),
		Metrics:  m,
		Logger:   a.logger.With("component", "tick"),
	})

	sc := a.cfg.Server
	srv := server.New(driver, m, a.logger.With("component", "http"), server.Config{
		Addr:        sc.Addr,
		CORSOrigins: sc.CORSOrigins,
		RateLimit:   sc.RateLimit,
		RateBurst:   sc.RateBurst,
		StreamHz:    sc.StreamHz,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		driver.Run(ctx)
	}()

	a.logger.Info("serving", "addr", sc.Addr, "tick", a.cfg.TickInterval, "speed", a.cfg.Speed)
	err := srv.Run(ctx)
	cancel()
	<-driverDone
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatPoint(latDeg, lonDeg float64) string {
	ns, ew := "N", "E"
	if latDeg < 0 {
		ns, latDeg = "S", -latDeg
	}
	if lonDeg < 0 {
		ew, lonDeg = "W", -lonDeg
	}
	return strings.TrimSpace(fmt.Sprintf("%.2f°%s %.2f°%s", latDeg, ns, lonDeg, ew))
}
