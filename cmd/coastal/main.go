package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/coastal/internal/analysis"
	"github.com/san-kum/coastal/internal/config"
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/experiment"
	"github.com/san-kum/coastal/internal/export"
	"github.com/san-kum/coastal/internal/forcing"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/render"
	"github.com/san-kum/coastal/internal/sim"
	"github.com/san-kum/coastal/internal/storage"
	"github.com/san-kum/coastal/internal/viz"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

var presetInfo = map[string]string{
	"seiche":          "standing wave in a closed basin",
	"dam_pulse":       "nonlinear mound collapse in a square basin",
	"jonswap_channel": "random sea entering a channel",
	"ripple_tank":     "ring wave in an absorbing tank",
	"tracer_plume":    "advected and diffused tracer patch",
	"viscous_decay":   "diffusing velocity bump",
}

// cli holds the flag values and the logger shared by every command.
type cli struct {
	dataDir  string
	logLevel string
	preset   string
	theme    string
	seed     int64
	log      *logrus.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{log: logrus.New()}

	rootCmd := &cobra.Command{
		Use:          "coastal",
		Short:        "finite-difference coastal wave engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(c.logLevel)
			if err != nil {
				return err
			}
			c.log.SetLevel(lvl)
			c.log.SetOutput(cmd.ErrOrStderr())
			if c.theme != "" {
				if !slices.Contains(viz.ThemeNames(), c.theme) {
					return fmt.Errorf("unknown theme %q (available: %s)", c.theme, strings.Join(viz.ThemeNames(), ", "))
				}
				viz.SetTheme(c.theme)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// no command: pick a preset and watch it
			return viz.RunApp(presetChoices(), c.openChoice)
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.dataDir, "data", ".coastal", "data directory")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&c.theme, "theme", "", "live view color theme")
	rootCmd.PersistentFlags().Int64Var(&c.seed, "seed", 0, "forcing phase seed (default: from config, else time)")

	runCmd := &cobra.Command{
		Use:   "run [config]",
		Short: "run a configuration and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.runSimulation,
	}
	runCmd.Flags().StringVar(&c.preset, "preset", "", "use preset configuration")

	watchCmd := &cobra.Command{
		Use:   "watch [config]",
		Short: "run a configuration with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.watch,
	}
	watchCmd.Flags().StringVar(&c.preset, "preset", "", "use preset configuration")

	var members int
	ensembleCmd := &cobra.Command{
		Use:   "ensemble [config]",
		Short: "run realisations with consecutive forcing seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEnsemble(cmd, args, members)
		},
	}
	ensembleCmd.Flags().StringVar(&c.preset, "preset", "", "use preset configuration")
	ensembleCmd.Flags().IntVarP(&members, "members", "n", 4, "number of realisations")

	presetsCmd := &cobra.Command{
		Use:   "presets [kind]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  c.listRuns,
	}

	var plotField string
	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot gauge records in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.plotRun(cmd, args[0], plotField)
		},
	}
	plotCmd.Flags().StringVar(&plotField, "field", "", "plot one field only")

	var renderDir string
	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render gauge and final state images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.renderRun(cmd, args[0], renderDir)
		},
	}
	renderCmd.Flags().StringVar(&renderDir, "out", ".", "output directory")

	var spectrumPNG string
	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectral and wave-by-wave analysis of the gauge record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.analyzeRun(cmd, args[0], spectrumPNG)
		},
	}
	analyzeCmd.Flags().StringVar(&spectrumPNG, "png", "", "also save the spectrum to this image")

	var format, out string
	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as NetCDF, JSON or an SVG profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.exportRun(cmd, args[0], format, out)
		},
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "nc, json or svg")
	exportCmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")

	fp := forcingParams{}
	forcingCmd := &cobra.Command{
		Use:   "forcing",
		Short: "synthesize a random sea surface record as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.synthesize(cmd, fp)
		},
	}
	forcingCmd.Flags().StringVar(&fp.kind, "type", "jonswap", "spectrum (pm or jonswap)")
	forcingCmd.Flags().Float64Var(&fp.hs, "hs", 1, "significant wave height (m)")
	forcingCmd.Flags().Float64Var(&fp.tp, "tp", 8, "peak period (s)")
	forcingCmd.Flags().Float64Var(&fp.gamma, "gamma", 3.3, "JONSWAP peak enhancement")
	forcingCmd.Flags().Float64Var(&fp.duration, "duration", 600, "record length (s)")
	forcingCmd.Flags().Float64Var(&fp.dt, "dt", 0.5, "sample interval (s)")
	forcingCmd.Flags().IntVar(&fp.components, "components", 0, "number of frequencies (0: harmonic spacing)")

	var sweepParams []string
	var sweepMetric string
	sweepCmd := &cobra.Command{
		Use:   "sweep [config]",
		Short: "run every combination of settings and report the best",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.sweep(cmd, args, sweepParams, sweepMetric)
		},
	}
	sweepCmd.Flags().StringVar(&c.preset, "preset", "", "use preset configuration")
	sweepCmd.Flags().StringArrayVarP(&sweepParams, "param", "p", nil, "setting to sweep as key=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "volume_drift", "metric to minimise")

	rootCmd.AddCommand(runCmd, watchCmd, ensembleCmd, sweepCmd, presetsCmd, listCmd, plotCmd, renderCmd, analyzeCmd, exportCmd, forcingCmd)
	return rootCmd
}

// document picks the run document from --preset or a file argument.
// An explicit --seed replaces the document's seed in a copy.
func (c *cli) document(cmd *cobra.Command, args []string) (*config.Document, error) {
	var doc *config.Document
	switch {
	case c.preset != "" && len(args) > 0:
		return nil, fmt.Errorf("give either a config file or --preset, not both")
	case c.preset != "":
		if doc = config.FindPreset(c.preset); doc == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", c.preset, strings.Join(allPresets(), ", "))
		}
	case len(args) == 1:
		var err error
		if doc, err = config.Load(args[0]); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	default:
		return nil, fmt.Errorf("a config file or --preset is required")
	}

	d := *doc
	switch {
	case cmd.Flags().Changed("seed"):
		d.Seed = &c.seed
	case d.Seed == nil:
		s := time.Now().UnixNano()
		d.Seed = &s
	}
	return &d, nil
}

func allPresets() []string {
	var names []string
	for _, kind := range config.Kinds() {
		names = append(names, config.ListPresets(kind)...)
	}
	return names
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func (c *cli) runSimulation(cmd *cobra.Command, args []string) error {
	doc, err := c.document(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := doc.Resolve()
	if err != nil {
		return err
	}

	st := storage.New(c.dataDir, storage.WithLogger(c.log))
	if err := st.Init(); err != nil {
		return err
	}
	exp, err := experiment.Build(cfg, cfg.Seed, c.log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	hist, runErr := exp.Run(ctx)
	elapsed := time.Since(start)
	if hist == nil {
		return runErr
	}

	// a failed run is still stored up to its last good record
	runID, err := st.Save(doc, cfg, cfg.Seed, hist)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, titleStyle.Render(cfg.Name))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("run id: "), runID)
	fmt.Fprintf(w, "%s %s on %s, %s\n", labelStyle.Render("physics:"), cfg.Physics.Kind, exp.Grid(), hist.Config.Scheme)
	fmt.Fprintf(w, "%s %d of %d in %v (%s)\n", labelStyle.Render("steps:  "), hist.StepsTaken, exp.GetSimulator().Steps(), elapsed.Round(time.Millisecond), hist.Status)
	fmt.Fprintln(w, "\nmetrics:")
	printMetrics(w, hist.Metrics)
	return runErr
}

func printMetrics(w io.Writer, metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %.6g\n", name, metrics[name])
	}
}

func (c *cli) runEnsemble(cmd *cobra.Command, args []string, members int) error {
	if members < 1 {
		return fmt.Errorf("members must be at least 1, got %d", members)
	}
	doc, err := c.document(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := doc.Resolve()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	hists, err := experiment.NewEnsemble(cfg, members, cfg.Seed, c.log).Run(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTATUS\tSTEPS\tGAUGE HM0\tPEAK\tVOLUME DRIFT")
	for i, h := range hists {
		gauge, err := h.Gauge(cfg.Output.Field, cfg.Output.Gauge[0], cfg.Output.Gauge[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.4g\t%.4g\t%.3g\n",
			cfg.Seed+int64(i),
			h.Status,
			h.StepsTaken,
			4*analysis.Summarize(gauge).Std,
			h.Metrics["peak_"+cfg.Output.Field],
			h.Metrics["volume_drift"],
		)
	}
	return w.Flush()
}

func (c *cli) listPresets(cmd *cobra.Command, args []string) error {
	kinds := config.Kinds()
	if len(args) == 1 {
		kinds = args[:1]
	}
	w := cmd.OutOrStdout()
	for _, kind := range kinds {
		presets := config.ListPresets(kind)
		if len(presets) == 0 {
			fmt.Fprintf(w, "no presets for physics: %s\n", kind)
			continue
		}
		fmt.Fprintf(w, "%s:\n", kind)
		for _, p := range presets {
			fmt.Fprintf(w, "  %-16s %s\n", p, presetInfo[p])
		}
	}
	return nil
}

func (c *cli) listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(c.dataDir, storage.WithLogger(c.log))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPHYSICS\tTIME\tDURATION\tDT\tSCHEME\tSEED\tSTATUS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4gs\t%s\t%d\t%s\n",
			run.ID,
			run.Physics,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Scheme,
			run.Seed,
			run.Status,
		)
	}
	return w.Flush()
}

func (c *cli) plotRun(cmd *cobra.Command, runID, field string) error {
	st := storage.New(c.dataDir, storage.WithLogger(c.log))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, series, err := st.LoadGauge(runID)
	if err != nil {
		return err
	}
	if len(times) < 2 {
		return fmt.Errorf("no data to plot")
	}

	names := make([]string, 0, len(series))
	for name := range series {
		if field == "" || name == field {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("run %s has no field %q", runID, field)
	}
	sort.Strings(names)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run: %s\n", meta.ID)
	fmt.Fprintf(w, "physics: %s\n", meta.Physics)
	fmt.Fprintf(w, "records: %d over %.2fs\n\n", len(times), times[len(times)-1])
	for _, name := range names {
		graph := asciigraph.Plot(series[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s at (%d, %d)", name, meta.Gauge[0], meta.Gauge[1])),
		)
		fmt.Fprintln(w, graph)
		fmt.Fprintln(w)
	}
	return nil
}

func (c *cli) renderRun(cmd *cobra.Command, runID, dir string) error {
	st := storage.New(c.dataDir, storage.WithLogger(c.log))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, series, err := st.LoadGauge(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	gaugePath := filepath.Join(dir, runID+"_gauge.png")
	title := fmt.Sprintf("%s gauge at (%d, %d)", meta.Name, meta.Gauge[0], meta.Gauge[1])
	if err := render.GaugePNG(gaugePath, title, times, series); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), gaugePath)

	d, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	last := len(d.Times) - 1
	f, err := d.Record(meta.Field, last)
	if err != nil {
		return err
	}
	title = fmt.Sprintf("%s %s at t = %.2fs", meta.Name, meta.Field, d.Times[last])
	finalPath := filepath.Join(dir, runID+"_final.png")
	if d.Ny == 1 {
		err = render.ProfilePNG(finalPath, title, d.X, f, meta.Field)
	} else {
		err = render.PlanPNG(finalPath, title, f, d.X, d.Y)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), finalPath)
	return nil
}

func (c *cli) analyzeRun(cmd *cobra.Command, runID, png string) error {
	st := storage.New(c.dataDir, storage.WithLogger(c.log))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, series, err := st.LoadGauge(runID)
	if err != nil {
		return err
	}
	x := series[meta.Field]
	if len(x) < 4 {
		return fmt.Errorf("not enough records to analyze: %d", len(x))
	}
	dt := times[1] - times[0]

	sp, err := analysis.PowerSpectrum(x, dt)
	if err != nil {
		return err
	}
	sum := analysis.Summarize(x)
	waves := analysis.ZeroUpcrossing(x, dt)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "frequency analysis: %s\n", meta.ID)
	fmt.Fprintf(w, "%s at (%d, %d), %d records every %.4gs\n\n", meta.Field, meta.Gauge[0], meta.Gauge[1], sum.N, dt)
	fmt.Fprintln(w, asciigraph.Plot(sp.Density,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectral density"),
	))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "mean\t%.6g\n", sum.Mean)
	fmt.Fprintf(tw, "std\t%.6g\n", sum.Std)
	fmt.Fprintf(tw, "range\t[%.6g, %.6g]\n", sum.Min, sum.Max)
	fmt.Fprintf(tw, "Hm0\t%.6g\n", analysis.Hm0(sp))
	if fp := analysis.PeakFrequency(sp); fp > 0 {
		fmt.Fprintf(tw, "peak frequency\t%.4g Hz (Tp %.4gs)\n", fp, 1/fp)
	}
	if tm := analysis.MeanPeriod(sp); tm > 0 {
		fmt.Fprintf(tw, "mean period\t%.4gs\n", tm)
	}
	fmt.Fprintf(tw, "waves\t%d\n", len(waves))
	if len(waves) > 0 {
		fmt.Fprintf(tw, "H1/3\t%.6g\n", analysis.SignificantHeight(waves))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if png != "" {
		return render.SpectrumPNG(png, meta.ID+" spectrum", sp)
	}
	return nil
}

func (c *cli) exportRun(cmd *cobra.Command, runID, format, out string) error {
	st := storage.New(c.dataDir, storage.WithLogger(c.log))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "nc":
		if out == "-" {
			return fmt.Errorf("netcdf export needs --out")
		}
		src, err := os.Open(st.HistoryPath(runID))
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	case "json":
		d, err := st.LoadHistory(runID)
		if err != nil {
			return err
		}
		hist, err := historyOf(d, meta)
		if err != nil {
			return err
		}
		return export.WriteJSON(w, export.NewExportData(meta.Name, meta.Physics, hist))
	case "svg":
		d, err := st.LoadHistory(runID)
		if err != nil {
			return err
		}
		f, err := d.Record(meta.Field, len(d.Times)-1)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, export.ProfileToSVG(d.X, f.Row(meta.Gauge[1]), 800, 300, "#00a8cc"))
		return err
	}
	return fmt.Errorf("unknown format %q (want nc, json or svg)", format)
}

// historyOf rebuilds a history from a stored dataset.
func historyOf(d *export.Dataset, meta *storage.RunMetadata) (*sim.History, error) {
	if d.Nx < 2 {
		return nil, fmt.Errorf("dataset has %d points along x", d.Nx)
	}
	var g *grid.Grid
	var err error
	if d.Ny > 1 {
		g, err = grid.New2D(d.Nx, d.Ny, d.X[1]-d.X[0], d.Y[1]-d.Y[0])
	} else {
		g, err = grid.New1D(d.Nx, d.X[1]-d.X[0])
	}
	if err != nil {
		return nil, err
	}

	status := sim.Idle
	if meta.Status == sim.Failed.String() {
		status = sim.Failed
	}
	h := &sim.History{
		Grid:       g,
		Config:     sim.Config{Dt: meta.Dt, EndTime: meta.Duration, Scheme: meta.Scheme},
		Dt:         meta.Dt,
		Times:      d.Times,
		States:     make([]*dynamo.State, len(d.Times)),
		StepsTaken: meta.Steps,
		Status:     status,
		Metrics:    meta.Metrics,
	}
	for n := range d.Times {
		s := dynamo.NewState()
		for _, name := range d.FieldNames() {
			f, err := d.Record(name, n)
			if err != nil {
				return nil, err
			}
			s.Set(name, f)
		}
		h.States[n] = s
	}
	return h, nil
}

type forcingParams struct {
	kind          string
	hs, tp, gamma float64
	duration, dt  float64
	components    int
}

func (c *cli) synthesize(cmd *cobra.Command, p forcingParams) error {
	kind, err := forcing.ParseKind(p.kind)
	if err != nil {
		return err
	}
	seed := c.seed
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}
	series, err := forcing.Generate(forcing.Params{
		Spectrum:   forcing.Spectrum{Kind: kind, Hs: p.hs, Tp: p.tp, Gamma: p.gamma},
		Duration:   p.duration,
		Dt:         p.dt,
		Components: p.components,
	}, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	w := csv.NewWriter(cmd.OutOrStdout())
	if err := w.Write([]string{"time", "eta"}); err != nil {
		return err
	}
	for n, t := range series.Times() {
		if err := w.Write([]string{strconv.FormatFloat(t, 'g', -1, 64), strconv.FormatFloat(series.Values[n], 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"spectrum":   kind,
		"seed":       seed,
		"components": len(series.Components),
		"hm0":        series.Hm0(),
	}).Info("forcing synthesized")
	return nil
}
