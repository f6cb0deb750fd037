package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/ballpit/internal/config"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/experiment"
	"github.com/san-kum/ballpit/internal/export"
	"github.com/san-kum/ballpit/internal/storage"
	"github.com/san-kum/ballpit/internal/sweep"
	"github.com/san-kum/ballpit/internal/viz"
)

var (
	dataDir string
	verbose bool
	logger  = slog.Default()

	configFile string
	preset     string
	metricSet  string
	runName    string

	dt        float64
	duration  float64
	seed      int64
	count     int
	layout    string
	substeps  int
	policy    string
	workers   int
	radius    float64
	container float64
	spawn     bool

	// export-svg
	frameIndex int
	trajectory int
	svgSize    int
	outFile    string

	// export-csv
	framesCSV bool

	// bench
	benchRepeats int

	// sweep
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepTrials int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ballpit",
		Short: "balls in a round container",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultConfig().Output.Dir, "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	configFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "ballpit", "run name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write run series (or frames) as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&framesCSV, "frames", false, "export particle positions instead of metrics")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw a sampled frame or one ball's path as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&frameIndex, "frame", -1, "frame index (negative counts from the end)")
	exportSVGCmd.Flags().IntVar(&trajectory, "trajectory", -1, "draw the path of this ball instead of a frame")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 600, "image size in pixels")
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return viz.Run(cfg, logger)
		},
	}
	configFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the configured scene",
		Args:  cobra.NoArgs,
		RunE:  benchScene,
	}
	configFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchRepeats, "repeat", 3, "runs per substep setting")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario.yaml]",
		Short: "run a scenario file, a parameter sweep or seed trials",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	configFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "substeps", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 8, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 4, "number of values")
	sweepCmd.Flags().IntVar(&sweepTrials, "trials", 0, "run this many seeds instead of a sweep")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		presetsCmd, liveCmd, benchCmd, sweepCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&metricSet, "metrics", "default", "metric set")
	f.Float64Var(&dt, "dt", d.Run.Dt, "tick length")
	f.Float64Var(&duration, "time", d.Run.Duration, "duration")
	f.Int64Var(&seed, "seed", d.Run.Seed, "random seed")
	f.IntVar(&count, "count", d.Scene.Count, "initial particles")
	f.StringVar(&layout, "layout", d.Scene.Name, "initial layout")
	f.IntVar(&substeps, "substeps", d.Params.Substeps, "substeps per tick")
	f.StringVar(&policy, "policy", d.Params.Policy, "collision policy (absorb, quench)")
	f.IntVar(&workers, "workers", d.Params.Workers, "collision workers")
	f.Float64Var(&radius, "radius", d.Params.ParticleRadius, "particle radius")
	f.Float64Var(&container, "container", d.Params.ContainerRadius, "container radius")
	f.BoolVar(&spawn, "spawn", d.Spawn.Enabled, "drop a ball every spawn interval")
}

// loadConfig builds the config from defaults, then a preset, then a config
// file, then any flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = seed
	}
	if flags.Changed("count") {
		cfg.Scene.Count = count
	}
	if flags.Changed("layout") {
		cfg.Scene.Name = layout
	}
	if flags.Changed("substeps") {
		cfg.Params.Substeps = substeps
	}
	if flags.Changed("policy") {
		cfg.Params.Policy = policy
	}
	if flags.Changed("workers") {
		cfg.Params.Workers = workers
	}
	if flags.Changed("radius") {
		cfg.Params.ParticleRadius = radius
	}
	if flags.Changed("container") {
		cfg.Params.ContainerRadius = container
	}
	if flags.Changed("spawn") {
		cfg.Spawn.Enabled = spawn
	}
	if flags.Changed("data") {
		cfg.Output.Dir = dataDir
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), metricSet, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s: %d particles, %.1fs...\n", runName, exp.Particles().Len(), cfg.Run.Duration)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("ticks: %d\n", result.TicksTaken)
	fmt.Printf("particles: %d\n", result.Particles)
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}

	if cfg.Output.Save {
		st := storage.New(cfg.Output.Dir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(runName, exp.Params(), cfg.ToRunConfig(), result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	for _, name := range sortedNames(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tSUBSTEPS\tPOLICY\tBALLS\tERRORS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%d\t%s\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Params.Substeps,
			run.Params.Policy,
			run.Particles,
			len(run.Errors),
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(times))

	for _, name := range sortedNames(series) {
		data := series[name]
		if len(data) == 0 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs time (%.1fs)", name, times[len(times)-1])),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	if framesCSV {
		return gocsv.Marshal(storage.FrameRows(result), os.Stdout)
	}
	return gocsv.Marshal(storage.SeriesRows(result), os.Stdout)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.WriteJSON(os.Stdout, *meta, result)
	}
	if err := storage.ExportJSON(outFile, *meta, result); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, result, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}
	if len(result.Frames) == 0 {
		return fmt.Errorf("run %s has no frames", meta.ID)
	}

	var svg string
	if trajectory >= 0 {
		svg = export.TrajectoryToSVG(export.Trajectory(result.Frames, trajectory), svgSize, svgSize, "#00ff88")
		if svg == "" {
			return fmt.Errorf("ball %d appears in fewer than two frames", trajectory)
		}
	} else {
		idx := frameIndex
		if idx < 0 {
			idx += len(result.Frames)
		}
		if idx < 0 || idx >= len(result.Frames) {
			return fmt.Errorf("frame %d out of range (have %d)", frameIndex, len(result.Frames))
		}
		svg = export.FrameToSVG(result.Frames[idx], meta.Params, nil, svgSize)
	}

	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()

	fmt.Printf("benchmarking %s layout, %d particles, %.1fs\n\n", base.Scene.Name, base.Scene.Count, base.Run.Duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SUBSTEPS\tTICKS\tTIME\tTICKS/SEC\tBALL-STEPS/SEC")

	for _, n := range []int{1, 2, 4, 8} {
		cfg := base.Clone()
		cfg.Params.Substeps = n

		var elapsed time.Duration
		var ticks, balls int
		for r := 0; r < benchRepeats; r++ {
			exp, err := experiment.New(cfg, registry, "none", logger)
			if err != nil {
				return err
			}
			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed += time.Since(start)
			ticks += result.TicksTaken
			balls += result.TicksTaken * result.Particles * n
		}

		secs := elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.0f\n",
			n, ticks, elapsed.Round(time.Millisecond), float64(ticks)/secs, float64(balls)/secs)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	runner := sweep.NewRunner(workers, logger)
	ctx, cancel := signalContext()
	defer cancel()

	if len(args) == 1 {
		scenario, err := sweep.LoadScenario(args[0])
		if err != nil {
			return err
		}
		results, err := runner.RunScenario(ctx, scenario)
		if err != nil {
			return err
		}
		fmt.Printf("scenario: %s\n\n", scenario.Name)
		return printResults(scenario, results)
	}

	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if sweepTrials > 0 {
		trials, err := runner.RunTrials(ctx, base, sweepTrials, metricSet)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SEED\tSTABLE\tMETRICS")
		for _, t := range trials {
			fmt.Fprintf(w, "%d\t%v\t%s\n", t.Seed, t.Stable, formatMetrics(t.Metrics))
		}
		return w.Flush()
	}

	results, err := runner.RunSweep(ctx, &sweep.Sweep{
		Base:      base,
		Param:     sweepParam,
		Min:       sweepMin,
		Max:       sweepMax,
		Steps:     sweepSteps,
		MetricSet: metricSet,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTICKS\tBALLS\tERRORS\tMETRICS\n", sweepParam)
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%d\t%d\t%s\n", r.ParamValue, r.Ticks, r.Particles, r.Errors, formatMetrics(r.Metrics))
	}
	return w.Flush()
}

func printResults(scenario *sweep.Scenario, results []*dynamo.Result) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tTICKS\tBALLS\tERRORS\tMETRICS")
	for i, r := range results {
		name := scenario.Runs[i].Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", name, r.TicksTaken, r.Particles, len(r.Errors), formatMetrics(r.Metrics))
	}
	return w.Flush()
}

func formatMetrics(m map[string]float64) string {
	s := ""
	for i, name := range sortedNames(m) {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%.4g", name, m[name])
	}
	return s
}
