package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/logging"
	"github.com/san-kum/gravsim/internal/scenario"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/universe"
	"github.com/san-kum/gravsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string
	themeName  string

	policy        string
	dt            float64
	speedUp       float64
	pacing        time.Duration
	threshold     float64
	gravity       float64
	softening     float64
	minSeparation float64
	evaluator     string
	theta         float64
	workers       int
	integrator    string
	scenarioName  string
	numBodies     int
	seed          int64
	recordEvery   int
	escapeRadius  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gravsim",
		Short:         "gravitational n-body simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLauncher(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".gravsim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (console, json)")
	pf.StringVar(&themeName, "theme", viz.ThemeDeepSpace.Name, "live view theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run [universe.csv]",
		Short: "run a simulation and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [universe.csv]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy or a body's trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().String("what", "energy", "energy, xy or distance")
	plotCmd.Flags().Int("body", 1, "body index for xy and distance plots")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json or its final universe as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().String("format", "json", "json or csv")
	exportCmd.Flags().StringP("out", "o", "", "output file (default stdout)")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "draw the recorded orbits as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  svgRun,
	}
	svgCmd.Flags().StringP("out", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().Int("width", 800, "image width")
	svgCmd.Flags().Int("height", 800, "image height")
	svgCmd.Flags().Bool("braille", false, "render through the terminal canvas instead of vector paths")

	benchCmd := &cobra.Command{
		Use:   "bench [universe.csv]",
		Short: "time every force evaluator on the same universe",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchEvaluators,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().Int("steps", 200, "steps per evaluator")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on the same universe",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addSimFlags(compareCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Printf("  %-14s %s\n", name, describe(config.GetPreset(name)))
			}
			return nil
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [name]",
		Short: "write a generated universe in loader format",
		Args:  cobra.ExactArgs(1),
		RunE:  writeScenario,
	}
	scenarioCmd.Flags().Int("bodies", 0, "number of bodies")
	scenarioCmd.Flags().Int64("seed", 1, "random seed")
	scenarioCmd.Flags().StringP("out", "o", "", "output file (default stdout)")

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}
	addSimFlags(configCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, svgCmd, benchCmd, compareCmd, presetsCmd, scenarioCmd, configCmd)
	rootCmd.AddCommand(studyCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&policy, "policy", config.PolicyFixed, "timestep policy ("+strings.Join(config.Policies, ", ")+")")
	f.Float64Var(&dt, "dt", config.DefaultDt, "fixed timestep in seconds")
	f.Float64Var(&speedUp, "speedup", config.DefaultSpeedUp, "simulated seconds per wall-clock second")
	f.DurationVar(&pacing, "pacing", config.DefaultPacingInterval, "minimum wall-clock interval between realtime steps")
	f.Float64Var(&threshold, "threshold", config.DefaultThreshold, "simulated seconds to run")
	f.Float64Var(&gravity, "g", config.DefaultG, "gravitational constant")
	f.Float64Var(&softening, "softening", 0, "plummer softening length")
	f.Float64Var(&minSeparation, "min-separation", 0, "minimum pair separation")
	f.StringVar(&evaluator, "evaluator", "direct", "force evaluator ("+strings.Join(config.Evaluators, ", ")+")")
	f.Float64Var(&theta, "theta", config.DefaultTheta, "barnes-hut opening angle")
	f.IntVar(&workers, "workers", 0, "parallel evaluator workers (0 = GOMAXPROCS)")
	f.StringVar(&integrator, "integrator", "symplectic_euler", "integrator ("+strings.Join(config.Integrators, ", ")+")")
	f.StringVar(&scenarioName, "scenario", config.DefaultScenario, "generated scenario ("+strings.Join(scenario.List(), ", ")+")")
	f.IntVar(&numBodies, "bodies", 0, "number of bodies for generated scenarios")
	f.Int64Var(&seed, "seed", 0, "random seed for generated scenarios")
	f.IntVar(&recordEvery, "record-every", config.DefaultRecordEvery, "record one snapshot every n steps")
	f.Float64Var(&escapeRadius, "escape-radius", 0, "radius for the boundedness metric")
}

// loadConfig layers the preset (or the defaults), the config file, the universe argument and
// finally any flags set on the command line.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if len(args) > 0 {
		cfg.Universe = args[0]
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			apply()
		}
	}
	set("policy", func() { cfg.TimestepPolicy = policy })
	set("dt", func() { cfg.FixedDt = dt })
	set("speedup", func() { cfg.SpeedUp = speedUp })
	set("pacing", func() { cfg.PacingInterval = pacing })
	set("threshold", func() { cfg.Threshold = threshold })
	set("g", func() { cfg.G = gravity })
	set("softening", func() { cfg.Softening = softening })
	set("min-separation", func() { cfg.MinSeparation = minSeparation })
	set("evaluator", func() { cfg.Evaluator = evaluator })
	set("theta", func() { cfg.Theta = theta })
	set("workers", func() { cfg.Workers = workers })
	set("integrator", func() { cfg.Integrator = integrator })
	set("scenario", func() { cfg.Scenario = scenarioName; cfg.Universe = "" })
	set("bodies", func() { cfg.Bodies = numBodies })
	set("seed", func() { cfg.Seed = seed })
	set("record-every", func() { cfg.RecordEvery = recordEvery })
	set("escape-radius", func() { cfg.EscapeRadius = escapeRadius })
	set("log-level", func() { cfg.Logging.Level = logLevel })
	set("log-format", func() { cfg.Logging.Format = logFormat })

	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

func describe(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	step := fmt.Sprintf("dt=%s", viz.FormatSimTime(cfg.FixedDt))
	if cfg.TimestepPolicy == config.PolicyRealTime {
		step = fmt.Sprintf("realtime x%g", cfg.SpeedUp)
	}
	return fmt.Sprintf("%s, %s, %s, %s, %s", cfg.Source(), cfg.Evaluator, cfg.Integrator, step, viz.FormatSimTime(cfg.Threshold))
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(); err != nil {
		return err
	}

	log.Info("running simulation",
		zap.String("source", cfg.Source()),
		zap.Int("bodies", exp.Initial().Len()),
		zap.String("policy", cfg.TimestepPolicy),
		zap.Float64("threshold", cfg.Threshold),
	)
	start := time.Now()

	ctx, cancel := signalContext()
	defer cancel()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	wall := time.Since(start)

	runID, err := st.Save(cfg, exp.Initial(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", wall)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("simulated: %s\n", viz.FormatSimTime(result.Elapsed))
	fmt.Println("\nmetrics:")
	for _, name := range sortedNames(result.Metrics) {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}

	return nil
}

func buildLive(cfg *config.Config, log *zap.Logger) (viz.Model, error) {
	exp := experiment.New(cfg, log)
	if err := exp.Setup(); err != nil {
		return viz.Model{}, err
	}
	return viz.NewModel(exp.GetSimulator(), cfg.Source(), cfg.PacingInterval), nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if err := viz.SetTheme(themeName); err != nil {
		return err
	}
	if preset == "" && configFile == "" {
		preset = "live"
	}
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	// the live view owns the terminal
	if !cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = "error"
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	m, err := buildLive(cfg, log)
	if err != nil {
		return err
	}
	final, err := viz.RunLive(m)
	if err != nil {
		return err
	}
	return final.Err()
}

func runLauncher(cmd *cobra.Command) error {
	if err := viz.SetTheme(themeName); err != nil {
		return err
	}
	log := zap.NewNop()
	names := config.ListPresets()
	info := make(map[string]string, len(names))
	for _, name := range names {
		info[name] = describe(config.GetPreset(name))
	}

	launcher := viz.NewLauncher(names, info, func(name string) (viz.Model, error) {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return viz.Model{}, fmt.Errorf("unknown preset: %s", name)
		}
		return buildLive(cfg, log)
	})
	return viz.RunLauncher(launcher)
}

func writeScenario(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("bodies")
	seed, _ := cmd.Flags().GetInt64("seed")
	u, err := scenario.Generate(args[0], n, seed)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return universe.Write(os.Stdout, u)
	}
	if err := universe.Save(out, u); err != nil {
		return err
	}
	fmt.Printf("wrote %d bodies to %s\n", u.Len(), out)
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
