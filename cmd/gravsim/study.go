package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/automation"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
)

func studyCommands() []*cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate orbital periods from a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Int("body", -1, "only this body, with its spectrum")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [universe.csv]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  lyapunov,
	}
	addSimFlags(lyapunovCmd)
	lyapunovCmd.Flags().Int("body", 1, "body to perturb")
	lyapunovCmd.Flags().Float64("perturbation", 1e3, "initial displacement in meters")

	batchCmd := &cobra.Command{
		Use:   "batch [batch.yaml]",
		Short: "run and store every run listed in a batch file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [universe.csv]",
		Short: "compare conservation across fixed timesteps",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().String("dts", "900,3600,14400", "comma separated timesteps in seconds")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [universe.csv]",
		Short: "count perturbed trials that stay bounded",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().Int("trials", 16, "number of trials")
	monteCarloCmd.Flags().Float64("jitter", 0.01, "relative perturbation of each component")

	return []*cobra.Command{analyzeCmd, lyapunovCmd, batchCmd, sweepCmd, monteCarloCmd}
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	only, _ := cmd.Flags().GetInt("body")

	meta, states, u, err := loadRun(args[0])
	if err != nil {
		return err
	}
	uniform, interval := analysis.Uniform(states)
	if len(uniform) < 8 {
		return fmt.Errorf("run %s has too few uniform samples (%d)", meta.ID, len(uniform))
	}

	fmt.Printf("period analysis: %s\n", meta.ID)
	fmt.Printf("samples: %d every %s\n\n", len(uniform), viz.FormatSimTime(interval))

	if only >= 0 {
		if only >= u.Len() {
			return fmt.Errorf("body %d out of range [0, %d)", only, u.Len())
		}
		xs := analysis.RelativeSeries(uniform, u.Masses, only, analysis.AxisX)
		ps := analysis.PowerSpectrum(xs)
		fmt.Println(asciigraph.Plot(ps[1:],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("body %d x spectrum (cycles per run)", only)),
		))
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tMASS\tPERIOD")
	for i := 0; i < u.Len(); i++ {
		if only >= 0 && i != only {
			continue
		}
		xs := analysis.RelativeSeries(uniform, u.Masses, i, analysis.AxisX)
		period := "-"
		if p, ok := analysis.DominantPeriod(xs, interval); ok {
			period = viz.FormatSimTime(p)
		}
		fmt.Fprintf(w, "%d\t%.3e\t%s\n", i, u.Masses[i], period)
	}
	return w.Flush()
}

func lyapunov(cmd *cobra.Command, args []string) error {
	body, _ := cmd.Flags().GetInt("body")
	perturbation, _ := cmd.Flags().GetFloat64("perturbation")

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	base, err := experiment.LoadUniverse(cfg)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	build := func() (dynamo.ForceEvaluator, dynamo.Integrator) {
		ev, _ := registry.GetEvaluator(cfg.Evaluator, cfg)
		integ, _ := registry.GetIntegrator(cfg.Integrator)
		return ev, integ
	}

	ctx, cancel := signalContext()
	defer cancel()
	lambda, err := analysis.LyapunovExponent(ctx, base, build, body, cfg.FixedDt, cfg.Threshold, perturbation)
	if err != nil {
		return err
	}

	fmt.Printf("largest lyapunov exponent: %.4e 1/s\n", lambda)
	if lambda > 0 {
		fmt.Printf("e-folding time: %s\n", viz.FormatSimTime(1/lambda))
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	batch, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	outcomes, err := automation.RunBatch(ctx, batch, st, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRUN\tSTEPS\tENERGY_DRIFT")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3e\n", o.Name, o.RunID, o.Result.StepsTaken, o.Result.EnergyDrift)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("dts")
	dts, err := parseFloats(raw)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(context.Background(), cfg, dts, cfg.Workers)
	if err != nil {
		return err
	}

	fmt.Printf("timestep sweep on %s over %s\n\n", cfg.Source(), viz.FormatSimTime(cfg.Threshold))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS\tENERGY_DRIFT\tMOMENTUM_DRIFT")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%.3e\t%.3e\n", viz.FormatSimTime(r.Dt), r.Steps, r.EnergyDrift, r.MomentumDrift)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	trials, _ := cmd.Flags().GetInt("trials")
	jitter, _ := cmd.Flags().GetFloat64("jitter")

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(context.Background(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: jitter,
		Trials:       trials,
		EscapeRadius: cfg.EscapeRadius,
		Seed:         cfg.Seed,
		Workers:      cfg.Workers,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("%d trials: %d stable, %d escaped\n", len(results), stable, unstable)
	return nil
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", field, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values given")
	}
	return out, nil
}
