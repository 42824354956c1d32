package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/clock"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/export"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/universe"
	"github.com/san-kum/gravsim/internal/viz"
)

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
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tBODIES\tSIMULATED\tSTEPS\tEVAL\tINTEG\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%s\t%s\t%.2e\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			viz.FormatSimTime(run.Elapsed),
			run.Steps,
			run.Evaluator,
			run.Integrator,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

// loadRun reads a run's metadata, its trajectory and its initial universe.
func loadRun(runID string) (*storage.RunMetadata, []dynamo.Snapshot, *dynamo.Universe, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	states, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(states) == 0 {
		return nil, nil, nil, fmt.Errorf("run %s has no recorded states", runID)
	}
	initial, err := st.LoadUniverse(runID, false)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, states, initial, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	what, _ := cmd.Flags().GetString("what")
	body, _ := cmd.Flags().GetInt("body")

	meta, states, u, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if body < 0 || body >= u.Len() {
		return fmt.Errorf("body %d out of range [0, %d)", body, u.Len())
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("samples: %d over %s\n\n", len(states), viz.FormatSimTime(states[len(states)-1].Time))

	var graph string
	switch what {
	case "energy":
		sep := physics.Separation{Softening: meta.Softening, MinSeparation: meta.MinSeparation}
		data := make([]float64, len(states))
		for k, s := range states {
			copy(u.Positions, s.Positions)
			copy(u.Velocities, s.Velocities)
			data[k] = physics.TotalEnergy(u, meta.G, sep)
		}
		graph = asciigraph.Plot(data,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("total energy (J)"),
		)

	case "xy":
		xs := make([]float64, len(states))
		ys := make([]float64, len(states))
		for k, s := range states {
			xs[k] = s.Positions[body].X
			ys[k] = s.Positions[body].Y
		}
		graph = asciigraph.PlotMany([][]float64{xs, ys},
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
			asciigraph.Caption(fmt.Sprintf("body %d x (red), y (blue) in m", body)),
		)

	case "distance":
		com := make([]float64, len(states))
		for k, s := range states {
			copy(u.Positions, s.Positions)
			copy(u.Velocities, s.Velocities)
			center, _ := physics.CenterOfMass(u)
			com[k] = r3.Norm(r3.Sub(s.Positions[body], center))
		}
		graph = asciigraph.Plot(com,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("body %d distance from center of mass (m)", body)),
		)

	default:
		return fmt.Errorf("unknown plot: %s (energy, xy, distance)", what)
	}

	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	runID := args[0]

	switch format {
	case "json":
		meta, states, _, err := loadRun(runID)
		if err != nil {
			return err
		}
		data := export.NewExportData(meta, states)
		if out == "" {
			return export.WriteJSON(os.Stdout, data)
		}
		return export.ExportJSON(out, data)

	case "csv":
		final, err := storage.New(dataDir).LoadUniverse(runID, true)
		if err != nil {
			return err
		}
		if out == "" {
			return universe.Write(os.Stdout, final)
		}
		return universe.Save(out, final)

	default:
		return fmt.Errorf("unknown export format: %s (json, csv)", format)
	}
}

func svgRun(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	braille, _ := cmd.Flags().GetBool("braille")

	meta, states, _, err := loadRun(args[0])
	if err != nil {
		return err
	}

	positions := make([][]r3.Vec, len(states))
	for k, s := range states {
		positions[k] = s.Positions
	}
	tracks := export.Tracks(positions, meta.Colors)

	var svg string
	if braille {
		cam := viz.NewCamera()
		cam.Fit(states[0].Positions)
		canvas := export.RenderCanvas(tracks, cam, width/8, height/16)
		svg = export.CanvasToSVG(canvas, meta.Colors, 4)
	} else {
		svg = export.OrbitsToSVG(tracks, width, height)
	}

	if out == "" {
		out = meta.ID + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func benchEvaluators(cmd *cobra.Command, args []string) error {
	steps, _ := cmd.Flags().GetInt("steps")

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	base, err := experiment.LoadUniverse(cfg)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s (%d bodies, %d steps)\n\n", cfg.Source(), base.Len(), steps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EVALUATOR\tTIME\tSTEPS/SEC\tENERGY_DRIFT")

	for _, name := range registry.ListEvaluators() {
		ev, err := registry.GetEvaluator(name, cfg)
		if err != nil {
			return err
		}

		s := sim.New(base.Clone(), ev, integ, clock.New(clock.Fixed{Dt: cfg.FixedDt}, cfg.FixedDt*float64(steps)),
			sim.WithRecordEvery(steps))

		start := time.Now()
		result, err := s.Run(context.Background())
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\n", name, err)
			continue
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%s\t%v\t%.0f\t%.2e\n",
			name, elapsed.Round(time.Microsecond), float64(result.StepsTaken)/elapsed.Seconds(), result.EnergyDrift)
	}

	return w.Flush()
}

// compareIntegrators runs the same universe under each named integrator
// concurrently and reports conservation errors.
func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	if cfg.TimestepPolicy != config.PolicyFixed {
		return fmt.Errorf("compare needs the %s timestep policy", config.PolicyFixed)
	}
	base, err := experiment.LoadUniverse(cfg)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	ensemble := sim.NewEnsemble(len(args))
	for _, name := range args {
		integ, err := registry.GetIntegrator(name)
		if err != nil {
			return fmt.Errorf("%w (available: %s)", err, strings.Join(registry.ListIntegrators(), ", "))
		}
		ev, err := registry.GetEvaluator(cfg.Evaluator, cfg)
		if err != nil {
			return err
		}
		s := sim.New(base.Clone(), ev, integ, clock.New(clock.Fixed{Dt: cfg.FixedDt}, cfg.Threshold),
			sim.WithRecordEvery(cfg.RecordEvery))
		for _, m := range registry.DefaultMetrics(cfg, ev) {
			s.AddMetric(m)
		}
		ensemble.Add(s)
	}

	fmt.Printf("comparing integrators on %s (dt=%s, duration=%s)\n\n",
		cfg.Source(), viz.FormatSimTime(cfg.FixedDt), viz.FormatSimTime(cfg.Threshold))

	start := time.Now()
	results, err := ensemble.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%-18s  %-12s  %-12s  %-12s\n", "integrator", "energy_drift", "momentum", "angular_mom")
	fmt.Println(strings.Repeat("-", 60))
	for i, r := range results {
		fmt.Printf("%-18s  %12.3e  %12.3e  %12.3e\n",
			args[i], r.EnergyDrift, r.MomentumDrift, metricOr(r.Metrics, "angular_momentum_drift"))
	}
	fmt.Printf("\nwall time: %v\n", time.Since(start).Round(time.Millisecond))

	return nil
}

func metricOr(m map[string]float64, name string) float64 {
	if v, ok := m[name]; ok {
		return v
	}
	return math.NaN()
}
