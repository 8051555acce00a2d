package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/revolute/internal/config"
	"github.com/san-kum/revolute/internal/experiment"
	"github.com/san-kum/revolute/internal/export"
	"github.com/san-kum/revolute/internal/scalar"
	"github.com/san-kum/revolute/internal/storage"
	"github.com/san-kum/revolute/internal/sweep"
	"github.com/san-kum/revolute/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool
	// eval
	scalarKind string
	asJSON     bool
	// sweep overrides
	sweepJoint string
	sweepFrom  float64
	sweepTo    float64
	samples    int
	workers    int
	noSave     bool
	// plot
	plotEntry  string
	plotHeight int
	plotWidth  int
	// export-svg
	svgEntry  string
	svgHeight int
	svgWidth  int
	output    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// newRootCmd builds the command tree and binds every flag to its variable.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mbsim",
		Short:         "revolute joint workbench",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		RunE: watchScenario,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mbsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "single", "use preset scenario")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "build the scenario, apply state and torques, print the result",
		Args:  cobra.NoArgs,
		RunE:  evalScenario,
	}
	evalCmd.Flags().StringVar(&scalarKind, "scalar", "", "scalar kind (real|dual), overrides the scenario")
	evalCmd.Flags().BoolVar(&asJSON, "json", false, "print the report as json")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one joint's angle and record R and dR/dθ",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepJoint, "joint", "", "joint to sweep")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first angle")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 0, "last angle")
	sweepCmd.Flags().IntVar(&samples, "samples", 0, "number of angles")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers")
	sweepCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored sweeps",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a rotation entry of a stored sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotEntry, "entry", "r00", "entry to plot (r00..r22)")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored sweep as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "write a rotation entry and its derivative as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&svgEntry, "entry", "r00", "entry to draw (r00..r22)")
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset scenarios",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "interactive joint inspector",
		Args:  cobra.NoArgs,
		RunE:  watchScenario,
	}

	rootCmd.AddCommand(evalCmd, sweepCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd, watchCmd)
	return rootCmd
}

func loadScenario() (*config.Config, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load scenario: %w", err)
		}
		return cfg, nil
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (have %s)", preset, strings.Join(config.ListPresets(), ", "))
	}
	return cfg, nil
}

func evalScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario()
	if err != nil {
		return err
	}

	e := experiment.New(cfg, slog.Default())
	var report *experiment.Report
	if scalarKind != "" {
		kind, err := scalar.ParseKind(scalarKind)
		if err != nil {
			return err
		}
		report, err = e.RunAs(cmd.Context(), kind)
		if err != nil {
			return err
		}
	} else {
		report, err = e.Run(cmd.Context())
		if err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(report)
}

func printReport(r *experiment.Report) error {
	fmt.Println(tui.TitleStyle.Render(fmt.Sprintf("%s (%s)", r.Scenario, r.Kind)))
	fmt.Println(tui.LabelStyle.Render(fmt.Sprintf("positions %d  velocities %d  mobilizers %d",
		r.NumPositions, r.NumVelocities, r.NumMobilizers)))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOINT\tFRAMES\tAXIS\tSLOT\tANGLE\tRATE\tTORQUE")
	for _, j := range r.Joints {
		fmt.Fprintf(w, "%s\t%s → %s\t(%.4f, %.4f, %.4f)\t%d\t%.6f\t%.6f\t%.6f\n",
			j.Name, j.Parent, j.Child,
			j.Axis[0], j.Axis[1], j.Axis[2],
			j.VelocityStart, j.Angle, j.Rate, j.Torque)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, j := range r.Joints {
		var b strings.Builder
		b.WriteString(tui.TitleStyle.Render(j.Name))
		b.WriteString("\n")
		b.WriteString(tui.LabelStyle.Render("R_FM"))
		b.WriteString("\n")
		writeRows(&b, j.Rotation.Row)
		if j.RotationDerivative != nil {
			b.WriteString(tui.LabelStyle.Render("dR/dθ"))
			b.WriteString("\n")
			writeRows(&b, j.RotationDerivative.Row)
		}
		b.WriteString(tui.LabelStyle.Render("ω_FM "))
		b.WriteString(tui.ValueStyle.Render(fmt.Sprintf("(%.6f, %.6f, %.6f)",
			j.AngularVelocity[0], j.AngularVelocity[1], j.AngularVelocity[2])))
		fmt.Println(tui.PanelStyle.Render(b.String()))
	}
	return nil
}

func writeRows[V ~[3]float64](b *strings.Builder, row func(int) V) {
	for i := range 3 {
		r := row(i)
		b.WriteString(tui.ValueStyle.Render(fmt.Sprintf("%10.6f %10.6f %10.6f", r[0], r[1], r[2])))
		b.WriteString("\n")
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("joint") {
		cfg.Sweep.Joint = sweepJoint
	}
	if flags.Changed("from") {
		cfg.Sweep.From = sweepFrom
	}
	if flags.Changed("to") {
		cfg.Sweep.To = sweepTo
	}
	if flags.Changed("samples") {
		cfg.Sweep.Samples = samples
	}
	if flags.Changed("workers") {
		cfg.Sweep.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	res, err := sweep.New(cfg, slog.Default()).Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	fmt.Printf("swept %s over [%.4f, %.4f]: %d samples, %d workers, %s\n",
		res.Joint, res.From, res.To, len(res.Samples), res.Workers, res.Elapsed)

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(res)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	fmt.Printf("saved: %s\n", runID)
	return nil
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
	fmt.Fprintln(w, "ID\tSCENARIO\tJOINT\tTIME\tRANGE\tSAMPLES\tWORKERS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t[%.3f, %.3f]\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Joint,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.From,
			run.To,
			run.Samples,
			run.Workers,
		)
	}

	return w.Flush()
}

func parseEntry(s string) (int, int, error) {
	var row, col int
	if len(s) != 3 {
		return 0, 0, fmt.Errorf("bad entry %q: want r00..r22", s)
	}
	if _, err := fmt.Sscanf(s, "r%1d%1d", &row, &col); err != nil || row < 0 || row > 2 || col < 0 || col > 2 {
		return 0, 0, fmt.Errorf("bad entry %q: want r00..r22", s)
	}
	return row, col, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	row, col, err := parseEntry(plotEntry)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	points, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("joint: %s\n", meta.Joint)
	fmt.Printf("samples: %d\n\n", len(points))

	res := &sweep.Result{Samples: points}
	plots := []struct {
		data    []float64
		caption string
	}{
		{res.Series(row, col), fmt.Sprintf("%s vs θ", plotEntry)},
		{res.DerivativeSeries(row, col), fmt.Sprintf("d%s/dθ vs θ", plotEntry)},
	}
	for _, p := range plots {
		graph := asciigraph.Plot(p.data,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func exportSVG(cmd *cobra.Command, args []string) error {
	row, col, err := parseEntry(svgEntry)
	if err != nil {
		return err
	}
	points, err := storage.New(dataDir).LoadSamples(args[0])
	if err != nil {
		return err
	}

	res := &sweep.Result{Samples: points}
	curves := []export.Curve{
		{Label: svgEntry, Stroke: "#00ff88", Y: res.Series(row, col)},
		{Label: "d" + svgEntry + "/dθ", Stroke: "#ff00ff", Y: res.DerivativeSeries(row, col)},
	}

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.CurvesToSVG(out, res.AngleSeries(), curves, svgWidth, svgHeight)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSCALAR\tJOINTS\tSWEEP")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		joints := make([]string, len(cfg.Joints))
		for i, j := range cfg.Joints {
			joints[i] = j.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, cfg.Scalar, strings.Join(joints, ","), cfg.SweepJoint())
	}
	return w.Flush()
}

func watchScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario()
	if err != nil {
		return err
	}
	return tui.Watch(cfg)
}
