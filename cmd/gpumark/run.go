package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/gpumark"
	"github.com/gogpu/gpumark/internal/config"
)

var (
	configPath string
	width      int
	height     int
	duration   float64
	reportPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full benchmark",
	Long: `Runs all three scenes back to back and prints the per-scene and
final scores. Settings come from an optional YAML config file; flags
set on the command line override it.`,
	RunE: runBenchmark,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	runCmd.Flags().IntVar(&width, "width", 1920, "Render width in pixels")
	runCmd.Flags().IntVar(&height, "height", 1080, "Render height in pixels")
	runCmd.Flags().Float64Var(&duration, "duration", 20, "Seconds per scene (non-default runs are not comparable)")
	runCmd.Flags().StringVar(&reportPath, "report", "", "Write a PNG report to this path")
	rootCmd.AddCommand(runCmd)
}

func buildOptions(cmd *cobra.Command) (gpumark.Options, error) {
	opts := gpumark.DefaultOptions()

	if configPath != "" {
		c, err := config.Load(configPath)
		if err != nil {
			return opts, err
		}
		if c.Render.Width > 0 {
			opts.Width = c.Render.Width
		}
		if c.Render.Height > 0 {
			opts.Height = c.Render.Height
		}
		if d := c.SceneDuration(); d > 0 {
			opts.SceneDuration = d
		}
		if c.Benchmark.ReportPath != "" {
			opts.ReportPath = c.Benchmark.ReportPath
		}
		if c.Log.Level != "" {
			applyLogLevel(resolveLogLevel(cmd.Flags().Changed("log-level"), logLevel, c.Log.Level))
		}
	}

	if cmd.Flags().Changed("width") {
		opts.Width = width
	}
	if cmd.Flags().Changed("height") {
		opts.Height = height
	}
	if cmd.Flags().Changed("duration") {
		opts.SceneDuration = time.Duration(duration * float64(time.Second))
	}
	if cmd.Flags().Changed("report") {
		opts.ReportPath = reportPath
	}
	return opts, nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	runner, err := gpumark.Open(opts)
	if err != nil {
		return fmt.Errorf("initialize GPU: %w", err)
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	if res == nil {
		// Interrupted; nothing to report.
		return nil
	}

	fmt.Printf("Adapter:         %s\n", res.Adapter)
	fmt.Printf("Resolution:      %dx%d\n", opts.Width, opts.Height)
	names := [gpumark.SceneCount]string{"Ray March", "Particle Compute", "Geometry Stress"}
	for i, s := range res.SceneScores {
		fmt.Printf("%-16s %8.1f\n", names[i]+":", s)
	}
	fmt.Printf("Final score:     %8d\n", res.FinalScore)
	return nil
}
