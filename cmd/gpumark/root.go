package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/gpumark"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "gpumark",
	Short: "GPU benchmark for the GoGPU stack",
	Long: `gpumark measures GPU performance with three fixed workloads: a
ray-marched SDF scene, a one-million-particle compute simulation, and an
instanced geometry stress test. Each scene runs for 20 seconds and the
results fold into a single comparable score.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyLogLevel(parseLogLevel(logLevel))
	},
}

// parseLogLevel maps a level name to its slog level. Unknown or empty
// names fall back to info.
func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// resolveLogLevel picks the effective level: an explicit --log-level
// flag wins over the config file, and the config file wins over the
// built-in default.
func resolveLogLevel(flagSet bool, flagLevel, configLevel string) slog.Level {
	if !flagSet && configLevel != "" {
		return parseLogLevel(configLevel)
	}
	return parseLogLevel(flagLevel)
}

func applyLogLevel(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	gpumark.SetLogger(slog.New(handler))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}
