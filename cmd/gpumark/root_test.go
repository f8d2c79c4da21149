package main

import (
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := parseLogLevel(c.in); got != c.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestResolveLogLevel(t *testing.T) {
	cases := []struct {
		name        string
		flagSet     bool
		flagLevel   string
		configLevel string
		want        slog.Level
	}{
		{"config level applies when flag untouched", false, "info", "debug", slog.LevelDebug},
		{"explicit flag wins over config", true, "error", "debug", slog.LevelError},
		{"empty config falls back to flag default", false, "info", "", slog.LevelInfo},
		{"explicit flag without config", true, "warn", "", slog.LevelWarn},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := resolveLogLevel(c.flagSet, c.flagLevel, c.configLevel); got != c.want {
				t.Errorf("resolveLogLevel(%v, %q, %q) = %v, want %v",
					c.flagSet, c.flagLevel, c.configLevel, got, c.want)
			}
		})
	}
}
