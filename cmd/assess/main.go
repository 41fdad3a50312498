package main

import (
	"log/slog"
	"os"

	"example.com/sme-finhealth/backend/internal/cli"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("ASSESS_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := cli.NewRootCommand().Execute(); err != nil {
		slog.Error("assessment failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
