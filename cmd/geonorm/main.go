package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohammed-shakir/geo-normalizer/internal/app/cli"
	"github.com/mohammed-shakir/geo-normalizer/internal/core/config"
	"github.com/mohammed-shakir/geo-normalizer/internal/logger"
	"github.com/mohammed-shakir/geo-normalizer/internal/metrics"
)

var (
	Version   = "dev"
	Revision  = ""
	BuildDate = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.Log.Level,
		Console:   cfg.Log.Console,
		SampleN:   cfg.Log.SampleN,
		Component: "geonorm",
	}, os.Stderr)
	appLog := logger.NewSlog(&zl)

	p := metrics.Init(metrics.Config{
		TextfilePath: cfg.MetricsFile,
		Build:        metrics.BuildInfo{Version: Version, Revision: Revision, BuildDate: BuildDate},
	})
	nm := metrics.NewNormalizer(p.Registerer())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.New(cfg, appLog, nm, os.Stdin, os.Stdout)
	runErr := app.Run(ctx, os.Args[1:])

	if err := p.WriteTextfile(); err != nil {
		appLog.Error("metrics export failed", "path", cfg.MetricsFile, "err", err)
	}
	if runErr != nil {
		appLog.Error("command failed", "err", runErr)
		return 1
	}
	return 0
}
