package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/generator"
	"github.com/ToledoEM/field-generation/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", -1, "Field seed (-1 = use config, or draw one per pass)")
	outputDir := flag.String("output-dir", "", "Output directory for pass artifacts, CSV logs and config snapshot")
	auto := flag.Bool("auto", false, "Keep generating on a fixed interval with randomized parameters")
	interval := flag.Duration("interval", 0, "Auto-generation interval (0 = use config)")
	maxPasses := flag.Int("max-passes", 0, "Stop auto-generation after N passes (0 = unlimited)")
	logStats := flag.Bool("log-stats", false, "Output per-pass stats via slog")
	rngSeed := flag.Int64("rng-seed", 0, "Seed for per-pass seed draws (0 = time-based)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *seed >= 0 {
		cfg = cfg.WithSeed(*seed)
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	gen := generator.New(generator.Options{Seed: *rngSeed, LogStats: *logStats})
	onPass := func(res *generator.Result) error {
		perf := gen.Perf()

		start := time.Now()
		files, err := om.WritePass(res.Pass, res.Document())
		perf.AddPhase(telemetry.PhaseExport, time.Since(start))
		if err != nil {
			return err
		}

		start = time.Now()
		if err := om.WritePassStats(res.Stats); err != nil {
			slog.Error("failed to write pass stats", "error", err)
		}
		perf.AddPhase(telemetry.PhaseTelemetry, time.Since(start))
		if err := om.WritePerf(gen.Perf().Stats(), res.Pass); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		slog.Info("pass complete",
			"pass", res.Pass,
			"seed", res.Seed,
			"paths", len(res.Paths),
			"files", files,
		)
		return nil
	}

	if !*auto {
		res, err := gen.Generate(cfg)
		if err != nil {
			slog.Error("generation failed", "error", err)
			os.Exit(1)
		}
		if err := onPass(res); err != nil {
			slog.Error("failed to write pass", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &generator.Runner{
		Gen:       gen,
		Base:      cfg,
		Interval:  *interval,
		MaxPasses: *maxPasses,
		Vary:      true,
		OnPass:    onPass,
	}

	runInterval := *interval
	if runInterval <= 0 {
		runInterval = cfg.Auto.Interval
	}
	slog.Info("starting auto generation",
		"interval", runInterval.Round(time.Millisecond).String(),
		"max_passes", *maxPasses,
		"output_dir", om.Dir(),
	)

	n, err := runner.Run(ctx)
	if err != nil {
		slog.Error("auto generation stopped", "passes", n, "error", err)
		os.Exit(1)
	}
	slog.Info("auto generation finished", "passes", n)
}
