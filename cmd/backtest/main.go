// cmd/backtest runs the full backtest: loads the ticker universe from
// SQLite, fans (ticker × parameter-set) tasks across a worker pool, and
// prints per-parameter-set weighted performance summaries.
//
// Usage:
//
//	go run ./cmd/backtest --db=data/sample_stocks.db --sma=100,200 --workers=4
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"backtester-v1/config"
	"backtester-v1/internal/logger"
	"backtester-v1/internal/metrics"
	"backtester-v1/internal/model"
	"backtester-v1/internal/report"
	"backtester-v1/internal/runner"
	sqlitestore "backtester-v1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	cfg := config.Load()

	// Flags override env config
	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite price database")
	strategyName := flag.String("strategy", cfg.Strategy, "Strategy name to run")
	rsiPeriod := flag.Int("rsi", cfg.RSIPeriod, "RSI period")
	smaStr := flag.String("sma", cfg.SMAPeriods, "Comma-separated SMA periods, one backtest pass each")
	workers := flag.Int("workers", cfg.Workers, "Worker pool size")
	minMcap := flag.Float64("min-mcap", cfg.MinMarketCap, "Minimum market cap for the ticker universe")
	metricsAddr := flag.String("metrics", cfg.MetricsAddr, "Metrics listen address (empty = disabled)")
	flag.Parse()

	smaPeriods := parseSMAPeriods(*smaStr)
	if len(smaPeriods) == 0 {
		log.Fatal("[backtest] no valid SMA periods specified")
	}
	paramSets := make([]model.ParamSet, 0, len(smaPeriods))
	for _, sma := range smaPeriods {
		paramSets = append(paramSets, model.ParamSet{RSIPeriod: *rsiPeriod, SMAPeriod: sma})
	}

	lg := logger.Init("backtest", parseLevel(cfg.LogLevel))

	// Open SQLite and load the universe
	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer reader.Close()

	universe, err := reader.LoadUniverse(*minMcap)
	if err != nil {
		log.Fatalf("[backtest] universe load failed: %v", err)
	}
	if len(universe) == 0 {
		log.Fatalf("[backtest] no tickers above market cap %.0f", *minMcap)
	}

	// Optional metrics listener
	var m *metrics.Metrics
	var status *metrics.RunStatus
	if *metricsAddr != "" {
		m = metrics.NewMetrics()
		status = metrics.NewRunStatus()
		srv := metrics.NewServer(*metricsAddr, status)
		srv.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Stop(stopCtx)
		}()
		var loaded int
		for _, bars := range universe {
			loaded += len(bars)
		}
		m.BarsLoaded.Add(float64(loaded))
	}

	// Setup context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Print("[backtest] interrupt, aborting queued tasks")
		cancel()
	}()

	ctx = logger.WithRunID(ctx, logger.GenerateRunID(*strategyName, time.Now()))

	r, err := runner.New(*strategyName, runner.Options{
		Workers: *workers,
		Logger:  lg,
		Metrics: m,
		Status:  status,
	})
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}

	start := time.Now()
	rep, runErr := r.Run(ctx, universe, paramSets)
	if runErr != nil {
		lg.Warn("run interrupted, reporting partial results",
			append(logger.WithRun(ctx), slog.String("err", runErr.Error()))...)
	}

	report.Print(os.Stdout, rep)
	lg.Info("run finished",
		append(logger.WithRun(ctx),
			slog.Int("param_sets", len(rep.ByParams)),
			slog.Int("failures", len(rep.Failures)),
			slog.Duration("elapsed", time.Since(start)))...)
}

func parseSMAPeriods(s string) []int {
	var periods []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			periods = append(periods, n)
		}
	}
	return periods
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
