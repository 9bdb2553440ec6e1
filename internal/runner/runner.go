// Package runner fans (ticker, parameter-set) backtest tasks out across a
// fixed-size worker pool and merges the results into a single report.
//
// Tasks are pure functions of their own bar slice and parameters: no shared
// mutable state, no locks, no cross-task communication. Results are merged by
// key (parameter set, then ticker), never by completion order, so the report
// is identical whether the pool runs 1 worker or N.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"backtester-v1/internal/metrics"
	"backtester-v1/internal/model"
	"backtester-v1/internal/perf"
	"backtester-v1/internal/sim"
	"backtester-v1/internal/strategy"
)

// Failure records one task that was excluded from aggregation, with enough
// identity to audit it afterwards.
type Failure struct {
	Ticker string
	Params model.ParamSet
	Err    error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s/%s: %v", f.Params.Key(), f.Ticker, f.Err)
}

// ParamResult collects one parameter set's per-ticker output.
type ParamResult struct {
	Params  model.ParamSet
	Stats   map[string]model.TickerStats
	Trades  map[string][]model.Trade
	Summary perf.Summary
}

// Report is the merged output of a whole run, keyed by parameter-set key.
type Report struct {
	ByParams map[string]*ParamResult
	Failures []Failure
}

// ParamKeys returns the report's parameter-set keys, sorted.
func (r *Report) ParamKeys() []string {
	keys := make([]string, 0, len(r.ByParams))
	for k := range r.ByParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Options configures a Runner. Zero values get sensible defaults; Metrics
// and Status may be nil when observability is not wired.
type Options struct {
	Workers int
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Status  *metrics.RunStatus
}

// Runner executes backtests for one named strategy.
type Runner struct {
	strat   strategy.Strategy
	workers int
	log     *slog.Logger
	metrics *metrics.Metrics
	status  *metrics.RunStatus
}

// New creates a Runner for the named strategy.
func New(strategyName string, opts Options) (*Runner, error) {
	strat, err := strategy.New(strategyName)
	if err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		strat:   strat,
		workers: opts.Workers,
		log:     opts.Logger,
		metrics: opts.Metrics,
		status:  opts.Status,
	}, nil
}

type task struct {
	ticker string
	params model.ParamSet
	bars   []model.Bar
}

type taskResult struct {
	ticker string
	params model.ParamSet
	stats  model.TickerStats
	trades []model.Trade
	err    error
}

// Run backtests every ticker in the universe under every parameter set.
//
// A cancelled context stops queued tasks from starting; in-flight tasks run
// to completion and their results are kept. Run then returns the partial
// report together with the context's error. Individual task failures never
// abort the run; they land in Report.Failures.
func (r *Runner) Run(ctx context.Context, universe map[string][]model.Bar, paramSets []model.ParamSet) (*Report, error) {
	tickers := make([]string, 0, len(universe))
	for t := range universe {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	tasks := make([]task, 0, len(tickers)*len(paramSets))
	for _, params := range paramSets {
		for _, ticker := range tickers {
			tasks = append(tasks, task{ticker: ticker, params: params, bars: universe[ticker]})
		}
	}
	if r.status != nil {
		r.status.SetQueued(len(tasks))
	}
	r.log.Info("run started",
		slog.String("strategy", r.strat.Name()),
		slog.Int("tickers", len(tickers)),
		slog.Int("param_sets", len(paramSets)),
		slog.Int("workers", r.workers))

	taskCh := make(chan task)
	resultCh := make(chan taskResult, r.workers)

	// Feeder: stops handing out work the moment the context dies.
	go func() {
		defer close(taskCh)
		for _, t := range tasks {
			select {
			case <-ctx.Done():
				return
			case taskCh <- t:
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.workers)
	for w := 0; w < r.workers; w++ {
		go func() {
			defer wg.Done()
			for t := range taskCh {
				resultCh <- r.runTask(t)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	report := &Report{ByParams: make(map[string]*ParamResult)}
	for res := range resultCh {
		if r.status != nil {
			r.status.TaskFinished()
		}
		if res.err != nil {
			report.Failures = append(report.Failures, Failure{
				Ticker: res.ticker,
				Params: res.params,
				Err:    res.err,
			})
			r.log.Warn("task failed",
				slog.String("ticker", res.ticker),
				slog.String("params", res.params.Key()),
				slog.String("err", res.err.Error()))
			continue
		}

		pr := report.ByParams[res.params.Key()]
		if pr == nil {
			pr = &ParamResult{
				Params: res.params,
				Stats:  make(map[string]model.TickerStats),
				Trades: make(map[string][]model.Trade),
			}
			report.ByParams[res.params.Key()] = pr
		}
		pr.Stats[res.ticker] = res.stats
		pr.Trades[res.ticker] = res.trades
	}

	// Failures arrive in completion order; sort them so the report is
	// deterministic regardless of scheduling.
	sort.Slice(report.Failures, func(i, j int) bool {
		if report.Failures[i].Params.Key() != report.Failures[j].Params.Key() {
			return report.Failures[i].Params.Key() < report.Failures[j].Params.Key()
		}
		return report.Failures[i].Ticker < report.Failures[j].Ticker
	})

	for _, pr := range report.ByParams {
		pr.Summary = perf.Summarize(pr.Stats)
	}
	if r.status != nil {
		r.status.SetDone()
	}
	return report, ctx.Err()
}

// runTask executes one (ticker, parameter-set) pipeline. Any fault, error
// or panic, is caught here and isolated to this task.
func (r *Runner) runTask(t task) (res taskResult) {
	start := time.Now()
	res = taskResult{ticker: t.ticker, params: t.params}

	defer func() {
		if p := recover(); p != nil {
			res.err = fmt.Errorf("task panic: %v", p)
		}
		if r.metrics != nil {
			r.metrics.TaskDur.Observe(time.Since(start).Seconds())
			r.metrics.TasksTotal.Inc()
			if res.err != nil {
				r.metrics.TaskFailures.Inc()
			} else {
				r.metrics.TradesTotal.Add(float64(len(res.trades)))
			}
		}
	}()

	sig, err := r.strat.Signals(t.bars, t.params)
	if err != nil {
		res.err = fmt.Errorf("signals: %w", err)
		return res
	}

	simRes, err := sim.Run(t.bars, sig)
	if err != nil {
		res.err = err
		return res
	}

	res.trades = sim.ExtractTrades(t.bars, simRes)
	res.stats = perf.Compute(res.trades)
	return res
}
