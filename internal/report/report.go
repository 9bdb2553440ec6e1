// Package report renders a finished run as text: one weighted summary per
// parameter set, plus the tickers and tasks that were excluded and why.
package report

import (
	"fmt"
	"io"

	"backtester-v1/internal/model"
	"backtester-v1/internal/runner"
)

// Print writes the run report to w, parameter sets in key order.
func Print(w io.Writer, rep *runner.Report) {
	fmt.Fprintln(w, "Backtest Summary:")
	if len(rep.ByParams) == 0 {
		fmt.Fprintln(w, "No results to summarize.")
		printFailures(w, rep.Failures)
		return
	}

	for _, key := range rep.ParamKeys() {
		pr := rep.ByParams[key]
		sum := pr.Summary

		fmt.Fprintln(w)
		fmt.Fprintln(w, "╔══════════════════════════════════════════╗")
		fmt.Fprintf(w, "║  %-40s║\n", key)
		fmt.Fprintln(w, "╠══════════════════════════════════════════╣")
		fmt.Fprintf(w, "║  Tickers:             %-19d║\n", len(pr.Stats))
		fmt.Fprintf(w, "║  Total trades:        %-19d║\n", sum.TotalTrades)
		fmt.Fprintf(w, "║  Win rate:            %-19.4f║\n", sum.WinRate)
		fmt.Fprintf(w, "║  Avg risk-reward:     %-19.4f║\n", sum.AvgRiskReward)
		fmt.Fprintf(w, "║  Avg return:          %-19.4f║\n", sum.AvgReturn)
		fmt.Fprintln(w, "╚══════════════════════════════════════════╝")

		if len(sum.Excluded) > 0 {
			fmt.Fprintf(w, "[WARNING] %d ticker(s) excluded from %s for undefined stats:\n", len(sum.Excluded), key)
			for _, ticker := range sum.Excluded {
				fmt.Fprintf(w, " - %s: %s\n", ticker, formatStats(pr.Stats[ticker]))
			}
		}
	}

	printFailures(w, rep.Failures)
}

func printFailures(w io.Writer, failures []runner.Failure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "[WARNING] %d task(s) failed and were excluded:\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, " - %s\n", f)
	}
}

func formatStats(s model.TickerStats) string {
	return fmt.Sprintf("trades=%d win_rate=%.4f avg_rr=%.4f avg_return=%.4f",
		s.TotalTrades, s.WinRate, s.AvgRiskReward, s.AvgReturn)
}
