package report

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"backtester-v1/internal/model"
	"backtester-v1/internal/perf"
	"backtester-v1/internal/runner"
)

func TestPrint_SummaryAndExclusions(t *testing.T) {
	params := model.ParamSet{RSIPeriod: 10, SMAPeriod: 200}
	stats := map[string]model.TickerStats{
		"AAA": {TotalTrades: 4, WinRate: 0.75, AvgRiskReward: 2.5, AvgReturn: 3.1},
		"ZZZ": {TotalTrades: 0, WinRate: 0, AvgRiskReward: math.NaN(), AvgReturn: math.NaN()},
	}
	rep := &runner.Report{
		ByParams: map[string]*runner.ParamResult{
			params.Key(): {
				Params:  params,
				Stats:   stats,
				Summary: perf.Summarize(stats),
			},
		},
		Failures: []runner.Failure{
			{Ticker: "BAD", Params: params, Err: errors.New("signal length mismatch")},
		},
	}

	var buf bytes.Buffer
	Print(&buf, rep)
	out := buf.String()

	for _, want := range []string{
		"RSI10_SMA200",
		"Total trades:",
		"excluded from RSI10_SMA200 for undefined stats",
		" - ZZZ:",
		"task(s) failed",
		"RSI10_SMA200/BAD: signal length mismatch",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}

func TestPrint_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, &runner.Report{ByParams: map[string]*runner.ParamResult{}})

	if !strings.Contains(buf.String(), "No results to summarize.") {
		t.Errorf("expected empty-report notice, got:\n%s", buf.String())
	}
}
