package sim

import (
	"math"
	"testing"
	"time"

	"backtester-v1/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// mkBars builds a daily bar series from {open, high, low, close} rows.
func mkBars(rows ...[4]float64) []model.Bar {
	bars := make([]model.Bar, len(rows))
	for i, r := range rows {
		bars[i] = model.Bar{
			Ticker: "TEST",
			Date:   day0.AddDate(0, 0, i),
			Open:   r[0],
			High:   r[1],
			Low:    r[2],
			Close:  r[3],
		}
	}
	return bars
}

// mkSignals builds a signal set with the given indices set true.
func mkSignals(n int, entry, partial, exit []int) model.SignalSet {
	sig := model.NewSignalSet(n)
	for _, i := range entry {
		sig.Entry[i] = true
	}
	for _, i := range partial {
		sig.PartialExit[i] = true
	}
	for _, i := range exit {
		sig.Exit[i] = true
	}
	return sig
}

func assertPrice(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", label, got, want)
	}
}

// ────────────────────────────────────────────────────────────
// State machine
// ────────────────────────────────────────────────────────────

func TestRun_StopLossExit(t *testing.T) {
	// Entry at bar 2 (open=10), stop seeded from bar 1's low (9.5).
	// Bar 3's low (9.0) breaches the stop → exit at 9.5.
	bars := mkBars(
		[4]float64{10, 10.5, 9.8, 10.2},
		[4]float64{10, 10.5, 9.5, 10.0},
		[4]float64{10, 10.6, 9.9, 10.4},
		[4]float64{10, 10.4, 9.0, 9.2},
		[4]float64{9.5, 9.8, 9.3, 9.6},
	)
	sig := mkSignals(5, []int{2}, nil, nil)

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}

	if !res.EntryFlags[2] {
		t.Error("expected entry flag at bar 2")
	}
	if res.ExitFlags[2] {
		t.Error("unexpected same-bar stop-out at bar 2 (low 9.9 > stop 9.5)")
	}
	if !res.ExitFlags[3] {
		t.Fatal("expected exit flag at bar 3")
	}
	assertPrice(t, "entry price", res.EntryPrices[3], 10)
	assertPrice(t, "exit price", res.ExitPrices[3], 9.5)

	trades := ExtractTrades(bars, res)
	if len(trades) != 1 {
		t.Fatalf("expected exactly 1 trade, got %d", len(trades))
	}
	assertPrice(t, "trade return", trades[0].ReturnPct, (9.5-10)/10*100)
	if trades[0].HasPartialExit() {
		t.Error("expected no partial exit on a straight stop-out")
	}
}

func TestRun_EntryDayStopOut(t *testing.T) {
	// Entry bar's own low breaches the prior bar's low → the position opens
	// and closes on the same date, at the stop price.
	bars := mkBars(
		[4]float64{10, 10.5, 9.5, 10.0},
		[4]float64{10.2, 10.4, 9.0, 9.3},
		[4]float64{9.5, 9.8, 9.2, 9.6},
	)
	sig := mkSignals(3, []int{1}, nil, nil)

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}

	if !res.EntryFlags[1] || !res.ExitFlags[1] {
		t.Fatal("expected entry and exit flags on the same bar")
	}
	assertPrice(t, "stop-out exit price", res.ExitPrices[1], 9.5)

	trades := ExtractTrades(bars, res)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if !trades[0].EntryDate.Equal(trades[0].ExitDate) {
		t.Errorf("expected entry date == exit date, got %v / %v",
			trades[0].EntryDate, trades[0].ExitDate)
	}
}

func TestRun_Bar0Entry_StopSeedsFromOwnLow(t *testing.T) {
	// With no prior bar, the stop seeds from the entry bar's own low, so a
	// same-bar stop-out is impossible (low < low never holds).
	bars := mkBars(
		[4]float64{10, 10.5, 9.5, 10.0},
		[4]float64{10.1, 10.3, 9.4, 9.6},
	)
	sig := mkSignals(2, []int{0}, nil, nil)

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitFlags[0] {
		t.Error("bar-0 entry must not stop out on its own bar")
	}
	if !res.ExitFlags[1] {
		t.Fatal("expected stop at bar 1 (low 9.4 < stop 9.5)")
	}
	assertPrice(t, "exit price", res.ExitPrices[1], 9.5)
}

func TestRun_StopPriorityOverExitSignal(t *testing.T) {
	// Bar 2 has both a full-exit signal and a stop breach: the stop wins and
	// the exit price is the stop price, not the close.
	bars := mkBars(
		[4]float64{10, 10.5, 9.5, 10.0},
		[4]float64{10.2, 10.6, 10.0, 10.4},
		[4]float64{10.3, 10.5, 9.0, 10.2},
	)
	sig := mkSignals(3, []int{1}, nil, []int{2})

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}
	if !res.ExitFlags[2] {
		t.Fatal("expected exit at bar 2")
	}
	assertPrice(t, "stop beats exit signal", res.ExitPrices[2], 9.5)
}

func TestRun_StopPriorityOverPartialExit(t *testing.T) {
	bars := mkBars(
		[4]float64{10, 10.5, 9.5, 10.0},
		[4]float64{10.2, 10.6, 10.0, 10.4},
		[4]float64{10.3, 10.5, 9.0, 10.2},
	)
	sig := mkSignals(3, []int{1}, []int{2}, nil)

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}
	if res.PartialExitFlags[2] {
		t.Error("partial exit must not fire on a stop-out bar")
	}
	if !res.ExitFlags[2] {
		t.Fatal("expected stop exit at bar 2")
	}
	assertPrice(t, "exit price", res.ExitPrices[2], 9.5)
}

func TestRun_PartialExit_TightensStopToBreakeven(t *testing.T) {
	// Partial exit at bar 2 moves the stop to the entry price. Bar 3 dips
	// below entry → breakeven stop-out at exactly the entry price.
	bars := mkBars(
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 106, 99.5, 105}, // entry: open 100, stop 99
		[4]float64{106, 112, 105, 110},  // partial at close 110
		[4]float64{109, 110, 99.5, 101}, // low 99.5 < stop 100 → breakeven
	)
	sig := mkSignals(4, []int{1}, []int{2}, nil)

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}

	if !res.PartialExitFlags[2] {
		t.Fatal("expected partial exit at bar 2")
	}
	assertPrice(t, "partial price", res.PartialExitPrices[2], 110)
	if !res.ExitFlags[3] {
		t.Fatal("expected breakeven stop at bar 3")
	}
	assertPrice(t, "breakeven exit", res.ExitPrices[3], 100)
	assertPrice(t, "partial carried to exit bar", res.PartialExitPrices[3], 110)
}

func TestRun_PartialExit_AtMostOncePerTrade(t *testing.T) {
	bars := mkBars(
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 106, 99.5, 105},
		[4]float64{106, 112, 105, 110},
		[4]float64{110, 114, 109, 112},
		[4]float64{112, 116, 111, 115},
	)
	// Partial condition holds on three consecutive bars
	sig := mkSignals(5, []int{1}, []int{2, 3, 4}, nil)

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}

	partials := 0
	for _, f := range res.PartialExitFlags {
		if f {
			partials++
		}
	}
	if partials != 1 {
		t.Errorf("expected exactly 1 partial exit, got %d", partials)
	}
	if !res.PartialExitFlags[2] {
		t.Error("the single partial exit should land on the first qualifying bar")
	}
}

func TestRun_SinglePosition_NoReentryWhileOpen(t *testing.T) {
	bars := mkBars(
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 106, 99.5, 105},
		[4]float64{106, 112, 105, 110},
		[4]float64{110, 114, 109, 112},
	)
	// Entry signal fires again while the position is open
	sig := mkSignals(4, []int{1, 2, 3}, nil, nil)

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}

	entries := 0
	for _, f := range res.EntryFlags {
		if f {
			entries++
		}
	}
	if entries != 1 {
		t.Errorf("expected a single entry while position open, got %d", entries)
	}
}

func TestRun_ReentryAfterClose(t *testing.T) {
	bars := mkBars(
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 106, 99.5, 105}, // entry 1
		[4]float64{106, 112, 105, 110},  // exit 1 at close
		[4]float64{111, 114, 110, 112},  // entry 2
		[4]float64{112, 116, 111, 115},  // exit 2 at close
	)
	sig := mkSignals(5, []int{1, 3}, nil, []int{2, 4})

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}

	trades := ExtractTrades(bars, res)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	// Non-overlapping, ordered by entry date
	if !trades[0].ExitDate.Before(trades[1].EntryDate) && !trades[0].ExitDate.Equal(trades[1].EntryDate) {
		t.Errorf("trades overlap: first exits %v, second enters %v",
			trades[0].ExitDate, trades[1].EntryDate)
	}
}

func TestRun_HoldBarsKeepEntryPriceTraceable(t *testing.T) {
	bars := mkBars(
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 106, 99.5, 105},
		[4]float64{106, 112, 105, 110},
		[4]float64{110, 114, 109, 112},
	)
	sig := mkSignals(4, []int{1}, nil, nil)

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < 4; i++ {
		assertPrice(t, "entry price on open bar", res.EntryPrices[i], 100)
	}
	if !math.IsNaN(res.EntryPrices[0]) {
		t.Error("expected NaN entry price before the position opens")
	}
}

func TestRun_NaNLow_DoesNotTriggerStop(t *testing.T) {
	nan := math.NaN()
	bars := mkBars(
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 106, 99.5, 105},
		[4]float64{106, 112, nan, 110}, // undefined low: stop must not evaluate
		[4]float64{110, 114, 109, 112},
	)
	sig := mkSignals(4, []int{1}, nil, nil)

	res, err := Run(bars, sig)
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitFlags[2] {
		t.Error("NaN low must not trigger the stop")
	}
}

func TestRun_LengthMismatch(t *testing.T) {
	bars := mkBars(
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 106, 99.5, 105},
	)
	sig := model.NewSignalSet(3)

	if _, err := Run(bars, sig); err == nil {
		t.Fatal("expected error for mismatched signal length")
	}
}

func TestRun_EmptySeries(t *testing.T) {
	res, err := Run(nil, model.NewSignalSet(0))
	if err != nil {
		t.Fatal(err)
	}
	if trades := ExtractTrades(nil, res); len(trades) != 0 {
		t.Errorf("expected no trades for empty series, got %d", len(trades))
	}
}
