// Package sim runs the single-position trade simulation over a bar series.
//
// The simulator is a single forward pass: a small position accumulator is
// folded over the bars, and each step may set per-bar flags and leg prices in
// the Result. At most one position is open at any bar; re-entry is only
// possible after the prior position fully closes.
package sim

import (
	"fmt"
	"math"

	"backtester-v1/internal/model"
)

// Result holds the simulator's per-bar output, index-aligned with the input
// bars. Price slices are NaN wherever the corresponding event did not happen;
// EntryPrices is additionally defined on every bar of an open position so a
// trade's cost basis is traceable bar by bar.
type Result struct {
	EntryFlags       []bool
	PartialExitFlags []bool
	ExitFlags        []bool

	EntryPrices       []float64
	PartialExitPrices []float64
	ExitPrices        []float64
}

func newResult(n int) *Result {
	r := &Result{
		EntryFlags:        make([]bool, n),
		PartialExitFlags:  make([]bool, n),
		ExitFlags:         make([]bool, n),
		EntryPrices:       make([]float64, n),
		PartialExitPrices: make([]float64, n),
		ExitPrices:        make([]float64, n),
	}
	for i := 0; i < n; i++ {
		r.EntryPrices[i] = math.NaN()
		r.PartialExitPrices[i] = math.NaN()
		r.ExitPrices[i] = math.NaN()
	}
	return r
}

// position is the simulator's accumulator. It exists only while the pass
// runs; a closed position is wiped before the next bar is examined.
type position struct {
	open         bool
	partialDone  bool
	entryPrice   float64
	stopLoss     float64
	partialPrice float64
}

// step processes bar i against the current position state. Evaluation order
// while long is fixed: stop-loss, then full exit, then partial exit, then
// hold. The stop always wins a same-bar tie.
func (p *position) step(i int, bars []model.Bar, sig model.SignalSet, out *Result) {
	bar := bars[i]

	switch {
	case sig.Entry[i] && !p.open:
		p.open = true
		p.partialDone = false
		p.entryPrice = bar.Open
		if i > 0 {
			p.stopLoss = bars[i-1].Low
		} else {
			p.stopLoss = bar.Low
		}
		out.EntryFlags[i] = true
		out.EntryPrices[i] = p.entryPrice

		// Entry-day stop-out: the same bar can breach the prior low, in
		// which case entry and exit share a date. Comparisons against a NaN
		// low are false, so an undefined price never triggers the stop.
		if bar.Low < p.stopLoss {
			out.ExitFlags[i] = true
			out.ExitPrices[i] = p.stopLoss
			p.open = false
		}

	case p.open:
		switch {
		case bar.Low < p.stopLoss:
			out.ExitFlags[i] = true
			out.EntryPrices[i] = p.entryPrice
			out.ExitPrices[i] = p.stopLoss
			if p.partialDone {
				out.PartialExitPrices[i] = p.partialPrice
			}
			p.open = false

		case sig.Exit[i]:
			out.ExitFlags[i] = true
			out.EntryPrices[i] = p.entryPrice
			out.ExitPrices[i] = bar.Close
			if p.partialDone {
				out.PartialExitPrices[i] = p.partialPrice
			}
			p.open = false

		case sig.PartialExit[i] && !p.partialDone:
			// One-time half-size profit take; stop tightens to breakeven.
			p.partialDone = true
			p.partialPrice = bar.Close
			p.stopLoss = p.entryPrice
			out.PartialExitFlags[i] = true
			out.EntryPrices[i] = p.entryPrice
			out.PartialExitPrices[i] = p.partialPrice

		default:
			// Hold: keep the cost basis traceable on every open bar.
			out.EntryPrices[i] = p.entryPrice
			if p.partialDone {
				out.PartialExitPrices[i] = p.partialPrice
			}
		}
	}
}

// Run executes the state machine over bars with the given signals. The only
// input it rejects is a signal set whose sequences do not match the bar
// count; everything else degrades per the signal semantics (NaN prices never
// trigger the stop, warm-up signals are already false).
func Run(bars []model.Bar, sig model.SignalSet) (*Result, error) {
	if err := sig.Validate(len(bars)); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	out := newResult(len(bars))
	var pos position
	for i := range bars {
		pos.step(i, bars, sig, out)
	}
	return out, nil
}
