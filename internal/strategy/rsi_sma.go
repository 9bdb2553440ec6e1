package strategy

import (
	"fmt"

	"backtester-v1/internal/indicator"
	"backtester-v1/internal/model"
)

func init() {
	Register(RSISMA{})
}

// RSISMA implements the mean-reversion rule set this system was built around.
//
// Entry at bar i (all on the prior bar except the gap check):
//   - RSI[i-1] < 30 (oversold)
//   - Close[i-1] > SMA[i-1] (long-term uptrend filter)
//   - Open[i] > Close[i-1] (gap up at today's open)
//
// Partial exit when RSI[i] > 40; full exit when RSI[i] > 60. NaN indicator
// values during warm-up make every comparison false, so no signal fires
// before both indicators are ready.
//
// NOTE: the gap-up comparison is not implied by the 30/40/60 RSI thresholds
// the rule set is documented with; it is kept because the production rule set
// trades with it. Review before changing.
type RSISMA struct{}

func (RSISMA) Name() string { return "RSI_SMA" }

func (RSISMA) Signals(bars []model.Bar, params model.ParamSet) (model.SignalSet, error) {
	if err := params.Validate(); err != nil {
		return model.SignalSet{}, fmt.Errorf("rsi_sma params: %w", err)
	}

	n := len(bars)
	closes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
	}

	rsi := indicator.RSISeries(closes, params.RSIPeriod)
	sma := indicator.SMASeries(closes, params.SMAPeriod)

	sig := model.NewSignalSet(n)
	for i := 0; i < n; i++ {
		// Comparisons against NaN are false, which is exactly the warm-up
		// behavior we want.
		if i > 0 {
			sig.Entry[i] = rsi[i-1] < 30 &&
				bars[i-1].Close > sma[i-1] &&
				bars[i].Open > bars[i-1].Close
		}
		sig.PartialExit[i] = rsi[i] > 40
		sig.Exit[i] = rsi[i] > 60
	}
	return sig, nil
}
