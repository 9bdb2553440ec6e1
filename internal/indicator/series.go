package indicator

import "math"

// SMASeries maps a close series to its SMA values. Index i holds the SMA of
// closes[i-period+1..i]; indices inside the warm-up window are NaN so that
// any comparison against them evaluates false.
func SMASeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	sma := NewSMA(period)
	for i, c := range closes {
		sma.Update(c)
		if sma.Ready() {
			out[i] = sma.Value()
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// RSISeries maps a close series to its RSI values. The first period indices
// are NaN; the first defined value (at index period) is seeded from the
// simple average of the first period deltas, Wilder-smoothed afterwards.
func RSISeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	rsi := NewRSI(period)
	for i, c := range closes {
		rsi.Update(c)
		if rsi.Ready() {
			out[i] = rsi.Value()
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
