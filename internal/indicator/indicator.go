// Package indicator provides technical indicator calculations over daily
// price series.
//
// Indicators come in two shapes: incremental types (SMA, RSI) that consume
// one close at a time in O(1), and series adapters that map a whole close
// slice to an index-aligned value slice with NaN during the warm-up window.
// The backtest pipeline uses the series form; the incremental types are the
// underlying machinery and are usable on their own.
package indicator

// Indicator is the interface for all technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA", "RSI").
	Name() string

	// Update feeds a new closing price and recalculates.
	Update(close float64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}
