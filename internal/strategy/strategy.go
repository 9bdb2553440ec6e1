// Package strategy defines the signal-generation contract for backtests.
//
// A Strategy maps a bar series plus a parameter set to three aligned boolean
// sequences (entry, partial exit, exit). Strategies are pure: they own no
// state between calls, so one instance may serve concurrent backtest tasks.
// Concrete rule sets register themselves under a name and are selected by
// that name at run time.
package strategy

import (
	"fmt"
	"sort"

	"backtester-v1/internal/model"
)

// Strategy is the capability every rule set must implement.
type Strategy interface {
	// Name returns the unique name of the strategy (e.g., "RSI_SMA").
	Name() string

	// Signals produces the per-bar decision sequences for the given bars.
	// The returned set is index-aligned with bars; signals whose inputs fall
	// inside an indicator warm-up window are false.
	Signals(bars []model.Bar, params model.ParamSet) (model.SignalSet, error)
}

var registry = map[string]Strategy{}

// Register adds a strategy under its name. Called from init() by each rule set.
func Register(s Strategy) {
	registry[s.Name()] = s
}

// New returns the strategy registered under name.
func New(name string) (Strategy, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (registered: %v)", name, Names())
	}
	return s, nil
}

// Names lists all registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
