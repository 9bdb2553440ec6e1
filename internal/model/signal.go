package model

import "fmt"

// SignalSet holds the three per-bar decision sequences produced by a strategy.
// All three slices must be index-aligned with the bar series they were
// generated from: signal i refers to bar i, nothing else.
type SignalSet struct {
	Entry       []bool
	PartialExit []bool
	Exit        []bool
}

// Validate checks that every sequence matches the bar count.
func (s SignalSet) Validate(bars int) error {
	if len(s.Entry) != bars || len(s.PartialExit) != bars || len(s.Exit) != bars {
		return fmt.Errorf("signal length mismatch: bars=%d entry=%d partial_exit=%d exit=%d",
			bars, len(s.Entry), len(s.PartialExit), len(s.Exit))
	}
	return nil
}

// NewSignalSet allocates an all-false signal set for n bars.
func NewSignalSet(n int) SignalSet {
	return SignalSet{
		Entry:       make([]bool, n),
		PartialExit: make([]bool, n),
		Exit:        make([]bool, n),
	}
}
