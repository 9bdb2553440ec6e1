package model

import "fmt"

// ParamSet identifies one backtest configuration. Each (ticker, ParamSet)
// pair runs as an independent unit of work.
type ParamSet struct {
	RSIPeriod int `json:"rsi_period"`
	SMAPeriod int `json:"sma_period"`
}

// Key returns a stable identifier for this parameter set, used to key
// aggregate results regardless of task completion order.
func (p ParamSet) Key() string {
	return fmt.Sprintf("RSI%d_SMA%d", p.RSIPeriod, p.SMAPeriod)
}

// Validate rejects periods the indicator engine cannot warm up.
func (p ParamSet) Validate() error {
	if p.RSIPeriod <= 0 {
		return fmt.Errorf("invalid rsi_period %d", p.RSIPeriod)
	}
	if p.SMAPeriod <= 0 {
		return fmt.Errorf("invalid sma_period %d", p.SMAPeriod)
	}
	return nil
}
