package risk

import (
	"fmt"
	"strings"
)

// Limits bound what the risk manager will approve. Percentages are
// fractions (0.02 = 2%). Limits are immutable for a session; changing them
// goes through the engine control surface.
type Limits struct {
	MaxPositionPct      float64 `yaml:"max_position_pct"`       // Of equity, per position.
	MaxTotalExposurePct float64 `yaml:"max_total_exposure_pct"` // Of equity, across positions.
	MaxDailyTrades      int     `yaml:"max_daily_trades"`
	MaxDailyLossPct     float64 `yaml:"max_daily_loss_pct"`
	StopLossPct         float64 `yaml:"stop_loss_pct"`
	TakeProfitPct       float64 `yaml:"take_profit_pct"`
	MinConfidence       float64 `yaml:"min_confidence"`
	MinTradeNotional    float64 `yaml:"min_trade_notional"`
	RejectBurst         int     `yaml:"reject_burst"` // Consecutive rejections before the emergency trips.
}

// DefaultLimits mirrors the production tuning.
func DefaultLimits() Limits {
	return Limits{
		MaxPositionPct:      0.02,
		MaxTotalExposurePct: 0.10,
		MaxDailyTrades:      10,
		MaxDailyLossPct:     0.05,
		StopLossPct:         0.02,
		TakeProfitPct:       0.04,
		MinConfidence:       0.65,
		MinTradeNotional:    10,
		RejectBurst:         5,
	}
}

// Preset returns the named trading-mode limits. Recognized modes:
// conservative, normal, aggressive, scalping.
func Preset(mode string) (Limits, error) {
	limits := DefaultLimits()
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "normal":
		return limits, nil
	case "conservative":
		limits.MaxPositionPct = 0.01
		limits.MaxTotalExposurePct = 0.05
		limits.MaxDailyTrades = 5
		limits.MaxDailyLossPct = 0.03
		limits.StopLossPct = 0.015
		limits.TakeProfitPct = 0.03
		limits.MinConfidence = 0.75
		return limits, nil
	case "aggressive":
		limits.MaxPositionPct = 0.04
		limits.MaxTotalExposurePct = 0.20
		limits.MaxDailyTrades = 20
		limits.MaxDailyLossPct = 0.08
		limits.StopLossPct = 0.03
		limits.TakeProfitPct = 0.06
		limits.MinConfidence = 0.55
		return limits, nil
	case "scalping":
		limits.MaxPositionPct = 0.015
		limits.MaxTotalExposurePct = 0.10
		limits.MaxDailyTrades = 50
		limits.MaxDailyLossPct = 0.04
		limits.StopLossPct = 0.008
		limits.TakeProfitPct = 0.012
		limits.MinConfidence = 0.60
		return limits, nil
	}
	return Limits{}, fmt.Errorf("risk: unknown trading mode %q", mode)
}

// Validate checks limit sanity.
func (l Limits) Validate() error {
	if l.MaxPositionPct <= 0 || l.MaxPositionPct > 1 {
		return fmt.Errorf("risk limits: max_position_pct must be in (0,1]")
	}
	if l.MaxTotalExposurePct <= 0 || l.MaxTotalExposurePct > 1 {
		return fmt.Errorf("risk limits: max_total_exposure_pct must be in (0,1]")
	}
	if l.MaxTotalExposurePct < l.MaxPositionPct {
		return fmt.Errorf("risk limits: total exposure cap below per-position cap")
	}
	if l.MaxDailyTrades <= 0 {
		return fmt.Errorf("risk limits: max_daily_trades must be positive")
	}
	if l.MaxDailyLossPct <= 0 || l.MaxDailyLossPct > 1 {
		return fmt.Errorf("risk limits: max_daily_loss_pct must be in (0,1]")
	}
	if l.StopLossPct <= 0 || l.TakeProfitPct <= 0 {
		return fmt.Errorf("risk limits: stop and take percentages must be positive")
	}
	if l.MinConfidence < 0 || l.MinConfidence > 1 {
		return fmt.Errorf("risk limits: min_confidence must be in [0,1]")
	}
	if l.MinTradeNotional < 0 {
		return fmt.Errorf("risk limits: min_trade_notional cannot be negative")
	}
	if l.RejectBurst <= 0 {
		return fmt.Errorf("risk limits: reject_burst must be positive")
	}
	return nil
}
