package signal

import (
	"context"
	"fmt"
	"math"

	"earlybot/pkg/market"
	"earlybot/pkg/market/indicators"
)

// TechnicalConfig tunes the indicator voting rules.
type TechnicalConfig struct {
	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`

	MACDFast   int `yaml:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow"`
	MACDSignal int `yaml:"macd_signal"`

	BollingerPeriod int     `yaml:"bollinger_period"`
	BollingerStdDev float64 `yaml:"bollinger_std_dev"`

	// Vote weights per indicator and the minimum net vote required before
	// the generator takes a side.
	RSIWeight       float64 `yaml:"rsi_weight"`
	MACDWeight      float64 `yaml:"macd_weight"`
	BollingerWeight float64 `yaml:"bollinger_weight"`
	MinStrength     float64 `yaml:"min_strength"`
}

// DefaultTechnicalConfig mirrors the production tuning: RSI(14) 30/70 voting
// 30, MACD(12,26,9) voting 25, Bollinger(20,2) voting 20, minimum net 20.
func DefaultTechnicalConfig() TechnicalConfig {
	return TechnicalConfig{
		RSIPeriod:       14,
		RSIOversold:     30,
		RSIOverbought:   70,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerStdDev: 2,
		RSIWeight:       30,
		MACDWeight:      25,
		BollingerWeight: 20,
		MinStrength:     20,
	}
}

// TechnicalGenerator votes on RSI bands, MACD histogram direction and
// Bollinger band position.
type TechnicalGenerator struct {
	cfg TechnicalConfig
}

// NewTechnicalGenerator constructs the generator, filling zero fields from
// the defaults.
func NewTechnicalGenerator(cfg TechnicalConfig) *TechnicalGenerator {
	def := DefaultTechnicalConfig()
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = def.RSIPeriod
	}
	if cfg.RSIOversold <= 0 {
		cfg.RSIOversold = def.RSIOversold
	}
	if cfg.RSIOverbought <= 0 {
		cfg.RSIOverbought = def.RSIOverbought
	}
	if cfg.MACDFast <= 0 {
		cfg.MACDFast = def.MACDFast
	}
	if cfg.MACDSlow <= 0 {
		cfg.MACDSlow = def.MACDSlow
	}
	if cfg.MACDSignal <= 0 {
		cfg.MACDSignal = def.MACDSignal
	}
	if cfg.BollingerPeriod <= 0 {
		cfg.BollingerPeriod = def.BollingerPeriod
	}
	if cfg.BollingerStdDev <= 0 {
		cfg.BollingerStdDev = def.BollingerStdDev
	}
	if cfg.RSIWeight <= 0 {
		cfg.RSIWeight = def.RSIWeight
	}
	if cfg.MACDWeight <= 0 {
		cfg.MACDWeight = def.MACDWeight
	}
	if cfg.BollingerWeight <= 0 {
		cfg.BollingerWeight = def.BollingerWeight
	}
	if cfg.MinStrength <= 0 {
		cfg.MinStrength = def.MinStrength
	}
	return &TechnicalGenerator{cfg: cfg}
}

// Source implements Generator.
func (g *TechnicalGenerator) Source() Source { return SourceTechnical }

// minHistory is the candle count needed before every indicator has warmed up.
func (g *TechnicalGenerator) minHistory() int {
	n := g.cfg.MACDSlow + g.cfg.MACDSignal
	if g.cfg.BollingerPeriod > n {
		n = g.cfg.BollingerPeriod
	}
	if g.cfg.RSIPeriod+1 > n {
		n = g.cfg.RSIPeriod + 1
	}
	return n
}

// Evaluate scores the snapshot. Not enough history abstains without error.
func (g *TechnicalGenerator) Evaluate(ctx context.Context, snap *market.Snapshot) (*Signal, error) {
	if !snap.HasHistory(g.minHistory()) {
		return nil, nil
	}
	closes := snap.Closes()

	var buyVotes, sellVotes float64
	var rationale []string

	rsi := indicators.Last(indicators.RSI(closes, g.cfg.RSIPeriod))
	switch {
	case rsi <= g.cfg.RSIOversold:
		buyVotes += g.cfg.RSIWeight
		rationale = append(rationale, fmt.Sprintf("RSI %.1f oversold", rsi))
	case rsi >= g.cfg.RSIOverbought:
		sellVotes += g.cfg.RSIWeight
		rationale = append(rationale, fmt.Sprintf("RSI %.1f overbought", rsi))
	}

	_, _, hist := indicators.MACD(closes, g.cfg.MACDFast, g.cfg.MACDSlow, g.cfg.MACDSignal)
	if h := indicators.Last(hist); !math.IsNaN(h) && h != 0 {
		if h > 0 {
			buyVotes += g.cfg.MACDWeight
			rationale = append(rationale, "MACD above signal")
		} else {
			sellVotes += g.cfg.MACDWeight
			rationale = append(rationale, "MACD below signal")
		}
	}

	upper, _, lower := indicators.Bollinger(closes, g.cfg.BollingerPeriod, g.cfg.BollingerStdDev)
	last := snap.Last
	switch {
	case indicators.Last(upper) <= indicators.Last(lower):
		// Degenerate band (flat tape) carries no information.
	case last <= indicators.Last(lower):
		buyVotes += g.cfg.BollingerWeight
		rationale = append(rationale, "price at lower Bollinger band")
	case last >= indicators.Last(upper):
		sellVotes += g.cfg.BollingerWeight
		rationale = append(rationale, "price at upper Bollinger band")
	}

	total := g.cfg.RSIWeight + g.cfg.MACDWeight + g.cfg.BollingerWeight
	net := buyVotes - sellVotes

	action := ActionHold
	if math.Abs(net) >= g.cfg.MinStrength {
		if net > 0 {
			action = ActionBuy
		} else {
			action = ActionSell
		}
	}
	if len(rationale) == 0 {
		rationale = append(rationale, "no indicator consensus")
	}

	return &Signal{
		Symbol:    snap.Symbol,
		Source:    SourceTechnical,
		Action:    action,
		Strength:  clamp01(math.Abs(net) / total),
		Rationale: joinRationale(rationale),
		Timestamp: snap.Timestamp,
	}, nil
}

func joinRationale(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "; "
		}
		out += p
	}
	return out
}
