package market

import (
	"time"

	"earlybot/pkg/market/indicators"
)

// SnapshotWindow is the fixed length of the rolling candle window carried
// by a Snapshot. Providers truncate older candles beyond this bound.
const SnapshotWindow = 100

// Snapshot captures a normalized market view for a trading symbol at one
// polling tick. It is immutable once produced; consumers only read it.
type Snapshot struct {
	Symbol    string              // Pair as traded, e.g. "BTC-USDC"
	Last      float64             // Latest trade/mid price
	Change24h float64             // 24h percentage change
	Volume24h float64             // 24h traded volume in quote units
	Candles   []indicators.Candle // Rolling OHLCV window, oldest first
	Timestamp time.Time
}

// Closes returns the close-price series of the candle window, oldest first.
func (s *Snapshot) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// HasHistory reports whether the snapshot carries at least n candles.
func (s *Snapshot) HasHistory(n int) bool {
	return s != nil && len(s.Candles) >= n
}
