package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMAWarmup(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	ema := EMA(prices, 3)
	require.Len(t, ema, 5)
	assert.True(t, math.IsNaN(ema[0]))
	assert.True(t, math.IsNaN(ema[1]))
	assert.InDelta(t, 2.0, ema[2], 1e-9) // seed = SMA(1,2,3)
	assert.False(t, math.IsNaN(ema[4]))
}

func TestEMAInsufficientHistory(t *testing.T) {
	ema := EMA([]float64{1, 2}, 5)
	for _, v := range ema {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRSIAllGains(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = float64(100 + i)
	}
	rsi := RSI(prices, 14)
	assert.InDelta(t, 100.0, rsi[len(rsi)-1], 1e-9)
}

func TestRSIFlatSeriesIsNeutral(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100
	}
	rsi := RSI(prices, 14)
	assert.InDelta(t, 50.0, rsi[len(rsi)-1], 1e-9)
}

func TestMACDCrossSign(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.5 // steady uptrend
	}
	macd, signal, hist := MACD(prices, 12, 26, 9)
	require.Len(t, macd, 60)
	last := len(prices) - 1
	assert.Greater(t, macd[last], 0.0)
	assert.False(t, math.IsNaN(signal[last]))
	assert.False(t, math.IsNaN(hist[last]))
}

func TestBollingerBandsBracketPrice(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 50 + math.Sin(float64(i))*2
	}
	upper, middle, lower := Bollinger(prices, 20, 2)
	last := len(prices) - 1
	require.False(t, math.IsNaN(middle[last]))
	assert.Greater(t, upper[last], middle[last])
	assert.Less(t, lower[last], middle[last])
}

func TestBollingerWarmup(t *testing.T) {
	upper, _, _ := Bollinger([]float64{1, 2, 3}, 20, 2)
	for _, v := range upper {
		assert.True(t, math.IsNaN(v))
	}
}

func TestATRPositive(t *testing.T) {
	candles := make([]Candle, 30)
	for i := range candles {
		base := 100 + float64(i)
		candles[i] = Candle{Open: base, High: base + 2, Low: base - 2, Close: base + 1}
	}
	atr := ATR(candles, 14)
	assert.Greater(t, Last(atr), 0.0)
}

func TestLastSkipsNaN(t *testing.T) {
	assert.InDelta(t, 7.0, Last([]float64{1, 7, math.NaN()}), 1e-9)
	assert.True(t, math.IsNaN(Last([]float64{math.NaN()})))
	assert.True(t, math.IsNaN(Last(nil)))
}
