package execution

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"earlybot/pkg/exchange"
)

func TestBuildClientOrderIDFormat(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 30, 0, time.UTC)
	got := BuildClientOrderID("BTC-USDC", exchange.SideBuy, now)
	assert.True(t, strings.HasPrefix(got, "0x"))
	assert.Len(t, got, 34)
}

func TestBuildClientOrderIDDeterministicWithinMinute(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 10, 0, time.UTC)
	a := BuildClientOrderID("BTC-USDC", exchange.SideBuy, base)
	b := BuildClientOrderID("btc-usdc", exchange.SideBuy, base.Add(40*time.Second))
	assert.Equal(t, a, b, "same identity in the same minute bucket")

	c := BuildClientOrderID("BTC-USDC", exchange.SideBuy, base.Add(time.Minute))
	assert.NotEqual(t, a, c, "minute rollover changes the id")
}

func TestBuildClientOrderIDVariesByIdentity(t *testing.T) {
	now := time.Now()
	buy := BuildClientOrderID("BTC-USDC", exchange.SideBuy, now)
	sell := BuildClientOrderID("BTC-USDC", exchange.SideSell, now)
	other := BuildClientOrderID("ETH-USDC", exchange.SideBuy, now)
	assert.NotEqual(t, buy, sell)
	assert.NotEqual(t, buy, other)
}
