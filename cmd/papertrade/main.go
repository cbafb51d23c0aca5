package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	enginepkg "earlybot/pkg/engine"
	exchangesim "earlybot/pkg/exchange/sim"
	marketsim "earlybot/pkg/market/sim"
	"earlybot/pkg/signal"
)

var (
	symbolsFlag  = flag.String("symbols", "BTC-USDC,ETH-USDC", "comma separated trading pairs")
	capitalFlag  = flag.Float64("capital", 10_000, "starting paper capital in USD")
	modeFlag     = flag.String("mode", "aggressive", "trading mode: conservative|normal|aggressive|scalping")
	tickFlag     = flag.Duration("tick", 2*time.Second, "decision cycle interval")
	durationFlag = flag.Duration("duration", time.Minute, "session length; 0 runs until interrupted")
)

// papertrade runs a self-contained simulated trading session: synthetic
// market data, paper order fills, no database. Useful for smoke-testing the
// decision loop end to end.
func main() {
	flag.Parse()
	logx.MustSetup(logx.LogConf{Mode: "console", Encoding: "plain"})
	defer logx.Close()

	symbols := splitSymbols(*symbolsFlag)
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "papertrade: no symbols given")
		os.Exit(2)
	}

	journalDir, err := os.MkdirTemp("", "papertrade-journal-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "papertrade: %v\n", err)
		os.Exit(1)
	}

	cfg := &enginepkg.Config{
		Symbols:        symbols,
		Mode:           *modeFlag,
		InitialCapital: *capitalFlag,
		JournalDir:     journalDir,
		TickInterval:   *tickFlag,
		CycleTimeout:   *tickFlag,
	}

	generators := []signal.Generator{
		signal.NewTechnicalGenerator(signal.DefaultTechnicalConfig()),
		signal.NewSentimentGenerator(signal.NewSentimentTracker(0), true),
	}

	eng, err := enginepkg.New(cfg, marketsim.New(time.Now().UnixNano()), exchangesim.New(), generators)
	if err != nil {
		fmt.Fprintf(os.Stderr, "papertrade: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "papertrade: %v\n", err)
		os.Exit(1)
	}
	logx.Infof("paper session started: symbols=%v mode=%s capital=%.2f tick=%s",
		symbols, cfg.Mode, cfg.InitialCapital, cfg.TickInterval)

	if *durationFlag > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(*durationFlag):
		}
	} else {
		<-ctx.Done()
	}
	eng.Stop()

	printSummary(eng, journalDir)
}

func splitSymbols(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}

func printSummary(eng *enginepkg.Engine, journalDir string) {
	state := eng.State()
	fmt.Println("--- paper session summary ---")
	fmt.Printf("cash:            %.2f\n", state.Cash())
	fmt.Printf("equity:          %.2f\n", state.Equity())
	fmt.Printf("daily trades:    %d\n", state.DailyTrades())
	fmt.Printf("realized pnl:    %.2f\n", state.DailyRealizedPnL())
	for _, pos := range state.Positions() {
		fmt.Printf("open position:   %s qty=%.6f entry=%.2f\n", pos.Symbol, pos.Quantity, pos.AvgEntryPrice)
	}
	fmt.Printf("journal:         %s\n", journalDir)
}
