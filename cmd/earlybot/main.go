package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"earlybot/internal/cli"
	"earlybot/internal/config"
	"earlybot/internal/svc"
)

const shutdownTimeout = 10 * time.Second

var configFile = flag.String("f", "etc/config.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cfg.MustSetUp()
	defer logx.Close()

	cli.LogConfigSummary(cfg)

	svcCtx := svc.NewServiceContext(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCtx.Poller.Start(ctx)
	if err := svcCtx.Engine.Start(); err != nil {
		logx.Errorf("main: start engine: %v", err)
		os.Exit(1)
	}
	logx.Infof("earlybot started: session=%s symbols=%v mode=%s",
		cfg.SessionID, cfg.Engine.Value.Symbols, cfg.Engine.Value.Mode)

	<-ctx.Done()
	logx.Info("shutdown signal received, stopping")

	done := make(chan struct{})
	go func() {
		svcCtx.Engine.Stop()
		svcCtx.Poller.Stop()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("engine stopped cleanly")
	case <-time.After(shutdownTimeout):
		logx.Error("shutdown timeout exceeded, forcing exit")
	}
}
