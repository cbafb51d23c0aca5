package svc

import (
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver used by sqlx.NewSqlConn
	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "earlybot/internal/cache"
	"earlybot/internal/config"
	"earlybot/internal/model"
	enginepersist "earlybot/internal/persistence/engine"
	marketpersist "earlybot/internal/persistence/market"
	enginepkg "earlybot/pkg/engine"
	exchangepkg "earlybot/pkg/exchange"
	llmpkg "earlybot/pkg/llm"
	marketpkg "earlybot/pkg/market"
	"earlybot/pkg/signal"

	// Provider registrations.
	_ "earlybot/pkg/exchange/coinbase"
	exchangesim "earlybot/pkg/exchange/sim"
	_ "earlybot/pkg/market/coinbase"
	marketsim "earlybot/pkg/market/sim"
)

// ServiceContext carries every dependency the binaries share: providers,
// the LLM client, database models, the cache, and the assembled engine.
type ServiceContext struct {
	Config *config.Config

	MarketProviders map[string]marketpkg.Provider
	Market          marketpkg.Provider

	ExchangeProviders map[string]exchangepkg.Provider
	Exchange          exchangepkg.Provider

	LLMClient *llmpkg.Client

	DBConn           sqlx.SqlConn
	PositionsModel   model.PositionsModel
	TradesModel      model.TradesModel
	BotStateModel    model.BotStateModel
	PriceLatestModel model.PriceLatestModel

	Cache gocache.Cache
	TTL   cachekeys.TTLSet

	Persistence  enginepkg.PersistenceService
	MarketMirror *marketpersist.Service

	Engine *enginepkg.Engine
	Poller *marketpkg.Poller
}

// NewServiceContext wires the full dependency graph from configuration.
// Missing optional sections degrade gracefully: without Postgres the engine
// runs on the noop persistence hooks, without an LLM section the confidence
// generator is simply not installed.
func NewServiceContext(c *config.Config) *ServiceContext {
	if c == nil {
		panic("svc: nil config")
	}
	engineCfg := c.Engine.Value
	if engineCfg == nil {
		panic("svc: engine config section is required")
	}

	ctx := &ServiceContext{
		Config: c,
		TTL:    cachekeys.NewTTLSet(c.TTL),
	}

	ctx.initMarket(c, engineCfg)
	ctx.initExchange(c, engineCfg)
	ctx.initLLM(c)
	ctx.initStorage(c)
	ctx.initPersistence(c)
	ctx.initEngine(c, engineCfg)

	return ctx
}

func (s *ServiceContext) initMarket(c *config.Config, engineCfg *enginepkg.Config) {
	if c.Market.Value != nil {
		providers, err := marketpkg.BuildProviders(c.Market.Value)
		if err != nil {
			panic(fmt.Errorf("svc: build market providers: %w", err))
		}
		s.MarketProviders = providers
		name := engineCfg.MarketProvider
		if name == "" {
			name = c.Market.Value.Default
		}
		if p, ok := providers[name]; ok {
			s.Market = p
		}
	}
	if s.Market == nil {
		if !c.IsTestEnv() {
			panic("svc: no market provider configured")
		}
		logx.Info("svc: no market provider configured, using simulator")
		s.Market = marketsim.New(time.Now().UnixNano())
	}
}

func (s *ServiceContext) initExchange(c *config.Config, engineCfg *enginepkg.Config) {
	if c.Exchange.Value != nil {
		if c.IsTestEnv() {
			// Never let a test session reach a live venue.
			for name, pc := range c.Exchange.Value.Providers {
				if !pc.Sandbox {
					logx.Infof("svc: forcing sandbox mode for exchange provider %s (env=%s)", name, c.Env)
					pc.Sandbox = true
				}
			}
		}
		providers, err := c.Exchange.Value.BuildProviders()
		if err != nil {
			panic(fmt.Errorf("svc: build exchange providers: %w", err))
		}
		s.ExchangeProviders = providers
		name := engineCfg.ExchangeProvider
		if name == "" {
			name = c.Exchange.Value.Default
		}
		if p, ok := providers[name]; ok {
			s.Exchange = p
		}
	}
	if s.Exchange == nil {
		if !c.IsTestEnv() {
			panic("svc: no exchange provider configured")
		}
		logx.Info("svc: no exchange provider configured, using paper venue")
		s.Exchange = exchangesim.New()
	}
}

func (s *ServiceContext) initLLM(c *config.Config) {
	if c.LLM.Value == nil {
		return
	}
	client, err := llmpkg.NewClient(c.LLM.Value)
	if err != nil {
		logx.Errorf("svc: llm client unavailable, confidence signal disabled: %v", err)
		return
	}
	s.LLMClient = client
}

func (s *ServiceContext) initStorage(c *config.Config) {
	if c.Postgres.DSN == "" {
		logx.Info("svc: postgres not configured, persistence disabled")
		return
	}
	if c.Redis.Host == "" {
		logx.Error("svc: postgres configured without redis cache, persistence disabled")
		return
	}

	s.DBConn = sqlx.NewSqlConn("pgx", c.Postgres.DSN)
	if db, err := s.DBConn.RawDB(); err == nil {
		db.SetMaxOpenConns(c.Postgres.MaxOpen)
		db.SetMaxIdleConns(c.Postgres.MaxIdle)
	}

	cacheConf := gocache.CacheConf{{RedisConf: c.Redis, Weight: 100}}
	s.Cache = gocache.New(cacheConf, syncx.NewSingleFlight(), gocache.NewStat(cachekeys.Namespace), model.ErrNotFound)

	s.PositionsModel = model.NewPositionsModel(s.DBConn, cacheConf)
	s.TradesModel = model.NewTradesModel(s.DBConn, cacheConf)
	s.BotStateModel = model.NewBotStateModel(s.DBConn, cacheConf)
	s.PriceLatestModel = model.NewPriceLatestModel(s.DBConn, cacheConf)
}

func (s *ServiceContext) initPersistence(c *config.Config) {
	if s.DBConn == nil {
		return
	}
	s.Persistence = enginepersist.NewService(enginepersist.Config{
		SQLConn:        s.DBConn,
		PositionsModel: s.PositionsModel,
		TradesModel:    s.TradesModel,
		BotStateModel:  s.BotStateModel,
		Cache:          s.Cache,
		TTL:            s.TTL,
		SessionID:      c.SessionID,
	})
	providerName := ""
	if c.Engine.Value != nil {
		providerName = c.Engine.Value.MarketProvider
	}
	s.MarketMirror = marketpersist.NewService(marketpersist.Config{
		SQLConn:          s.DBConn,
		PriceLatestModel: s.PriceLatestModel,
		Cache:            s.Cache,
		TTL:              s.TTL,
		Provider:         providerName,
	})
}

func (s *ServiceContext) initEngine(c *config.Config, engineCfg *enginepkg.Config) {
	generators := []signal.Generator{
		signal.NewTechnicalGenerator(signal.DefaultTechnicalConfig()),
		signal.NewSentimentGenerator(signal.NewSentimentTracker(0), true),
	}
	if s.LLMClient != nil {
		generators = append(generators, signal.NewConfidenceGenerator(signal.NewLLMScorer(s.LLMClient, c.LLM.Value.Model)))
	}

	opts := []enginepkg.Option{enginepkg.WithNotifier(logNotifier{})}
	if s.Persistence != nil {
		opts = append(opts, enginepkg.WithPersistence(s.Persistence))
	}

	eng, err := enginepkg.New(engineCfg, s.Market, s.Exchange, generators, opts...)
	if err != nil {
		panic(fmt.Errorf("svc: assemble engine: %w", err))
	}
	s.Engine = eng

	pollerOpts := []marketpkg.PollerOption{}
	if s.MarketMirror != nil {
		pollerOpts = append(pollerOpts, marketpkg.WithObserver(s.MarketMirror.Observer()))
	}
	s.Poller = marketpkg.NewPoller(s.Market, engineCfg.Symbols, engineCfg.TickInterval, pollerOpts...)
}
