package marketpersist

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "earlybot/internal/cache"
	"earlybot/internal/model"
	"earlybot/pkg/market"
)

// Service mirrors polled market snapshots into the price_latest table and
// the Redis price keys. It hangs off the poller's observer hook; failures
// are logged and never propagate into the polling loop.
type Service struct {
	sqlConn          sqlx.SqlConn
	priceLatestModel model.PriceLatestModel
	cache            gocache.Cache
	ttl              cachekeys.TTLSet
	provider         string
}

// Config enumerates dependencies required to persist market data.
type Config struct {
	SQLConn          sqlx.SqlConn
	PriceLatestModel model.PriceLatestModel
	Cache            gocache.Cache
	TTL              cachekeys.TTLSet
	Provider         string
}

// NewService wires a market persistence service. Returns nil when
// dependencies are missing so callers can skip the observer hook entirely.
func NewService(cfg Config) *Service {
	if cfg.SQLConn == nil || cfg.PriceLatestModel == nil {
		return nil
	}
	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" {
		provider = "default"
	}
	return &Service{
		sqlConn:          cfg.SQLConn,
		priceLatestModel: cfg.PriceLatestModel,
		cache:            cfg.Cache,
		ttl:              cfg.TTL,
		provider:         provider,
	}
}

// Observer adapts the service to the poller's observer hook.
func (s *Service) Observer() func(*market.Snapshot) {
	if s == nil {
		return nil
	}
	return func(snap *market.Snapshot) {
		s.RecordSnapshot(context.Background(), snap)
	}
}

// RecordSnapshot upserts the latest price row and refreshes the price cache.
func (s *Service) RecordSnapshot(ctx context.Context, snap *market.Snapshot) {
	if s == nil || snap == nil || snap.Symbol == "" {
		return
	}
	row := &model.PriceLatest{
		Id:        model.PriceLatestId(s.provider, snap.Symbol),
		Provider:  s.provider,
		Symbol:    snap.Symbol,
		Price:     snap.Last,
		Change24h: snap.Change24h,
		Volume24h: snap.Volume24h,
		TsMs:      snap.Timestamp.UnixMilli(),
	}
	if err := s.priceLatestModel.Upsert(ctx, row); err != nil {
		logx.WithContext(ctx).Errorf("marketpersist: upsert %s: %v", snap.Symbol, err)
		return
	}
	if s.cache != nil {
		key := cachekeys.PriceLatestByProviderKey(s.provider, snap.Symbol)
		if err := s.cache.SetWithExpireCtx(ctx, key, snap.Last, cachekeys.PriceTTL(s.ttl)); err != nil {
			logx.WithContext(ctx).Errorf("marketpersist: cache %s: %v", snap.Symbol, err)
		}
	}
}
