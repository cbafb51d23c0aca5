package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ PriceLatestModel = (*customPriceLatestModel)(nil)

// PriceLatestId builds the composite row id for a provider/symbol pair.
func PriceLatestId(provider, symbol string) string {
	return provider + ":" + symbol
}

type (
	// PriceLatestModel is an interface to be customized, add more methods here,
	// and implement the added methods in customPriceLatestModel.
	PriceLatestModel interface {
		priceLatestModel
		Upsert(ctx context.Context, data *PriceLatest) error
	}

	customPriceLatestModel struct {
		*defaultPriceLatestModel
	}
)

// NewPriceLatestModel returns a model for the database table.
func NewPriceLatestModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) PriceLatestModel {
	return &customPriceLatestModel{
		defaultPriceLatestModel: newPriceLatestModel(conn, c, opts...),
	}
}

// Upsert replaces the latest price row for the provider/symbol pair.
func (m *customPriceLatestModel) Upsert(ctx context.Context, data *PriceLatest) error {
	if data.Id == "" {
		data.Id = PriceLatestId(data.Provider, data.Symbol)
	}
	key := m.formatPrimary(data.Id)
	_, err := m.ExecCtx(ctx, func(ctx context.Context, conn sqlx.SqlConn) (sql.Result, error) {
		query := fmt.Sprintf(`insert into %s (%s) values ($1, $2, $3, $4, $5, $6, $7)
on conflict (id) do update set
    price = excluded.price,
    change_24h = excluded.change_24h,
    volume_24h = excluded.volume_24h,
    ts_ms = excluded.ts_ms`, m.table, priceLatestRowsExpectAutoSet)
		return conn.ExecCtx(ctx, query, data.Id, data.Provider, data.Symbol, data.Price, data.Change24h, data.Volume24h, data.TsMs)
	}, key)
	if err != nil {
		return fmt.Errorf("price_latest.Upsert exec: %w", err)
	}
	return nil
}
