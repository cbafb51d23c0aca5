package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlc"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ TradesModel = (*customTradesModel)(nil)

type (
	// TradesModel is an interface to be customized, add more methods here,
	// and implement the added methods in customTradesModel.
	TradesModel interface {
		tradesModel
		Recent(ctx context.Context, limit int) ([]Trades, error)
		FindOneByClientOrderId(ctx context.Context, clientOrderID string) (*Trades, error)
	}

	customTradesModel struct {
		*defaultTradesModel
	}
)

// NewTradesModel returns a model for the database table.
func NewTradesModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) TradesModel {
	return &customTradesModel{
		defaultTradesModel: newTradesModel(conn, c, opts...),
	}
}

// Recent returns trades ordered by execution timestamp descending. Limit
// defaults to 200 when non-positive.
func (m *customTradesModel) Recent(ctx context.Context, limit int) ([]Trades, error) {
	if limit <= 0 {
		limit = 200
	}
	query := fmt.Sprintf("select %s from %s order by executed_at_ms desc limit $1", tradesRows, m.table)
	var rows []Trades
	if err := m.QueryRowsNoCacheCtx(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("trades.Recent query: %w", err)
	}
	return rows, nil
}

// FindOneByClientOrderId resolves a mirrored trade by its idempotency key.
func (m *customTradesModel) FindOneByClientOrderId(ctx context.Context, clientOrderID string) (*Trades, error) {
	query := fmt.Sprintf("select %s from %s where client_order_id = $1 limit 1", tradesRows, m.table)
	var resp Trades
	err := m.QueryRowNoCacheCtx(ctx, &resp, query, clientOrderID)
	switch err {
	case nil:
		return &resp, nil
	case sqlc.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("trades.FindOneByClientOrderId query: %w", err)
	}
}
