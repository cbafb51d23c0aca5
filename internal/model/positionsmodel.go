package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlc"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ PositionsModel = (*customPositionsModel)(nil)

// Position status values.
const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)

type (
	// PositionsModel is an interface to be customized, add more methods here,
	// and implement the added methods in customPositionsModel.
	PositionsModel interface {
		positionsModel
		FindOpenBySymbol(ctx context.Context, symbol string) (*Positions, error)
		OpenPositions(ctx context.Context) ([]Positions, error)
		MarkClosed(ctx context.Context, id string, closePrice, closedPnl float64, closedAtMs int64) error
	}

	customPositionsModel struct {
		*defaultPositionsModel
	}
)

// NewPositionsModel returns a model for the database table.
func NewPositionsModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) PositionsModel {
	return &customPositionsModel{
		defaultPositionsModel: newPositionsModel(conn, c, opts...),
	}
}

// FindOpenBySymbol returns the open position for the symbol, if any.
func (m *customPositionsModel) FindOpenBySymbol(ctx context.Context, symbol string) (*Positions, error) {
	query := fmt.Sprintf("select %s from %s where status = $1 AND symbol = $2 limit 1", positionsRows, m.table)
	var resp Positions
	err := m.QueryRowNoCacheCtx(ctx, &resp, query, PositionStatusOpen, symbol)
	switch err {
	case nil:
		return &resp, nil
	case sqlc.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("positions.FindOpenBySymbol query: %w", err)
	}
}

// OpenPositions returns every open position ordered by symbol.
func (m *customPositionsModel) OpenPositions(ctx context.Context) ([]Positions, error) {
	query := fmt.Sprintf("select %s from %s where status = $1 order by symbol", positionsRows, m.table)
	var rows []Positions
	if err := m.QueryRowsNoCacheCtx(ctx, &rows, query, PositionStatusOpen); err != nil {
		return nil, fmt.Errorf("positions.OpenPositions query: %w", err)
	}
	return rows, nil
}

// MarkClosed transitions a position to closed with its realized outcome.
func (m *customPositionsModel) MarkClosed(ctx context.Context, id string, closePrice, closedPnl float64, closedAtMs int64) error {
	key := m.formatPrimary(id)
	_, err := m.ExecCtx(ctx, func(ctx context.Context, conn sqlx.SqlConn) (sql.Result, error) {
		query := fmt.Sprintf("update %s set status = $2, close_price = $3, closed_pnl = $4, closed_at_ms = $5 where id = $1", m.table)
		return conn.ExecCtx(ctx, query, id, PositionStatusClosed, closePrice, closedPnl, closedAtMs)
	}, key)
	if err != nil {
		return fmt.Errorf("positions.MarkClosed exec: %w", err)
	}
	return nil
}
