package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ BotStateModel = (*customBotStateModel)(nil)

type (
	// BotStateModel is an interface to be customized, add more methods here,
	// and implement the added methods in customBotStateModel.
	BotStateModel interface {
		botStateModel
		Upsert(ctx context.Context, data *BotState) error
	}

	customBotStateModel struct {
		*defaultBotStateModel
	}
)

// NewBotStateModel returns a model for the database table.
func NewBotStateModel(conn sqlx.SqlConn, c cache.CacheConf, opts ...cache.Option) BotStateModel {
	return &customBotStateModel{
		defaultBotStateModel: newBotStateModel(conn, c, opts...),
	}
}

// Upsert writes the session snapshot, replacing the previous row for the
// same session id.
func (m *customBotStateModel) Upsert(ctx context.Context, data *BotState) error {
	key := m.formatPrimary(data.Id)
	_, err := m.ExecCtx(ctx, func(ctx context.Context, conn sqlx.SqlConn) (sql.Result, error) {
		query := fmt.Sprintf(`insert into %s (%s) values ($1, $2, $3, $4, $5, $6)
on conflict (id) do update set
    snapshot = excluded.snapshot,
    emergency_state = excluded.emergency_state,
    emergency_reason = excluded.emergency_reason,
    equity_usd = excluded.equity_usd,
    updated_at_ms = excluded.updated_at_ms`, m.table, botStateRowsExpectAutoSet)
		return conn.ExecCtx(ctx, query, data.Id, data.Snapshot, data.EmergencyState, data.EmergencyReason, data.EquityUsd, data.UpdatedAtMs)
	}, key)
	if err != nil {
		return fmt.Errorf("bot_state.Upsert exec: %w", err)
	}
	return nil
}
