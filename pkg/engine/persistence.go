package engine

import (
	"context"
	"time"

	"earlybot/pkg/exchange"
	"earlybot/pkg/journal"
	"earlybot/pkg/portfolio"
)

// TradeRecord captures one executed fill for persistence layers.
type TradeRecord struct {
	Symbol        string
	Side          exchange.Side
	Quantity      float64
	Price         float64
	Fee           float64
	Realized      float64
	OrderID       string
	ClientOrderID string
	Timestamp     time.Time
}

// BotState is everything needed to resume a session after a restart.
type BotState struct {
	Portfolio       *portfolio.Snapshot
	EmergencyState  string
	EmergencyReason string
	UpdatedAt       time.Time
}

// PersistenceService describes the hooks the engine emits to capture state
// changes. Implementations mirror trades and cycles to a database and keep
// the restart snapshot current; a nil or noop implementation keeps the
// engine fully functional in memory.
type PersistenceService interface {
	RecordTrade(ctx context.Context, trade TradeRecord) error
	RecordCycle(ctx context.Context, cycle *journal.CycleRecord) error
	SaveState(ctx context.Context, state BotState) error
	LoadState(ctx context.Context) (*BotState, error)
}

type noopPersistenceService struct{}

func (noopPersistenceService) RecordTrade(ctx context.Context, trade TradeRecord) error { return nil }

func (noopPersistenceService) RecordCycle(ctx context.Context, cycle *journal.CycleRecord) error {
	return nil
}

func (noopPersistenceService) SaveState(ctx context.Context, state BotState) error { return nil }

func (noopPersistenceService) LoadState(ctx context.Context) (*BotState, error) { return nil, nil }

// newNoopPersistenceService guarantees the engine always has a persistence
// hook to call.
func newNoopPersistenceService() PersistenceService {
	return noopPersistenceService{}
}
