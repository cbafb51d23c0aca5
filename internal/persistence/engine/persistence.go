package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "earlybot/internal/cache"
	"earlybot/internal/model"
	enginepkg "earlybot/pkg/engine"
	"earlybot/pkg/exchange"
	"earlybot/pkg/journal"
	"earlybot/pkg/portfolio"
)

var _ enginepkg.PersistenceService = (*Service)(nil)

// Service mirrors engine state changes to Postgres and keeps the Redis read
// paths warm. All hooks are best-effort from the engine's perspective; the
// engine logs failures and keeps trading.
type Service struct {
	sqlConn        sqlx.SqlConn
	positionsModel model.PositionsModel
	tradesModel    model.TradesModel
	botStateModel  model.BotStateModel
	cache          gocache.Cache
	ttl            cachekeys.TTLSet
	sessionID      string
}

// Config enumerates dependencies needed to persist engine events.
type Config struct {
	SQLConn        sqlx.SqlConn
	PositionsModel model.PositionsModel
	TradesModel    model.TradesModel
	BotStateModel  model.BotStateModel
	Cache          gocache.Cache
	TTL            cachekeys.TTLSet
	SessionID      string
}

// NewService returns a concrete persistence service when mandatory
// dependencies are present, nil otherwise (callers fall back to the noop).
func NewService(cfg Config) enginepkg.PersistenceService {
	if cfg.SQLConn == nil {
		return nil
	}
	sessionID := strings.TrimSpace(cfg.SessionID)
	if sessionID == "" {
		sessionID = "default"
	}
	return &Service{
		sqlConn:        cfg.SQLConn,
		positionsModel: cfg.PositionsModel,
		tradesModel:    cfg.TradesModel,
		botStateModel:  cfg.BotStateModel,
		cache:          cfg.Cache,
		ttl:            cfg.TTL,
		sessionID:      sessionID,
	}
}

// RecordTrade mirrors one fill to the trades table and advances the
// position lifecycle rows. Replayed fills (same client order id) are
// detected through the unique constraint and dropped silently.
func (s *Service) RecordTrade(ctx context.Context, trade enginepkg.TradeRecord) error {
	if s == nil || s.tradesModel == nil {
		return nil
	}
	symbol := strings.ToUpper(strings.TrimSpace(trade.Symbol))
	if symbol == "" || trade.ClientOrderID == "" {
		return nil
	}

	row := &model.Trades{
		Id:            trade.ClientOrderID,
		Symbol:        symbol,
		Side:          string(trade.Side),
		Quantity:      trade.Quantity,
		Price:         trade.Price,
		Fee:           trade.Fee,
		RealizedPnl:   trade.Realized,
		OrderId:       trade.OrderID,
		ClientOrderId: trade.ClientOrderID,
		ExecutedAtMs:  trade.Timestamp.UnixMilli(),
	}
	if _, err := s.tradesModel.Insert(ctx, row); err != nil {
		if isUniqueViolation(err) {
			logx.WithContext(ctx).Infof("persistence: trade %s already mirrored", trade.ClientOrderID)
			return nil
		}
		return fmt.Errorf("persist trade %s: %w", trade.ClientOrderID, err)
	}

	if err := s.applyPositionLifecycle(ctx, symbol, trade); err != nil {
		return err
	}
	s.invalidate(ctx, cachekeys.TradesRecentKey(), cachekeys.PositionsOpenKey(), cachekeys.PositionKey(symbol))
	return nil
}

// applyPositionLifecycle keeps the positions table in step with fills: buys
// open or grow the open row, sells close it.
func (s *Service) applyPositionLifecycle(ctx context.Context, symbol string, trade enginepkg.TradeRecord) error {
	if s.positionsModel == nil {
		return nil
	}
	existing, err := s.positionsModel.FindOpenBySymbol(ctx, symbol)
	switch {
	case err == nil && trade.Side == exchange.SideBuy:
		total := existing.Quantity + trade.Quantity
		if total > 0 {
			existing.EntryPrice = (existing.EntryPrice*existing.Quantity + trade.Price*trade.Quantity) / total
		}
		existing.Quantity = total
		existing.Fee += trade.Fee
		return s.positionsModel.Update(ctx, existing)
	case err == nil && trade.Side == exchange.SideSell:
		return s.positionsModel.MarkClosed(ctx, existing.Id, trade.Price, trade.Realized, trade.Timestamp.UnixMilli())
	case errors.Is(err, model.ErrNotFound) && trade.Side == exchange.SideBuy:
		_, insErr := s.positionsModel.Insert(ctx, &model.Positions{
			Id:         trade.ClientOrderID,
			Symbol:     symbol,
			Side:       string(trade.Side),
			Status:     model.PositionStatusOpen,
			Quantity:   trade.Quantity,
			EntryPrice: trade.Price,
			Fee:        trade.Fee,
			OpenedAtMs: trade.Timestamp.UnixMilli(),
		})
		if insErr != nil && !isUniqueViolation(insErr) {
			return fmt.Errorf("persist position open %s: %w", symbol, insErr)
		}
		return nil
	case errors.Is(err, model.ErrNotFound):
		// Sell with no mirrored position; the trade row alone is the record.
		logx.WithContext(ctx).Errorf("persistence: sell %s without open position row", symbol)
		return nil
	default:
		return fmt.Errorf("persist position lookup %s: %w", symbol, err)
	}
}

// RecordCycle caches the latest decision summary per symbol for status read
// paths. The durable audit trail is the journal.
func (s *Service) RecordCycle(ctx context.Context, cycle *journal.CycleRecord) error {
	if s == nil || s.cache == nil || cycle == nil {
		return nil
	}
	payload, err := json.Marshal(cycle)
	if err != nil {
		return fmt.Errorf("encode cycle %s: %w", cycle.Symbol, err)
	}
	key := cachekeys.FormatCacheKey("decision", "last", cycle.Symbol)
	if err := s.cache.SetWithExpireCtx(ctx, key, string(payload), cachekeys.BotStateTTL(s.ttl)); err != nil {
		logx.WithContext(ctx).Errorf("persistence: cache cycle %s: %v", cycle.Symbol, err)
	}
	return nil
}

// SaveState upserts the restart snapshot (msgpack-encoded portfolio plus
// emergency condition) and refreshes the cached emergency flag.
func (s *Service) SaveState(ctx context.Context, state enginepkg.BotState) error {
	if s == nil || s.botStateModel == nil {
		return nil
	}
	var blob []byte
	var equity float64
	if state.Portfolio != nil {
		var err error
		if blob, err = msgpack.Marshal(state.Portfolio); err != nil {
			return fmt.Errorf("encode portfolio snapshot: %w", err)
		}
		equity = state.Portfolio.Cash
		for sym, pos := range state.Portfolio.Positions {
			mark := state.Portfolio.Marks[sym]
			if mark <= 0 {
				mark = pos.AvgEntryPrice
			}
			equity += pos.Quantity * mark
		}
	}
	row := &model.BotState{
		Id:              s.sessionID,
		Snapshot:        blob,
		EmergencyState:  state.EmergencyState,
		EmergencyReason: state.EmergencyReason,
		EquityUsd:       equity,
		UpdatedAtMs:     stateUpdatedAtMs(state),
	}
	if err := s.botStateModel.Upsert(ctx, row); err != nil {
		return err
	}
	if s.cache != nil {
		key := cachekeys.EmergencyKey(s.sessionID)
		if err := s.cache.SetWithExpireCtx(ctx, key, state.EmergencyState, cachekeys.BotStateTTL(s.ttl)); err != nil {
			logx.WithContext(ctx).Errorf("persistence: cache emergency state: %v", err)
		}
	}
	return nil
}

// LoadState restores the restart snapshot; (nil, nil) when no row exists.
func (s *Service) LoadState(ctx context.Context) (*enginepkg.BotState, error) {
	if s == nil || s.botStateModel == nil {
		return nil, nil
	}
	row, err := s.botStateModel.FindOne(ctx, s.sessionID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bot state %s: %w", s.sessionID, err)
	}

	state := &enginepkg.BotState{
		EmergencyState:  row.EmergencyState,
		EmergencyReason: row.EmergencyReason,
		UpdatedAt:       time.UnixMilli(row.UpdatedAtMs).UTC(),
	}
	if len(row.Snapshot) > 0 {
		var snap portfolio.Snapshot
		if err := msgpack.Unmarshal(row.Snapshot, &snap); err != nil {
			return nil, fmt.Errorf("decode portfolio snapshot: %w", err)
		}
		state.Portfolio = &snap
	}
	return state, nil
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DelCtx(ctx, keys...); err != nil {
		logx.WithContext(ctx).Errorf("persistence: invalidate cache: %v", err)
	}
}

func stateUpdatedAtMs(state enginepkg.BotState) int64 {
	if state.UpdatedAt.IsZero() {
		return time.Now().UnixMilli()
	}
	return state.UpdatedAt.UnixMilli()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// OpenPositionRows exposes the mirrored open positions for read paths.
func (s *Service) OpenPositionRows(ctx context.Context) ([]model.Positions, error) {
	if s == nil || s.positionsModel == nil {
		return nil, errors.New("persistence: positions model not configured")
	}
	return s.positionsModel.OpenPositions(ctx)
}
