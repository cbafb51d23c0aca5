package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"earlybot/pkg/exchange"
	"earlybot/pkg/execution"
	"earlybot/pkg/fusion"
	"earlybot/pkg/journal"
	"earlybot/pkg/market"
	"earlybot/pkg/portfolio"
	"earlybot/pkg/risk"
	"earlybot/pkg/signal"
)

// Engine runs the trading loop: one shared ticker iterating the configured
// symbols, per-symbol cycles isolated from each other, execution serialized
// through the portfolio. The control surface is safe to call from any
// goroutine and every operation on it is idempotent.
type Engine struct {
	cfg        *Config
	market     market.Provider
	generators []signal.Generator

	fuser      *fusion.Fuser
	riskMgr    *risk.Manager
	supervisor *risk.Supervisor
	state      *portfolio.State
	controller *execution.Controller
	exits      *execution.ExitWatcher
	journal    *journal.Writer

	notifier    Notifier
	persistence PersistenceService
	now         func() time.Time

	// execMu serializes risk evaluation together with order submission.
	// Concurrent symbol cycles must not both size against the same exposure
	// headroom; without this, two approvals can pass the cap check before
	// either fill lands.
	execMu sync.Mutex

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	tickCancel context.CancelFunc
	wg         sync.WaitGroup
}

// Option customises engine construction.
type Option func(*Engine)

// WithNotifier injects the event sink.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithPersistence injects the persistence hooks.
func WithPersistence(p PersistenceService) Option {
	return func(e *Engine) {
		if p != nil {
			e.persistence = p
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New wires an engine from configuration and providers.
func New(cfg *Config, mkt market.Provider, venue exchange.Provider, generators []signal.Generator, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mkt == nil {
		return nil, errors.New("engine: market provider is required")
	}
	if venue == nil {
		return nil, errors.New("engine: exchange provider is required")
	}
	if len(generators) == 0 {
		return nil, errors.New("engine: at least one signal generator is required")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = 45 * time.Second
	}

	limits, err := cfg.Limits()
	if err != nil {
		return nil, err
	}
	fuser, err := fusion.New(cfg.Weights(), limits.MinConfidence)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:         cfg,
		market:      mkt,
		generators:  generators,
		fuser:       fuser,
		state:       portfolio.NewState(cfg.InitialCapital),
		journal:     journal.NewWriter(cfg.JournalDir),
		notifier:    NopNotifier(),
		persistence: newNoopPersistenceService(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.supervisor = risk.NewSupervisor(limits.RejectBurst, func(reason string) {
		e.notify(context.Background(), EventEmergencyTriggered, "", reason, nil)
	})
	e.riskMgr, err = risk.NewManager(limits, e.supervisor)
	if err != nil {
		return nil, err
	}
	e.controller = execution.NewController(venue, e.state,
		execution.WithClock(e.now),
		execution.WithReconcileAlert(func(alert execution.ReconcileAlert) {
			e.notify(context.Background(), EventRiskAlert, alert.Symbol,
				"order state unknown, rejected locally pending reconciliation",
				map[string]any{"client_order_id": alert.ClientOrderID, "error": alert.Err.Error()})
		}))
	e.exits = execution.NewExitWatcher(e.controller, e.state, e.market.CurrentPrice)
	return e, nil
}

// State exposes the portfolio for read paths (status endpoints, tests).
func (e *Engine) State() *portfolio.State { return e.state }

// Supervisor exposes the emergency supervisor.
func (e *Engine) Supervisor() *risk.Supervisor { return e.supervisor }

// Running reports whether the trading loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Start restores persisted state and launches the trading loop. Calling
// Start on a running engine is a no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	if err := e.restore(context.Background()); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running = true
	e.wg.Add(1)
	go e.loop(ctx)
	logx.Infof("engine: started, symbols=%v mode=%s interval=%s", e.cfg.Symbols, e.cfg.Mode, e.cfg.TickInterval)
	return nil
}

// Stop halts the trading loop and waits for the in-flight tick to drain.
// Calling Stop on a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	e.saveState(context.Background())
	logx.Info("engine: stopped")
}

// SetCapital replaces the free cash balance. Open positions are untouched.
func (e *Engine) SetCapital(amount float64) error {
	return e.state.SetCash(amount)
}

// SetRiskLimits swaps the active risk limits after validation.
func (e *Engine) SetRiskLimits(limits risk.Limits) error {
	return e.riskMgr.SetLimits(limits)
}

// ManualHalt stops new entries immediately and cancels in-flight
// submissions that have not been acknowledged yet. Orders the venue already
// acknowledged are reconciled by status query, never blindly cancelled.
// Protective exits keep running while halted.
func (e *Engine) ManualHalt() {
	e.supervisor.ManualHalt()
	e.mu.Lock()
	cancel := e.tickCancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	logx.Info("engine: manual halt engaged")
}

// ManualReset clears both the manual halt and the emergency latch, and
// resets the daily counters. The portfolio is kept as-is.
func (e *Engine) ManualReset() {
	e.supervisor.ManualResume()
	e.supervisor.Reset()
	e.state.ResetDailyCounters()
	e.notify(context.Background(), EventEmergencyReset, "", "emergency latch cleared by operator", nil)
	logx.Info("engine: manual reset, daily counters cleared")
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	e.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick runs one pass: daily-loss gate, protective exit sweep, then one
// decision cycle per symbol. Symbol cycles run concurrently; the portfolio
// mutex serializes their fills.
func (e *Engine) tick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, e.cfg.CycleTimeout)
	e.mu.Lock()
	e.tickCancel = cancel
	e.mu.Unlock()
	defer cancel()

	e.riskMgr.CheckDailyLoss(e.state)
	e.sweepPending(tickCtx)
	e.sweepExits(tickCtx)

	var wg sync.WaitGroup
	for _, symbol := range e.cfg.Symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			e.runCycle(tickCtx, sym)
		}(symbol)
	}
	wg.Wait()

	e.state.RecordEquity()
	e.saveState(ctx)
}

// sweepPending re-queries orders the venue has not yet resolved, so a slow
// fill still reaches the portfolio and the journal. Orders that reached a
// terminal state with filled quantity are recorded like any other trade.
func (e *Engine) sweepPending(ctx context.Context) {
	for _, result := range e.controller.SweepPending(ctx) {
		ack := result.Ack
		if ack == nil {
			continue
		}
		e.notify(ctx, EventTradeExecuted, ack.Symbol,
			fmt.Sprintf("%s order %s: %.6f filled at %.4f", result.Status, result.ClientOrderID, ack.FilledQty, ack.AvgFillPrice),
			map[string]any{"status": string(result.Status), "realized": result.Realized})
		if result.Status.Terminal() && ack.FilledQty > 0 {
			e.recordTrade(ctx, ack.Symbol, result, ack)
		}
	}
}

// sweepExits closes positions whose stop or take level is crossed. Exits
// run before new entries and also while halted.
func (e *Engine) sweepExits(ctx context.Context) {
	for _, exit := range e.exits.Sweep(ctx) {
		e.notify(ctx, EventTradeExecuted, exit.Symbol,
			fmt.Sprintf("%s exit at %.4f", exit.Kind, exit.Price),
			map[string]any{"kind": string(exit.Kind), "realized": exit.Realized})
		if exit.Result != nil && exit.Result.Ack != nil {
			e.recordTrade(ctx, exit.Symbol, exit.Result, exit.Result.Ack)
		}
	}
}

// runCycle executes one symbol's decision cycle. A panic or error here is
// contained; other symbols and later ticks are unaffected.
func (e *Engine) runCycle(ctx context.Context, symbol string) {
	rec := &journal.CycleRecord{Symbol: symbol, Timestamp: e.now().UTC()}
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("engine: cycle %s panicked: %v", symbol, r)
			rec.Outcome = journal.OutcomeError
			rec.ErrorMessage = fmt.Sprintf("cycle panic: %v", r)
		}
		rec.Equity = e.state.Equity()
		e.writeCycle(ctx, rec)
	}()

	snap, err := e.market.Snapshot(ctx, symbol)
	if err != nil {
		rec.Outcome = journal.OutcomeError
		rec.ErrorMessage = fmt.Sprintf("market snapshot: %v", err)
		return
	}
	rec.Price = snap.Last
	e.state.SetMark(symbol, snap.Last)

	signals, entries := e.collectSignals(ctx, snap)
	rec.Signals = entries

	decision := e.fuser.Fuse(symbol, signals, e.now().UTC())
	rec.Decision = decision

	// Approval and submission hold one lock: the exposure check is only
	// valid while no other symbol's fill can land in between.
	var (
		approved  *risk.ApprovedOrder
		rejection *risk.Rejection
		result    *execution.Result
	)
	func() {
		e.execMu.Lock()
		defer e.execMu.Unlock()
		approved, rejection = e.riskMgr.Evaluate(decision, e.state, snap.Last)
		if rejection != nil {
			return
		}
		result, err = e.controller.Submit(ctx, approved)
	}()
	if rejection != nil {
		if rejection.Reason == risk.RejectHoldDecision {
			rec.Outcome = journal.OutcomeHold
			return
		}
		rec.Outcome = journal.OutcomeRejected
		rec.RejectReason = string(rejection.Reason)
		e.notify(ctx, EventRiskAlert, symbol, rejection.Detail,
			map[string]any{"reason": string(rejection.Reason)})
		return
	}
	if err != nil {
		rec.Outcome = journal.OutcomeError
		rec.ErrorMessage = err.Error()
		return
	}
	rec.OrderID = orderID(result)
	switch result.Status {
	case execution.StatusFilled:
		rec.Outcome = journal.OutcomeFilled
		rec.FilledQty = result.Ack.FilledQty
		rec.RealizedPnL = result.Realized
		e.notify(ctx, EventTradeExecuted, symbol,
			fmt.Sprintf("%s %.6f %s at %.4f", approved.Side, result.Ack.FilledQty, symbol, result.Ack.AvgFillPrice),
			map[string]any{"order_id": result.Ack.OrderID, "realized": result.Realized})
		e.recordTrade(ctx, symbol, result, result.Ack)
	case execution.StatusPartiallyFilled:
		// Applied what has filled so far; the pending sweep finishes the job.
		rec.Outcome = journal.OutcomePartial
		rec.FilledQty = result.Ack.FilledQty
		rec.RealizedPnL = result.Realized
	case execution.StatusCancelled:
		// Cancelled after a partial fill: the filled slice stays applied.
		rec.Outcome = journal.OutcomePartial
		rec.RejectReason = result.Reason
		rec.FilledQty = result.Ack.FilledQty
		rec.RealizedPnL = result.Realized
		if result.Ack.FilledQty > 0 {
			e.recordTrade(ctx, symbol, result, result.Ack)
		}
	case execution.StatusPending:
		rec.Outcome = journal.OutcomePending
	default:
		rec.Outcome = journal.OutcomeRejected
		rec.RejectReason = result.Reason
		e.notify(ctx, EventRiskAlert, symbol, result.Reason, nil)
	}
}

// collectSignals evaluates every generator concurrently against one
// snapshot. A generator panic is demoted to an error entry.
func (e *Engine) collectSignals(ctx context.Context, snap *market.Snapshot) ([]*signal.Signal, []journal.SignalEntry) {
	results := make([]*signal.Signal, len(e.generators))
	errs := make([]error, len(e.generators))

	var wg sync.WaitGroup
	for i, gen := range e.generators {
		wg.Add(1)
		go func(i int, gen signal.Generator) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("generator panic: %v", r)
				}
			}()
			results[i], errs[i] = gen.Evaluate(ctx, snap)
		}(i, gen)
	}
	wg.Wait()

	signals := make([]*signal.Signal, 0, len(results))
	entries := make([]journal.SignalEntry, 0, len(results))
	for i, gen := range e.generators {
		entry := journal.SignalEntry{Source: gen.Source()}
		switch {
		case errs[i] != nil:
			entry.Error = errs[i].Error()
			logx.Errorf("engine: %s generator for %s: %v", gen.Source(), snap.Symbol, errs[i])
		case results[i] != nil:
			entry.Action = results[i].Action
			entry.Strength = results[i].Strength
			signals = append(signals, results[i])
		default:
			// Abstained (not enough history yet).
			entry.Action = signal.ActionHold
		}
		entries = append(entries, entry)
	}
	return signals, entries
}

func (e *Engine) writeCycle(ctx context.Context, rec *journal.CycleRecord) {
	if _, err := e.journal.WriteCycle(rec); err != nil {
		logx.Errorf("engine: journal cycle %s: %v", rec.Symbol, err)
	}
	if err := e.persistence.RecordCycle(ctx, rec); err != nil {
		logx.Errorf("engine: persist cycle %s: %v", rec.Symbol, err)
	}
}

func (e *Engine) recordTrade(ctx context.Context, symbol string, result *execution.Result, ack *exchange.OrderAck) {
	trade := TradeRecord{
		Symbol:        symbol,
		Side:          ack.Side,
		Quantity:      ack.FilledQty,
		Price:         ack.AvgFillPrice,
		Fee:           ack.Fee,
		Realized:      result.Realized,
		OrderID:       ack.OrderID,
		ClientOrderID: result.ClientOrderID,
		Timestamp:     ack.Timestamp,
	}
	if err := e.persistence.RecordTrade(ctx, trade); err != nil {
		logx.Errorf("engine: persist trade %s: %v", symbol, err)
	}
}

// restore rehydrates portfolio and emergency state from the persistence
// service, falling back to the state file when the service has nothing.
func (e *Engine) restore(ctx context.Context) error {
	saved, err := e.persistence.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("engine: load state: %w", err)
	}
	if saved == nil && e.cfg.StatePath != "" {
		if err := e.state.LoadFile(e.cfg.StatePath); err == nil {
			logx.Infof("engine: restored portfolio from %s", e.cfg.StatePath)
		}
		return nil
	}
	if saved == nil {
		return nil
	}
	if saved.Portfolio != nil {
		if err := e.state.Restore(saved.Portfolio); err != nil {
			return fmt.Errorf("engine: restore portfolio: %w", err)
		}
	}
	switch risk.EmergencyState(saved.EmergencyState) {
	case risk.StateTriggered:
		e.supervisor.Trigger(saved.EmergencyReason)
	case risk.StateHalted:
		e.supervisor.ManualHalt()
	}
	logx.Infof("engine: restored session state, emergency=%s", saved.EmergencyState)
	return nil
}

// saveState snapshots the session for restart survival. Best effort; a
// failed save never interrupts trading.
func (e *Engine) saveState(ctx context.Context) {
	bot := BotState{
		Portfolio:       e.state.Snapshot(),
		EmergencyState:  string(e.supervisor.State()),
		EmergencyReason: e.supervisor.Reason(),
		UpdatedAt:       e.now().UTC(),
	}
	if err := e.persistence.SaveState(ctx, bot); err != nil {
		logx.Errorf("engine: persist state: %v", err)
	}
	if e.cfg.StatePath != "" {
		if err := e.state.SaveFile(e.cfg.StatePath); err != nil {
			logx.Errorf("engine: save state file: %v", err)
		}
	}
}

func orderID(result *execution.Result) string {
	if result.Ack != nil {
		return result.Ack.OrderID
	}
	return ""
}

func (e *Engine) notify(ctx context.Context, typ EventType, symbol, message string, fields map[string]any) {
	e.notifier.Notify(ctx, Event{
		Type:      typ,
		Symbol:    symbol,
		Message:   message,
		Fields:    fields,
		Timestamp: e.now().UTC(),
	})
}
