package risk

import (
	"fmt"
	"math"

	"earlybot/pkg/exchange"
	"earlybot/pkg/fusion"
	"earlybot/pkg/portfolio"
	"earlybot/pkg/signal"
)

// RejectReason is a typed telemetry label; rejections are expected outcomes,
// not errors.
type RejectReason string

const (
	RejectEmergencyHalt RejectReason = "emergency_halt"
	RejectHoldDecision  RejectReason = "hold_decision"
	RejectConfidence    RejectReason = "confidence_floor"
	RejectDailyTradeCap RejectReason = "daily_trade_cap"
	RejectDailyLoss     RejectReason = "daily_loss_limit"
	RejectExposureCap   RejectReason = "exposure_cap"
	RejectPositionCap   RejectReason = "position_cap"
	RejectMinNotional   RejectReason = "min_notional"
	RejectNoPosition    RejectReason = "no_position"
	RejectInsufficient  RejectReason = "insufficient_cash"
)

// Rejection explains why a decision produced no order.
type Rejection struct {
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail,omitempty"`
}

// ApprovedOrder is a sized, bounded order ready for execution.
type ApprovedOrder struct {
	Symbol     string        `json:"symbol"`
	Side       exchange.Side `json:"side"`
	Quantity   float64       `json:"quantity"`
	Notional   float64       `json:"notional"`
	Price      float64       `json:"price"` // Reference price used for sizing.
	StopLoss   float64       `json:"stopLoss,omitempty"`
	TakeProfit float64       `json:"takeProfit,omitempty"`
	Confidence float64       `json:"confidence"`
}

// Manager applies the ordered risk checks and position sizing.
type Manager struct {
	limits     Limits
	supervisor *Supervisor
}

// NewManager validates the limits and binds the supervisor.
func NewManager(limits Limits, supervisor *Supervisor) (*Manager, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if supervisor == nil {
		supervisor = NewSupervisor(limits.RejectBurst, nil)
	}
	return &Manager{limits: limits, supervisor: supervisor}, nil
}

// Limits returns the active limits.
func (m *Manager) Limits() Limits { return m.limits }

// Supervisor returns the bound emergency supervisor.
func (m *Manager) Supervisor() *Supervisor { return m.supervisor }

// SetLimits swaps the active limits (engine control surface).
func (m *Manager) SetLimits(limits Limits) error {
	if err := limits.Validate(); err != nil {
		return err
	}
	m.limits = limits
	return nil
}

// CheckDailyLoss trips the emergency when today's realized loss breaches
// the configured fraction of equity. The engine calls this every cycle.
func (m *Manager) CheckDailyLoss(state *portfolio.State) bool {
	equity := state.Equity()
	if equity <= 0 {
		return false
	}
	loss := -state.DailyRealizedPnL()
	if loss >= equity*m.limits.MaxDailyLossPct {
		m.supervisor.Trigger(fmt.Sprintf("daily loss %.2f breaches %.1f%% of equity", loss, m.limits.MaxDailyLossPct*100))
		return true
	}
	return false
}

// Evaluate runs the ordered short-circuit checks against a fused decision
// and returns either a sized order or a typed rejection. The checks run in
// a fixed order: emergency gate, hold filter, daily trade cap, daily loss,
// side-specific sizing and caps, then the confidence floor.
func (m *Manager) Evaluate(decision *fusion.Decision, state *portfolio.State, price float64) (*ApprovedOrder, *Rejection) {
	if decision == nil || price <= 0 {
		return nil, &Rejection{Reason: RejectHoldDecision, Detail: "no decision"}
	}

	if !m.supervisor.CanTrade() {
		return nil, m.reject(RejectEmergencyHalt, string(m.supervisor.State()))
	}
	if decision.Action == signal.ActionHold {
		// Holds are the normal quiet path; they do not advance the
		// rejection streak.
		return nil, &Rejection{Reason: RejectHoldDecision}
	}
	if state.DailyTrades() >= m.limits.MaxDailyTrades {
		return nil, m.reject(RejectDailyTradeCap,
			fmt.Sprintf("%d trades today", state.DailyTrades()))
	}
	if m.CheckDailyLoss(state) {
		return nil, m.reject(RejectDailyLoss, m.supervisor.Reason())
	}

	switch decision.Action {
	case signal.ActionBuy:
		return m.evaluateBuy(decision, state, price)
	case signal.ActionSell:
		return m.evaluateSell(decision, state, price)
	}
	return nil, &Rejection{Reason: RejectHoldDecision}
}

func (m *Manager) evaluateBuy(decision *fusion.Decision, state *portfolio.State, price float64) (*ApprovedOrder, *Rejection) {
	equity := state.Equity()

	// Confidence-scaled sizing, capped by the per-position budget.
	notional := equity * m.limits.MaxPositionPct * decision.Confidence
	if notional > state.Cash() {
		return nil, m.reject(RejectInsufficient,
			fmt.Sprintf("need %.2f, cash %.2f", notional, state.Cash()))
	}
	if notional < m.limits.MinTradeNotional {
		return nil, m.reject(RejectMinNotional,
			fmt.Sprintf("notional %.2f below minimum %.2f", notional, m.limits.MinTradeNotional))
	}

	positionBudget := equity * m.limits.MaxPositionPct
	existing := 0.0
	if pos := state.Position(decision.Symbol); pos != nil {
		existing = pos.Quantity * price
	}
	if existing+notional > positionBudget+1e-9 {
		return nil, m.reject(RejectPositionCap,
			fmt.Sprintf("position notional %.2f would exceed budget %.2f", existing+notional, positionBudget))
	}

	exposureBudget := equity * m.limits.MaxTotalExposurePct
	if state.TotalExposure()+notional > exposureBudget+1e-9 {
		return nil, m.reject(RejectExposureCap,
			fmt.Sprintf("total exposure %.2f would exceed budget %.2f", state.TotalExposure()+notional, exposureBudget))
	}

	if rej := m.checkConfidence(decision.Confidence); rej != nil {
		return nil, rej
	}

	stop, take := m.ExitLevels(price, decision.Confidence)
	m.supervisor.RecordApproval()
	return &ApprovedOrder{
		Symbol:     decision.Symbol,
		Side:       exchange.SideBuy,
		Quantity:   notional / price,
		Notional:   notional,
		Price:      price,
		StopLoss:   stop,
		TakeProfit: take,
		Confidence: decision.Confidence,
	}, nil
}

func (m *Manager) evaluateSell(decision *fusion.Decision, state *portfolio.State, price float64) (*ApprovedOrder, *Rejection) {
	pos := state.Position(decision.Symbol)
	if pos == nil || pos.Quantity <= 0 {
		return nil, m.reject(RejectNoPosition, "sell with no open position")
	}

	if rej := m.checkConfidence(decision.Confidence); rej != nil {
		return nil, rej
	}

	m.supervisor.RecordApproval()
	return &ApprovedOrder{
		Symbol:     decision.Symbol,
		Side:       exchange.SideSell,
		Quantity:   pos.Quantity, // Spot exits close the full position.
		Notional:   pos.Quantity * price,
		Price:      price,
		Confidence: decision.Confidence,
	}, nil
}

// ExitLevels derives stop-loss and take-profit prices from entry and
// confidence: higher confidence tightens the stop and stretches the target.
func (m *Manager) ExitLevels(entry, confidence float64) (stop, take float64) {
	confidence = math.Max(0, math.Min(1, confidence))
	stop = entry * (1 - m.limits.StopLossPct*(1.5-confidence/2))
	take = entry * (1 + m.limits.TakeProfitPct*(0.5+confidence))
	return stop, take
}

// checkConfidence is the last gate: cap rejections take precedence so the
// emitted reason names the binding limit when several fail at once.
func (m *Manager) checkConfidence(confidence float64) *Rejection {
	if confidence < m.limits.MinConfidence {
		return m.reject(RejectConfidence,
			fmt.Sprintf("confidence %.2f below floor %.2f", confidence, m.limits.MinConfidence))
	}
	return nil
}

func (m *Manager) reject(reason RejectReason, detail string) *Rejection {
	m.supervisor.RecordRejection()
	return &Rejection{Reason: reason, Detail: detail}
}
