package portfolio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"earlybot/pkg/exchange"
)

const defaultCurveCapacity = 1440 // one day of minute samples

// Position is one open spot holding.
type Position struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	AvgEntryPrice float64   `json:"avgEntryPrice"`
	OpenedAt      time.Time `json:"openedAt"`
	StopLoss      float64   `json:"stopLoss,omitempty"`
	TakeProfit    float64   `json:"takeProfit,omitempty"`
}

// UnrealizedPnL marks the position against a price.
func (p *Position) UnrealizedPnL(mark float64) float64 {
	if p == nil || mark <= 0 {
		return 0
	}
	return p.Quantity * (mark - p.AvgEntryPrice)
}

// Fill is an executed order applied to the portfolio.
type Fill struct {
	Symbol     string
	Side       exchange.Side
	Quantity   float64
	Price      float64
	Fee        float64 // Quote-denominated.
	StopLoss   float64 // Carried onto the position when opening.
	TakeProfit float64
	Timestamp  time.Time
}

// State tracks cash, positions and daily counters. Every access goes through
// one mutex; the execution controller is the single logical writer.
type State struct {
	mu sync.Mutex

	cash      float64
	positions map[string]*Position
	marks     map[string]float64

	dailyTrades   int
	dailyRealized float64
	day           time.Time // UTC date owning the daily counters.

	curve    []float64
	curveCap int

	now func() time.Time
}

// NewState seeds a portfolio with starting cash.
func NewState(initialCash float64) *State {
	s := &State{
		cash:      initialCash,
		positions: make(map[string]*Position),
		marks:     make(map[string]float64),
		curveCap:  defaultCurveCapacity,
		now:       time.Now,
	}
	s.day = dateOf(s.now())
	return s
}

// Cash returns the quote balance.
func (s *State) Cash() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cash
}

// SetCash replaces the quote balance (engine SetCapital).
func (s *State) SetCash(cash float64) error {
	if cash < 0 {
		return fmt.Errorf("portfolio: cash cannot be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cash = cash
	return nil
}

// SetMark updates the mark price used for equity and unrealized PnL.
func (s *State) SetMark(symbol string, price float64) {
	if price <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[symbol] = price
}

// Equity returns cash plus mark-to-market value of open positions.
func (s *State) Equity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equityLocked()
}

func (s *State) equityLocked() float64 {
	equity := s.cash
	for symbol, pos := range s.positions {
		equity += pos.Quantity * s.markLocked(symbol, pos)
	}
	return equity
}

func (s *State) markLocked(symbol string, pos *Position) float64 {
	if mark, ok := s.marks[symbol]; ok && mark > 0 {
		return mark
	}
	return pos.AvgEntryPrice
}

// TotalExposure returns the summed notional of open positions.
func (s *State) TotalExposure() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for symbol, pos := range s.positions {
		total += math.Abs(pos.Quantity * s.markLocked(symbol, pos))
	}
	return total
}

// Position returns a copy of the open position for symbol, or nil.
func (s *State) Position(symbol string) *Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[symbol]
	if !ok {
		return nil
	}
	copied := *pos
	return &copied
}

// Positions returns copies of all open positions.
func (s *State) Positions() []Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Position, 0, len(s.positions))
	for _, pos := range s.positions {
		out = append(out, *pos)
	}
	return out
}

// ApplyFill mutates cash, positions and daily counters atomically and
// returns the realized PnL (zero for opens). Fees reduce realized PnL on
// sells and increase cost basis on buys.
func (s *State) ApplyFill(fill Fill) (realized float64, err error) {
	if fill.Quantity <= 0 || fill.Price <= 0 {
		return 0, fmt.Errorf("portfolio: fill quantity and price must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked()

	notional := fill.Quantity * fill.Price
	switch fill.Side {
	case exchange.SideBuy:
		cost := notional + fill.Fee
		if cost > s.cash+1e-9 {
			return 0, fmt.Errorf("portfolio: fill cost %.2f exceeds cash %.2f", cost, s.cash)
		}
		s.cash -= cost
		pos := s.positions[fill.Symbol]
		if pos == nil {
			s.positions[fill.Symbol] = &Position{
				Symbol:        fill.Symbol,
				Quantity:      fill.Quantity,
				AvgEntryPrice: (notional + fill.Fee) / fill.Quantity,
				OpenedAt:      fill.Timestamp,
				StopLoss:      fill.StopLoss,
				TakeProfit:    fill.TakeProfit,
			}
		} else {
			newQty := pos.Quantity + fill.Quantity
			pos.AvgEntryPrice = (pos.Quantity*pos.AvgEntryPrice + notional + fill.Fee) / newQty
			pos.Quantity = newQty
			if fill.StopLoss > 0 {
				pos.StopLoss = fill.StopLoss
			}
			if fill.TakeProfit > 0 {
				pos.TakeProfit = fill.TakeProfit
			}
		}
	case exchange.SideSell:
		pos := s.positions[fill.Symbol]
		if pos == nil || pos.Quantity < fill.Quantity-1e-9 {
			return 0, fmt.Errorf("portfolio: sell %.8f exceeds held quantity", fill.Quantity)
		}
		s.cash += notional - fill.Fee
		realized = fill.Quantity*(fill.Price-pos.AvgEntryPrice) - fill.Fee
		s.dailyRealized += realized

		pos.Quantity -= fill.Quantity
		if pos.Quantity < 1e-9 {
			delete(s.positions, fill.Symbol)
		}
	default:
		return 0, fmt.Errorf("portfolio: unknown side %q", fill.Side)
	}

	s.marks[fill.Symbol] = fill.Price
	s.dailyTrades++
	s.recordEquityLocked()
	return realized, nil
}

// SetExits updates the stop/take levels on an open position.
func (s *State) SetExits(symbol string, stopLoss, takeProfit float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[symbol]
	if !ok {
		return fmt.Errorf("portfolio: no open position for %s", symbol)
	}
	pos.StopLoss = stopLoss
	pos.TakeProfit = takeProfit
	return nil
}

// DailyTrades returns today's executed trade count.
func (s *State) DailyTrades() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked()
	return s.dailyTrades
}

// DailyRealizedPnL returns today's realized profit and loss.
func (s *State) DailyRealizedPnL() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolloverLocked()
	return s.dailyRealized
}

// ResetDailyCounters zeroes the daily bookkeeping (emergency reset path).
func (s *State) ResetDailyCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyTrades = 0
	s.dailyRealized = 0
	s.day = dateOf(s.now())
}

// RecordEquity appends the current equity to the curve (called per tick).
func (s *State) RecordEquity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordEquityLocked()
}

func (s *State) recordEquityLocked() {
	s.curve = append(s.curve, s.equityLocked())
	if len(s.curve) > s.curveCap {
		s.curve = s.curve[len(s.curve)-s.curveCap:]
	}
}

// EquityCurve returns a copy of the recorded equity series, oldest first.
func (s *State) EquityCurve() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.curve...)
}

// rolloverLocked resets daily counters when the UTC date advances.
func (s *State) rolloverLocked() {
	today := dateOf(s.now())
	if !today.Equal(s.day) {
		s.dailyTrades = 0
		s.dailyRealized = 0
		s.day = today
	}
}

func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
