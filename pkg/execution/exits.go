package execution

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"earlybot/pkg/exchange"
	"earlybot/pkg/portfolio"
	"earlybot/pkg/risk"
)

// ExitKind labels why a position was closed.
type ExitKind string

const (
	ExitStopLoss   ExitKind = "stop_loss"
	ExitTakeProfit ExitKind = "take_profit"
)

// Exit reports one triggered protective close.
type Exit struct {
	Symbol   string
	Kind     ExitKind
	Price    float64
	Result   *Result
	Realized float64
}

// PriceFunc resolves the current price for a symbol.
type PriceFunc func(ctx context.Context, symbol string) (float64, error)

// ExitWatcher sweeps open positions against their stop/take levels each
// tick. Exits bypass the risk gate deliberately: protective closes must run
// even during an emergency halt.
type ExitWatcher struct {
	controller *Controller
	state      *portfolio.State
	price      PriceFunc
}

// NewExitWatcher wires the watcher to the submit path.
func NewExitWatcher(controller *Controller, state *portfolio.State, price PriceFunc) *ExitWatcher {
	return &ExitWatcher{controller: controller, state: state, price: price}
}

// Sweep checks every open position once and closes any whose stop or take
// level is crossed. A failed price lookup skips that symbol; a failed close
// is logged and retried naturally on the next sweep.
func (w *ExitWatcher) Sweep(ctx context.Context) []Exit {
	var exits []Exit
	for _, pos := range w.state.Positions() {
		price, err := w.price(ctx, pos.Symbol)
		if err != nil {
			logx.Errorf("exit watcher: price %s: %v", pos.Symbol, err)
			continue
		}
		w.state.SetMark(pos.Symbol, price)

		kind, hit := crossed(&pos, price)
		if !hit {
			continue
		}

		result, err := w.controller.Submit(ctx, &risk.ApprovedOrder{
			Symbol:   pos.Symbol,
			Side:     exchange.SideSell,
			Quantity: pos.Quantity,
			Notional: pos.Quantity * price,
			Price:    price,
		})
		if err != nil {
			logx.Errorf("exit watcher: close %s: %v", pos.Symbol, err)
			continue
		}
		logx.Infof("exit watcher: %s %s at %.6f (%s)", pos.Symbol, kind, price, result.Status)
		exits = append(exits, Exit{
			Symbol:   pos.Symbol,
			Kind:     kind,
			Price:    price,
			Result:   result,
			Realized: result.Realized,
		})
	}
	return exits
}

func crossed(pos *portfolio.Position, price float64) (ExitKind, bool) {
	if pos.StopLoss > 0 && price <= pos.StopLoss {
		return ExitStopLoss, true
	}
	if pos.TakeProfit > 0 && price >= pos.TakeProfit {
		return ExitTakeProfit, true
	}
	return "", false
}
