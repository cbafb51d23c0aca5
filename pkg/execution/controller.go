package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"earlybot/pkg/exchange"
	"earlybot/pkg/portfolio"
	"earlybot/pkg/risk"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
	reconcileTimeout      = 5 * time.Second
)

// Status is the local lifecycle of a submitted order.
type Status string

const (
	StatusFilled          Status = "filled"
	StatusPartiallyFilled Status = "partially-filled"
	StatusPending         Status = "pending"
	StatusCancelled       Status = "cancelled"
	StatusRejected        Status = "rejected"
)

// Terminal reports whether the order needs no further status sweeps.
func (s Status) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled || s == StatusRejected
}

// Result reports the outcome of one submission.
type Result struct {
	Status        Status
	ClientOrderID string
	Ack           *exchange.OrderAck
	Realized      float64 // Realized PnL applied to the portfolio (sells).
	Reason        string  // Populated on rejection.
}

// ReconcileAlert is raised when an order's terminal state could not be
// established and the order was rejected locally; the venue may still hold
// it, so an operator or a later sweep has to reconcile.
type ReconcileAlert struct {
	Symbol        string
	ClientOrderID string
	Err           error
}

// Controller owns order submission: deterministic client order ids, bounded
// retries, status reconciliation before local rejection, and atomic
// portfolio application of fills.
type Controller struct {
	venue exchange.Provider
	state *portfolio.State

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	onReconcileAlert func(ReconcileAlert)
	now              func() time.Time

	mu      sync.Mutex
	settled map[string]*Result    // By client order id; guards double application.
	open    map[string]*openOrder // Pending/partial orders awaiting later sweeps.
}

// openOrder tracks how much of a live order has already been applied to the
// portfolio, so later acks only apply the delta.
type openOrder struct {
	approved   *risk.ApprovedOrder
	appliedQty float64
	appliedFee float64
	realized   float64
}

// Option configures the controller.
type Option func(*Controller)

// WithMaxRetries bounds submission attempts (initial try excluded).
func WithMaxRetries(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff overrides the retry backoff bounds.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Controller) {
		if initial > 0 {
			c.initialBackoff = initial
		}
		if max > 0 {
			c.maxBackoff = max
		}
	}
}

// WithReconcileAlert registers the alert sink.
func WithReconcileAlert(fn func(ReconcileAlert)) Option {
	return func(c *Controller) {
		c.onReconcileAlert = fn
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController binds a venue and portfolio state.
func NewController(venue exchange.Provider, state *portfolio.State, opts ...Option) *Controller {
	c := &Controller{
		venue:          venue,
		state:          state,
		maxRetries:     defaultMaxRetries,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		now:            time.Now,
		settled:        make(map[string]*Result),
		open:           make(map[string]*openOrder),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit places an approved order and applies the fill to the portfolio.
// The same approved order re-submitted within a minute carries the same
// client order id, so an accidental double submission cannot double the
// position.
func (c *Controller) Submit(ctx context.Context, approved *risk.ApprovedOrder) (*Result, error) {
	if approved == nil {
		return nil, errors.New("execution: nil approved order")
	}

	cloid := BuildClientOrderID(approved.Symbol, approved.Side, c.now())
	c.mu.Lock()
	if prior, ok := c.settled[cloid]; ok {
		c.mu.Unlock()
		logx.Infof("execution: %s already settled, replaying result", cloid)
		return prior, nil
	}
	c.mu.Unlock()

	request := exchange.OrderRequest{
		Symbol:        approved.Symbol,
		Side:          approved.Side,
		Quantity:      approved.Quantity,
		ClientOrderID: cloid,
	}

	ack, err := c.placeWithRetry(ctx, request)
	if err != nil {
		if isOrderRefusal(err) {
			// The venue examined and refused the order; nothing to reconcile.
			return &Result{Status: StatusRejected, ClientOrderID: cloid, Reason: err.Error()}, nil
		}
		return c.reconcile(ctx, approved, cloid, err)
	}
	return c.settle(approved, cloid, ack)
}

func (c *Controller) placeWithRetry(ctx context.Context, request exchange.OrderRequest) (*exchange.OrderAck, error) {
	backoff := c.initialBackoff
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if backoff *= 2; backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}

		ack, err := c.venue.PlaceOrder(ctx, request)
		if err == nil {
			return ack, nil
		}
		lastErr = err
		if isOrderRefusal(err) || ctx.Err() != nil {
			return nil, err
		}
		logx.Errorf("execution: place %s attempt %d: %v", request.ClientOrderID, attempt+1, err)
	}
	return nil, lastErr
}

// reconcile queries the venue by client order id after an ambiguous
// submission failure. A definitive "not found" rejects locally without an
// alert; an unknown state rejects locally and raises the reconcile alert.
// The query runs on its own bounded context: the submission context is
// typically already cancelled (manual halt, cycle timeout) and reusing it
// would turn every halted-mid-flight order into a spurious alert.
func (c *Controller) reconcile(ctx context.Context, approved *risk.ApprovedOrder, cloid string, submitErr error) (*Result, error) {
	queryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reconcileTimeout)
	defer cancel()

	ack, err := c.venue.OrderStatusByClientID(queryCtx, cloid)
	if err == nil {
		return c.settle(approved, cloid, ack)
	}
	if errors.Is(err, exchange.ErrOrderNotFound) {
		return &Result{
			Status:        StatusRejected,
			ClientOrderID: cloid,
			Reason:        fmt.Sprintf("submission failed, order not on venue: %v", submitErr),
		}, nil
	}

	alert := ReconcileAlert{Symbol: approved.Symbol, ClientOrderID: cloid, Err: err}
	logx.Errorf("execution: %s unresolved after submit failure (%v); status query: %v", cloid, submitErr, err)
	if c.onReconcileAlert != nil {
		c.onReconcileAlert(alert)
	}
	return &Result{
		Status:        StatusRejected,
		ClientOrderID: cloid,
		Reason:        "order state unknown; rejected locally pending reconciliation",
	}, nil
}

// settle advances the local order state machine from a venue ack. Filled
// quantity is applied to the portfolio exactly once: each ack only applies
// the delta beyond what earlier acks already applied, so a pending order
// that fills in steps (or is cancelled after a partial fill) converges on
// the venue's accounting instead of diverging from it.
func (c *Controller) settle(approved *risk.ApprovedOrder, cloid string, ack *exchange.OrderAck) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := &Result{ClientOrderID: cloid, Ack: ack}
	if ack == nil {
		result.Status = StatusRejected
		result.Reason = "empty ack"
		delete(c.open, cloid)
		return result, nil
	}
	if ack.State == exchange.OrderStateRejected {
		result.Status = StatusRejected
		result.Reason = "venue rejected order"
		delete(c.open, cloid)
		return result, nil
	}

	tracked := c.open[cloid]
	if tracked == nil {
		tracked = &openOrder{approved: approved}
	}
	if ack.FilledQty > tracked.appliedQty {
		realized, err := c.applyDeltaLocked(tracked, ack)
		if err != nil {
			// The venue filled but local accounting refused; surface loudly.
			return nil, fmt.Errorf("execution: apply fill %s: %w", cloid, err)
		}
		tracked.realized += realized
	}
	result.Realized = tracked.realized

	switch ack.State {
	case exchange.OrderStateFilled:
		result.Status = StatusFilled
		delete(c.open, cloid)
		c.settled[cloid] = result
	case exchange.OrderStateCancelled:
		if tracked.appliedQty > 0 {
			result.Status = StatusCancelled
			result.Reason = "cancelled after partial fill"
			c.settled[cloid] = result
		} else {
			result.Status = StatusRejected
			result.Reason = "order cancelled before fill"
		}
		delete(c.open, cloid)
	default: // pending or partially-filled: keep sweeping.
		if tracked.appliedQty > 0 {
			result.Status = StatusPartiallyFilled
		} else {
			result.Status = StatusPending
		}
		c.open[cloid] = tracked
	}
	return result, nil
}

// applyDeltaLocked applies the not-yet-applied portion of the ack's filled
// quantity to the portfolio. Caller holds c.mu.
func (c *Controller) applyDeltaLocked(tracked *openOrder, ack *exchange.OrderAck) (float64, error) {
	fillPrice := ack.AvgFillPrice
	if fillPrice <= 0 {
		fillPrice = tracked.approved.Price
	}
	deltaQty := ack.FilledQty - tracked.appliedQty
	deltaFee := ack.Fee - tracked.appliedFee
	if deltaFee < 0 {
		deltaFee = 0
	}
	realized, err := c.state.ApplyFill(portfolio.Fill{
		Symbol:     tracked.approved.Symbol,
		Side:       tracked.approved.Side,
		Quantity:   deltaQty,
		Price:      fillPrice,
		Fee:        deltaFee,
		StopLoss:   tracked.approved.StopLoss,
		TakeProfit: tracked.approved.TakeProfit,
		Timestamp:  ack.Timestamp,
	})
	if err != nil {
		return 0, err
	}
	tracked.appliedQty = ack.FilledQty
	tracked.appliedFee += deltaFee
	return realized, nil
}

// SweepPending re-queries every open (pending or partially filled) order by
// client id and advances its state machine. It returns the orders that made
// progress this sweep: a new partial fill, a full fill, or a terminal
// cancel/reject. The engine calls this once per tick.
func (c *Controller) SweepPending(ctx context.Context) []*Result {
	c.mu.Lock()
	pending := make(map[string]*openOrder, len(c.open))
	for cloid, tracked := range c.open {
		pending[cloid] = tracked
	}
	c.mu.Unlock()

	var progressed []*Result
	for cloid, tracked := range pending {
		ack, err := c.venue.OrderStatusByClientID(ctx, cloid)
		if err != nil {
			if errors.Is(err, exchange.ErrOrderNotFound) {
				// The venue has no record; drop local tracking.
				c.mu.Lock()
				delete(c.open, cloid)
				c.mu.Unlock()
				logx.Errorf("execution: sweep %s: order vanished from venue", cloid)
				continue
			}
			logx.Errorf("execution: sweep %s: %v", cloid, err)
			continue
		}

		before := tracked.appliedQty
		result, err := c.settle(tracked.approved, cloid, ack)
		if err != nil {
			logx.Errorf("execution: sweep %s: %v", cloid, err)
			continue
		}
		if result.Status.Terminal() || tracked.appliedQty > before {
			progressed = append(progressed, result)
		}
	}
	return progressed
}

// isOrderRefusal reports whether the venue definitively refused the order,
// making retries and reconciliation pointless.
func isOrderRefusal(err error) bool {
	return errors.Is(err, exchange.ErrInsufficientFunds) || errors.Is(err, exchange.ErrNoShortSelling)
}
