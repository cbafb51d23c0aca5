package market

import (
	"context"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// Poller fetches snapshots for a fixed symbol set on a periodic cadence and
// keeps only the most recent snapshot per symbol. If polling outpaces the
// consumer the latest snapshot wins; there is no backlog.
type Poller struct {
	provider Provider
	symbols  []string
	interval time.Duration

	mu     sync.RWMutex
	latest map[string]*Snapshot

	observer func(*Snapshot)

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// PollerOption customises poller construction.
type PollerOption func(*Poller)

// WithObserver registers a callback invoked with every fresh snapshot, after
// it becomes the latest. Used for persistence/cache mirroring; must be fast.
func WithObserver(fn func(*Snapshot)) PollerOption {
	return func(p *Poller) {
		p.observer = fn
	}
}

// NewPoller constructs a poller for the given provider and symbols.
func NewPoller(provider Provider, symbols []string, interval time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	p := &Poller{
		provider: provider,
		symbols:  append([]string(nil), symbols...),
		interval: interval,
		latest:   make(map[string]*Snapshot, len(symbols)),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches one polling goroutine per symbol. Symbols poll
// independently so a slow venue response for one pair never delays others.
func (p *Poller) Start(ctx context.Context) {
	for _, symbol := range p.symbols {
		p.wg.Add(1)
		go p.pollLoop(ctx, symbol)
	}
}

// Stop halts polling and waits for in-flight fetches to finish.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

// Latest returns the most recent snapshot for the symbol, or nil when no
// successful poll has completed yet.
func (p *Poller) Latest(symbol string) *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest[symbol]
}

func (p *Poller) pollLoop(ctx context.Context, symbol string) {
	defer p.wg.Done()

	p.pollOnce(ctx, symbol)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.pollOnce(ctx, symbol)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context, symbol string) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	snap, err := p.provider.Snapshot(fetchCtx, symbol)
	if err != nil {
		// Stale data is tolerated; the previous snapshot stays current.
		logx.Errorf("market: poll %s: %v", symbol, err)
		return
	}
	p.mu.Lock()
	p.latest[symbol] = snap
	p.mu.Unlock()

	if p.observer != nil {
		p.observer(snap)
	}
}
