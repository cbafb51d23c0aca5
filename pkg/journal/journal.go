package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"earlybot/pkg/fusion"
	"earlybot/pkg/signal"
)

// SignalEntry is one generator's vote as recorded for audit.
type SignalEntry struct {
	Source   signal.Source `json:"source"`
	Action   signal.Action `json:"action"`
	Strength float64       `json:"strength"`
	Error    string        `json:"error,omitempty"`
}

// Cycle outcomes.
const (
	OutcomeHold     = "hold"
	OutcomeRejected = "rejected"
	OutcomeFilled   = "filled"
	OutcomePartial  = "partial"
	OutcomePending  = "pending"
	OutcomeError    = "error"
)

// CycleRecord captures one symbol's end-to-end decision cycle.
type CycleRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	CycleNumber int       `json:"cycle_number"`
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price,omitempty"`

	Signals  []SignalEntry   `json:"signals,omitempty"`
	Decision *fusion.Decision `json:"decision,omitempty"`

	Outcome      string  `json:"outcome"`
	RejectReason string  `json:"reject_reason,omitempty"`
	OrderID      string  `json:"order_id,omitempty"`
	FilledQty    float64 `json:"filled_qty,omitempty"`
	RealizedPnL  float64 `json:"realized_pnl,omitempty"`

	Equity       float64 `json:"equity,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// Writer persists cycle records to a directory as JSON files. Safe for
// concurrent use; cycle numbers are assigned in write order.
type Writer struct {
	mu    sync.Mutex
	dir   string
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a journal writer.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// WriteCycle writes a cycle record to a timestamped JSON file and returns
// its path.
func (w *Writer) WriteCycle(rec *CycleRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	rec.CycleNumber = w.seq
	name := fmt.Sprintf("cycle_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
