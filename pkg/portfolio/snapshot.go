package portfolio

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion guards against decoding snapshots from incompatible
// layouts.
const snapshotVersion = 1

// Snapshot is the serializable portfolio state used for restart survival.
type Snapshot struct {
	Version       int                 `msgpack:"version"`
	Cash          float64             `msgpack:"cash"`
	Positions     map[string]Position `msgpack:"positions"`
	Marks         map[string]float64  `msgpack:"marks"`
	DailyTrades   int                 `msgpack:"daily_trades"`
	DailyRealized float64             `msgpack:"daily_realized"`
	Day           time.Time           `msgpack:"day"`
	Curve         []float64           `msgpack:"curve"`
	SavedAt       time.Time           `msgpack:"saved_at"`
}

// Snapshot captures the current state for persistence.
func (s *State) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Version:       snapshotVersion,
		Cash:          s.cash,
		Positions:     make(map[string]Position, len(s.positions)),
		Marks:         make(map[string]float64, len(s.marks)),
		DailyTrades:   s.dailyTrades,
		DailyRealized: s.dailyRealized,
		Day:           s.day,
		Curve:         append([]float64(nil), s.curve...),
		SavedAt:       s.now().UTC(),
	}
	for symbol, pos := range s.positions {
		snap.Positions[symbol] = *pos
	}
	for symbol, mark := range s.marks {
		snap.Marks[symbol] = mark
	}
	return snap
}

// Restore replaces the current state with a previously saved snapshot.
func (s *State) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("portfolio: nil snapshot")
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("portfolio: unsupported snapshot version %d", snap.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cash = snap.Cash
	s.positions = make(map[string]*Position, len(snap.Positions))
	for symbol, pos := range snap.Positions {
		copied := pos
		s.positions[symbol] = &copied
	}
	s.marks = make(map[string]float64, len(snap.Marks))
	for symbol, mark := range snap.Marks {
		s.marks[symbol] = mark
	}
	s.dailyTrades = snap.DailyTrades
	s.dailyRealized = snap.DailyRealized
	s.day = snap.Day
	s.curve = append([]float64(nil), snap.Curve...)
	s.rolloverLocked()
	return nil
}

// SaveFile writes a msgpack snapshot atomically via a temp file rename.
func (s *State) SaveFile(path string) error {
	data, err := msgpack.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("portfolio: encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("portfolio: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("portfolio: commit snapshot: %w", err)
	}
	return nil
}

// LoadFile restores state from a msgpack snapshot on disk.
func (s *State) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("portfolio: read snapshot: %w", err)
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("portfolio: decode snapshot: %w", err)
	}
	return s.Restore(&snap)
}
