package risk

import (
	"sync"
	"time"
)

// EmergencyState is the supervisor's externally visible condition.
type EmergencyState string

const (
	StateNormal    EmergencyState = "normal"
	StateTriggered EmergencyState = "triggered"
	StateHalted    EmergencyState = "manually-halted"
)

// Supervisor latches the emergency stop. An automatic trigger stays set
// until an explicit Reset; a manual halt is an independent switch that
// resumes without touching the trigger.
type Supervisor struct {
	mu sync.Mutex

	triggered   bool
	reason      string
	triggeredAt time.Time

	halted bool

	rejectStreak int
	rejectBurst  int

	onTrigger func(reason string)
}

// NewSupervisor constructs a supervisor tripping after burst consecutive
// rejections. onTrigger (optional) fires once per trigger transition.
func NewSupervisor(burst int, onTrigger func(reason string)) *Supervisor {
	if burst <= 0 {
		burst = DefaultLimits().RejectBurst
	}
	return &Supervisor{rejectBurst: burst, onTrigger: onTrigger}
}

// State reports the current condition; manual halt wins the label.
func (s *Supervisor) State() EmergencyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.halted:
		return StateHalted
	case s.triggered:
		return StateTriggered
	}
	return StateNormal
}

// CanTrade reports whether new entry orders may proceed.
func (s *Supervisor) CanTrade() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.triggered && !s.halted
}

// Reason returns the latest trigger reason, if any.
func (s *Supervisor) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Trigger latches the emergency stop. Idempotent; the first call fires the
// callback.
func (s *Supervisor) Trigger(reason string) {
	s.mu.Lock()
	already := s.triggered
	if !already {
		s.triggered = true
		s.reason = reason
		s.triggeredAt = time.Now().UTC()
	}
	callback := s.onTrigger
	s.mu.Unlock()

	if !already && callback != nil {
		callback(reason)
	}
}

// Reset clears the automatic trigger and the rejection streak. The manual
// halt switch is untouched.
func (s *Supervisor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggered = false
	s.reason = ""
	s.rejectStreak = 0
}

// ManualHalt pauses trading independent of automatic triggers. Idempotent.
func (s *Supervisor) ManualHalt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = true
}

// ManualResume lifts a manual halt. A latched automatic trigger still
// blocks trading until Reset.
func (s *Supervisor) ManualResume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = false
}

// RecordRejection advances the consecutive-rejection streak, tripping the
// emergency when it reaches the burst threshold.
func (s *Supervisor) RecordRejection() {
	s.mu.Lock()
	s.rejectStreak++
	trip := s.rejectStreak >= s.rejectBurst && !s.triggered
	s.mu.Unlock()

	if trip {
		s.Trigger("consecutive rejection burst")
	}
}

// RecordApproval resets the rejection streak.
func (s *Supervisor) RecordApproval() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectStreak = 0
}
