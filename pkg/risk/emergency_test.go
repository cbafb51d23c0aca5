package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupervisorLatchesUntilReset(t *testing.T) {
	s := NewSupervisor(5, nil)
	assert.True(t, s.CanTrade())
	assert.Equal(t, StateNormal, s.State())

	s.Trigger("test trigger")
	assert.False(t, s.CanTrade())
	assert.Equal(t, StateTriggered, s.State())
	assert.Equal(t, "test trigger", s.Reason())

	// Repeated triggers do not overwrite the first reason.
	s.Trigger("second")
	assert.Equal(t, "test trigger", s.Reason())

	s.Reset()
	assert.True(t, s.CanTrade())
	assert.Equal(t, StateNormal, s.State())
}

func TestManualHaltIndependentOfTrigger(t *testing.T) {
	s := NewSupervisor(5, nil)

	s.ManualHalt()
	assert.False(t, s.CanTrade())
	assert.Equal(t, StateHalted, s.State())

	s.Trigger("loss breach")
	s.ManualResume()
	// Resume lifts the halt but the automatic latch still blocks.
	assert.False(t, s.CanTrade())
	assert.Equal(t, StateTriggered, s.State())

	s.Reset()
	assert.True(t, s.CanTrade())
}

func TestRejectStreakTripsAtBurst(t *testing.T) {
	var fired string
	s := NewSupervisor(3, func(reason string) { fired = reason })

	s.RecordRejection()
	s.RecordRejection()
	assert.True(t, s.CanTrade())

	s.RecordRejection()
	assert.False(t, s.CanTrade())
	assert.NotEmpty(t, fired)
}

func TestApprovalResetsStreak(t *testing.T) {
	s := NewSupervisor(3, nil)
	s.RecordRejection()
	s.RecordRejection()
	s.RecordApproval()
	s.RecordRejection()
	s.RecordRejection()
	assert.True(t, s.CanTrade())
}
