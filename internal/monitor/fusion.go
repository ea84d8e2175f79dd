package monitor

import (
	"fmt"

	"github.com/ayusman/vigil/internal/alarm"
)

// Transition is the side effect produced by one fusion evaluation.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionStart
	TransitionStop
)

func (t Transition) String() string {
	switch t {
	case TransitionStart:
		return "start"
	case TransitionStop:
		return "stop"
	default:
		return "none"
	}
}

// Fusion owns the alarm flag and drives the actuator on edges only.
type Fusion struct {
	actuator alarm.Actuator
	alarming bool
}

// NewFusion creates a silent Fusion driving act.
func NewFusion(act alarm.Actuator) *Fusion {
	return &Fusion{actuator: act}
}

// Evaluate combines the two per-frame signals. The actuator is started or
// stopped only when the combined trigger differs from the current state.
// Actuator errors are returned, but the state still follows the trigger.
func (f *Fusion) Evaluate(objectPresent, eyesClosed bool) (Transition, error) {
	trigger := objectPresent || eyesClosed

	switch {
	case trigger && !f.alarming:
		f.alarming = true
		if err := f.actuator.Start(); err != nil {
			return TransitionStart, fmt.Errorf("start alarm: %w", err)
		}
		return TransitionStart, nil

	case !trigger && f.alarming:
		f.alarming = false
		if err := f.actuator.Stop(); err != nil {
			return TransitionStop, fmt.Errorf("stop alarm: %w", err)
		}
		return TransitionStop, nil
	}

	return TransitionNone, nil
}

// Alarming reports the current alarm state.
func (f *Fusion) Alarming() bool {
	return f.alarming
}

// Reset returns to the silent state, stopping the actuator if it was sounding.
func (f *Fusion) Reset() error {
	if !f.alarming {
		return nil
	}
	f.alarming = false
	if err := f.actuator.Stop(); err != nil {
		return fmt.Errorf("stop alarm: %w", err)
	}
	return nil
}
