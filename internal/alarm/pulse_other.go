//go:build !linux

package alarm

import (
	"errors"

	"github.com/rs/zerolog"
)

// NewPulsePlayer is only available on Linux.
func NewPulsePlayer(_ *Sound, _ zerolog.Logger) (Actuator, error) {
	return nil, errors.New("pulse backend is only supported on linux")
}
