package display

import (
	"gocv.io/x/gocv"

	"github.com/rs/zerolog"
)

// Headless discards frames and logs the overlay text whenever it changes.
type Headless struct {
	log  zerolog.Logger
	last string
}

// NewHeadless creates a Headless sink.
func NewHeadless(log zerolog.Logger) *Headless {
	return &Headless{log: log.With().Str("component", "display").Logger()}
}

// Render logs the status line if it differs from the previous frame.
func (h *Headless) Render(_ *gocv.Mat, ov Overlay) error {
	if ov.Text != h.last {
		h.last = ov.Text
		h.log.Debug().Bool("alarming", ov.Alarming).Msg(ov.Text)
	}
	return nil
}

// ExitRequested always returns false.
func (h *Headless) ExitRequested() bool {
	return false
}

// Close is a no-op.
func (h *Headless) Close() error {
	return nil
}
