package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ayusman/vigil/internal/capture"
	"github.com/ayusman/vigil/internal/display"
	"github.com/ayusman/vigil/internal/event"
	"github.com/ayusman/vigil/internal/monitor"
)

// loop is the single-threaded frame loop. Each iteration runs to completion:
//
// 1. Stop if ctx is cancelled
// 2. Read a frame; stop at end of stream
// 3. Apply a pending pause or resume
// 4. Step the session and publish alarm transitions (skipped while paused)
// 5. Annotate and render the frame
// 6. Stop if the display asked to exit
func (a *App) loop(ctx context.Context) error {
	active := a.IsEnabled()

	for {
		if ctx.Err() != nil {
			a.log.Info().Msg("monitor cancelled")
			return nil
		}

		frame, err := a.camera.ReadFrame()
		if errors.Is(err, capture.ErrEndOfStream) {
			a.log.Info().Msg("frame source exhausted")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		if enabled := a.IsEnabled(); enabled != active {
			a.applyEnabled(enabled)
			active = enabled
		}

		ov := display.Overlay{Paused: !active}
		if active {
			res := a.session.Step(frame)
			frameNo := a.recordFrame(res)
			a.publishTransition(res, frameNo)

			ov.Text = res.StatusText()
			ov.Alarming = res.Alarming
			ov.Detections = res.Detections
		}

		display.Annotate(frame, ov)
		if err := a.sink.Render(frame, ov); err != nil {
			a.log.Warn().Err(err).Msg("render failed")
		}
		frame.Close()

		if a.sink.ExitRequested() {
			a.log.Info().Msg("exit requested")
			return nil
		}
	}
}

// applyEnabled reacts to a pause or resume requested from another goroutine.
func (a *App) applyEnabled(enabled bool) {
	if enabled {
		a.publish(event.Event{Type: event.MonitorResumed, Frame: a.frameCount()})
		return
	}
	a.silence()
	a.publish(event.Event{Type: event.MonitorPaused, Frame: a.frameCount()})
}

// recordFrame counts the frame and refreshes the status snapshot. It
// returns the 1-based frame number.
func (a *App) recordFrame(res monitor.Result) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.frames++
	a.status.Apply(res, a.frames)
	return a.frames
}

func (a *App) publishTransition(res monitor.Result, frameNo int) {
	var typ event.Type
	switch res.Transition() {
	case monitor.TransitionStart:
		typ = event.AlarmStart
	case monitor.TransitionStop:
		typ = event.AlarmStop
	default:
		return
	}

	a.publish(event.Event{
		Type:          typ,
		Cause:         res.Cause(),
		ObjectPresent: res.ObjectPresent,
		EyesClosed:    res.EyesClosed,
		EAR:           res.EAR,
		ClosedFrames:  res.ClosedFrames,
		Frame:         frameNo,
	})
}

func newSessionID() string {
	return uuid.NewString()
}
