// Package app wires the capture device, the monitor session, the display
// sinks and the event listeners into the running driver safety monitor.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/vigil/internal/capture"
	"github.com/ayusman/vigil/internal/display"
	"github.com/ayusman/vigil/internal/event"
	"github.com/ayusman/vigil/internal/monitor"
	"github.com/ayusman/vigil/internal/store"
)

// Config holds configuration options for the application.
type Config struct {
	// Source is recorded with the session, e.g. the camera index or file path.
	Source string
	// Store persists sessions, alarm events and the paused flag. Optional.
	Store *store.Store
	// QueueSize is the event dispatcher buffer length.
	QueueSize int
}

// App runs the per-frame monitor loop and publishes its state.
type App struct {
	config  Config
	camera  capture.Camera
	session *monitor.Session
	sink    display.Sink
	events  *event.Dispatcher
	log     zerolog.Logger

	mu        sync.RWMutex
	enabled   bool
	status    monitor.Status
	sessionID string
	frames    int
}

// New creates an App. A nil sink renders nothing but logs status changes.
func New(config Config, camera capture.Camera, session *monitor.Session, sink display.Sink, log zerolog.Logger) *App {
	log = log.With().Str("component", "app").Logger()
	if sink == nil {
		sink = display.NewHeadless(log)
	}

	a := &App{
		config:  config,
		camera:  camera,
		session: session,
		sink:    sink,
		events:  event.NewDispatcher(config.QueueSize, log),
		log:     log,
		enabled: true,
	}

	if config.Store != nil {
		a.enabled = config.Store.Settings().GetBool(store.SettingMonitorEnabled, true)
		a.events.Subscribe(NewStoreRecorder(config.Store, log))
	}
	a.status = monitor.Status{
		Source:  config.Source,
		Enabled: a.enabled,
	}

	return a
}

// Subscribe adds a listener for monitor events.
func (a *App) Subscribe(l event.Listener) {
	a.events.Subscribe(l)
}

// SetEnabled pauses or resumes perception. The loop applies the change on
// its next frame: pausing resets the session and silences the alarm.
func (a *App) SetEnabled(enabled bool) error {
	a.mu.Lock()
	if a.enabled == enabled {
		a.mu.Unlock()
		return nil
	}
	a.enabled = enabled
	a.status.Enabled = enabled
	a.mu.Unlock()

	a.log.Info().Bool("enabled", enabled).Msg("monitor state changed")

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingMonitorEnabled, enabled); err != nil {
			return fmt.Errorf("persist monitor state: %w", err)
		}
	}
	return nil
}

// IsEnabled returns whether perception is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Status returns a snapshot of the monitor state.
func (a *App) Status() monitor.Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// SessionID returns the ID of the current or last session.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// Run opens the camera and processes frames until the source is exhausted,
// the display asks to exit, or ctx is cancelled. It returns an error only
// when the camera cannot be opened or fails mid-stream.
func (a *App) Run(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			a.log.Warn().Err(err).Msg("error closing camera")
		}
	}()

	a.beginSession()
	err := a.loop(ctx)
	a.endSession()

	return err
}

// Close flushes pending events to the listeners and closes the sink.
func (a *App) Close() error {
	a.events.Close()
	return a.sink.Close()
}

func (a *App) beginSession() {
	sess := &store.Session{Source: a.config.Source, StartedAt: time.Now()}
	if a.config.Store != nil {
		if err := a.config.Store.Sessions().Create(sess); err != nil {
			a.log.Error().Err(err).Msg("failed to record session")
		}
	}
	if sess.ID == "" {
		sess.ID = newSessionID()
	}

	a.mu.Lock()
	a.sessionID = sess.ID
	a.frames = 0
	a.status.SessionID = sess.ID
	a.mu.Unlock()

	a.log.Info().Str("session", sess.ID).Str("source", a.config.Source).Msg("session started")
	a.publish(event.Event{Type: event.SessionStarted})
}

func (a *App) endSession() {
	if a.session.Alarming() {
		a.silence()
	}

	frames := a.frameCount()
	if a.config.Store != nil {
		if err := a.config.Store.Sessions().Finish(a.SessionID(), frames, time.Now()); err != nil {
			a.log.Error().Err(err).Msg("failed to finish session")
		}
	}

	a.log.Info().Str("session", a.SessionID()).Int("frames", frames).Msg("session ended")
	a.publish(event.Event{Type: event.SessionEnded, Frame: frames})
}

// silence resets the session and reports the alarm stop it caused.
func (a *App) silence() {
	wasAlarming := a.session.Alarming()
	a.session.Reset()
	if wasAlarming {
		a.publish(event.Event{Type: event.AlarmStop, Frame: a.frameCount()})
	}

	a.mu.Lock()
	a.status.Alarming = false
	a.status.Cause = monitor.CauseNone
	a.status.ClosedFrames = 0
	a.mu.Unlock()
}

func (a *App) frameCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frames
}

// publish stamps e with the current session and queues it.
func (a *App) publish(e event.Event) {
	e.SessionID = a.SessionID()
	a.events.Publish(e)
}
