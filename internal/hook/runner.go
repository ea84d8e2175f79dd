package hook

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ayusman/vigil/internal/event"
)

// Runner executes subscribed hooks for each monitor event. It implements
// event.Listener; the dispatcher gives it its own goroutine, so a slow hook
// never delays the other listeners.
type Runner struct {
	manager  *Manager
	executor *Executor
	log      zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(manager *Manager, executor *Executor, log zerolog.Logger) *Runner {
	return &Runner{
		manager:  manager,
		executor: executor,
		log:      log.With().Str("component", "hooks").Logger(),
	}
}

// HandleEvent runs every hook subscribed to e.Type, one after another.
func (r *Runner) HandleEvent(e event.Event) {
	hooks := r.manager.ForEvent(string(e.Type))
	if len(hooks) == 0 {
		return
	}

	for _, h := range hooks {
		req := &Request{
			Event:        string(e.Type),
			SessionID:    e.SessionID,
			Cause:        e.Cause,
			EAR:          e.EAR,
			ClosedFrames: e.ClosedFrames,
			Timestamp:    e.Timestamp,
		}

		resp, err := r.executor.Execute(context.Background(), h, req)
		switch {
		case err != nil:
			r.log.Warn().Err(err).Str("hook", h.Manifest.Name).Msg("hook failed")
		case !resp.Success:
			r.log.Warn().Str("hook", h.Manifest.Name).Str("error", resp.Error).Msg("hook reported failure")
		default:
			r.log.Debug().Str("hook", h.Manifest.Name).Str("event", string(e.Type)).Msg("hook executed")
		}
	}
}
