package app

import (
	"github.com/rs/zerolog"

	"github.com/ayusman/vigil/internal/event"
	"github.com/ayusman/vigil/internal/store"
)

// StoreRecorder persists alarm transitions as alarm_events rows.
type StoreRecorder struct {
	store *store.Store
	log   zerolog.Logger
}

// NewStoreRecorder creates a StoreRecorder.
func NewStoreRecorder(s *store.Store, log zerolog.Logger) *StoreRecorder {
	return &StoreRecorder{store: s, log: log}
}

// HandleEvent records alarm_start and alarm_stop events; others are ignored.
func (r *StoreRecorder) HandleEvent(e event.Event) {
	var kind string
	switch e.Type {
	case event.AlarmStart:
		kind = store.KindStart
	case event.AlarmStop:
		kind = store.KindStop
	default:
		return
	}

	err := r.store.Events().Create(&store.AlarmEvent{
		SessionID:    e.SessionID,
		Kind:         kind,
		Cause:        e.Cause,
		EAR:          e.EAR,
		ClosedFrames: e.ClosedFrames,
		Frame:        e.Frame,
		CreatedAt:    e.Timestamp,
	})
	if err != nil {
		r.log.Error().Err(err).Str("session", e.SessionID).Str("kind", kind).Msg("failed to record alarm event")
	}
}
