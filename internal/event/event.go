// Package event fans monitor transitions out to slow consumers (storage,
// MQTT, hooks, websocket clients) without blocking the frame loop.
package event

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Type identifies an event.
type Type string

const (
	AlarmStart     Type = "alarm_start"
	AlarmStop      Type = "alarm_stop"
	MonitorPaused  Type = "monitor_paused"
	MonitorResumed Type = "monitor_resumed"
	SessionStarted Type = "session_started"
	SessionEnded   Type = "session_ended"
)

// DefaultQueueSize is the dispatcher buffer length.
const DefaultQueueSize = 64

// Event is a single monitor occurrence.
type Event struct {
	Type          Type      `json:"type"`
	SessionID     string    `json:"session_id"`
	Cause         string    `json:"cause,omitempty"`
	ObjectPresent bool      `json:"object_present"`
	EyesClosed    bool      `json:"eyes_closed"`
	EAR           float64   `json:"ear"`
	ClosedFrames  int       `json:"closed_frames"`
	Frame         int       `json:"frame"`
	Timestamp     time.Time `json:"timestamp"`
}

// Listener receives dispatched events on a goroutine dedicated to it.
type Listener interface {
	HandleEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// HandleEvent calls f(e).
func (f ListenerFunc) HandleEvent(e Event) {
	f(e)
}

// Critical reports whether t must reach every listener. Alarm transitions
// are never dropped; other events are dropped for a listener whose queue is
// full.
func (t Type) Critical() bool {
	return t == AlarmStart || t == AlarmStop
}

// Dispatcher delivers events to each listener from that listener's own
// goroutine, in publish order. A slow listener only delays itself. Publish
// never blocks.
type Dispatcher struct {
	size int
	log  zerolog.Logger

	mu      sync.RWMutex
	subs    []*subscriber
	closed  bool
	dropped atomic.Uint64
}

// subscriber is one listener with its pending queue. Critical events may
// grow pending past the dispatcher size.
type subscriber struct {
	listener Listener
	wake     chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	pending []Event
	closed  bool
}

// NewDispatcher creates a dispatcher whose listeners buffer up to size
// non-critical events each.
func NewDispatcher(size int, log zerolog.Logger) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		size: size,
		log:  log.With().Str("component", "events").Logger(),
	}
}

// Subscribe adds a listener. Listeners added after events were published
// only see later events.
func (d *Dispatcher) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	s := &subscriber{
		listener: l,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	d.subs = append(d.subs, s)
	go d.run(s)
}

// Publish queues e for every listener. It returns false if any listener
// dropped the event, or if the dispatcher is closed.
func (d *Dispatcher) Publish(e Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	ok := true
	for _, s := range d.subs {
		if !s.push(e, d.size) {
			ok = false
			d.dropped.Add(1)
			d.log.Warn().Str("type", string(e.Type)).Msg("listener queue full, dropping event")
		}
	}
	return ok
}

// Dropped returns the number of per-listener deliveries discarded because a
// queue was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func (s *subscriber) push(e Event, limit int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !e.Type.Critical() && len(s.pending) >= limit {
		return false
	}
	s.pending = append(s.pending, e)

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (d *Dispatcher) run(s *subscriber) {
	defer close(s.done)

	for {
		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		closed := s.closed
		s.mu.Unlock()

		for _, e := range batch {
			d.deliver(s.listener, e)
		}

		if len(batch) == 0 {
			if closed {
				return
			}
			<-s.wake
		}
	}
}

func (d *Dispatcher) deliver(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("type", string(e.Type)).Msg("event listener panicked")
		}
	}()
	l.HandleEvent(e)
}

// Close stops accepting events and waits until every listener has handled
// its queued events.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	subs := d.subs
	d.mu.Unlock()

	for _, s := range subs {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	for _, s := range subs {
		<-s.done
	}
}
