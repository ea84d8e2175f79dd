// Package alarm provides the audible alert actuators driven by the alarm state machine.
package alarm

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Actuator starts and stops the alert. Implementations must tolerate Start
// while already sounding and Stop while already silent.
type Actuator interface {
	Start() error
	Stop() error
	Close() error
}

// Backend names accepted by New.
const (
	BackendMalgo = "malgo"
	BackendPulse = "pulse"
	BackendLog   = "log"
)

// Config holds alarm actuator options.
type Config struct {
	Backend   string
	SoundFile string
	Frequency float64
	Volume    float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendMalgo,
		Frequency: DefaultFrequency,
		Volume:    DefaultVolume,
	}
}

// New builds the actuator selected by cfg.Backend. The alert sound is
// decoded from cfg.SoundFile when set, otherwise a tone is synthesized.
func New(cfg Config, log zerolog.Logger) (Actuator, error) {
	log = log.With().Str("component", "alarm").Logger()

	if cfg.Backend == BackendLog {
		return NewLogActuator(log), nil
	}

	sound, err := loadSound(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "", BackendMalgo:
		return NewPlayer(sound, log)
	case BackendPulse:
		return NewPulsePlayer(sound, log)
	default:
		return nil, fmt.Errorf("unknown alarm backend %q", cfg.Backend)
	}
}

func loadSound(cfg Config) (*Sound, error) {
	if cfg.SoundFile != "" {
		return LoadFLAC(cfg.SoundFile)
	}

	freq := cfg.Frequency
	if freq <= 0 {
		freq = DefaultFrequency
	}
	volume := cfg.Volume
	if volume <= 0 || volume > 1 {
		volume = DefaultVolume
	}
	return AlertTone(freq, volume), nil
}

// LogActuator only logs transitions. It is used when no audio device is wanted.
type LogActuator struct {
	log      zerolog.Logger
	mu       sync.Mutex
	sounding bool
}

// NewLogActuator creates a LogActuator writing to log.
func NewLogActuator(log zerolog.Logger) *LogActuator {
	return &LogActuator{log: log}
}

// Start logs the alert start.
func (a *LogActuator) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.sounding {
		a.sounding = true
		a.log.Warn().Msg("ALERT: buzzing")
	}
	return nil
}

// Stop logs the alert stop.
func (a *LogActuator) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sounding {
		a.sounding = false
		a.log.Info().Msg("alert silenced")
	}
	return nil
}

// Close is a no-op.
func (a *LogActuator) Close() error {
	return nil
}

// Recorder is a test actuator that counts calls.
type Recorder struct {
	mu     sync.Mutex
	calls  []string
	starts int
	stops  int
	err    error
}

// NewRecorder creates a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetError makes subsequent Start and Stop calls fail with err.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Start records a start call.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	r.calls = append(r.calls, "start")
	return r.err
}

// Stop records a stop call.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	r.calls = append(r.calls, "stop")
	return r.err
}

// Close is a no-op.
func (r *Recorder) Close() error {
	return nil
}

// Starts returns the number of Start calls.
func (r *Recorder) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

// Stops returns the number of Stop calls.
func (r *Recorder) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

// Calls returns the recorded call sequence.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset clears all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.starts = 0
	r.stops = 0
}
