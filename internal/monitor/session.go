// Package monitor holds the driver-attention core: the eye-closure
// debouncer, the distraction-object classifier, the alarm fusion state
// machine, and the Session that sequences them for each frame.
package monitor

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ayusman/vigil/internal/alarm"
	"github.com/ayusman/vigil/internal/detector"
)

const (
	// DefaultEARThreshold is the eye-aspect ratio below which an eye counts as closed.
	DefaultEARThreshold = 0.25
	// DefaultEyeCloseFrames is the closed streak needed to report closure (about 0.5s at 30fps).
	DefaultEyeCloseFrames = 15
	// DefaultObjectName is the overlay name for the distraction object.
	DefaultObjectName = "Phone"
)

// Cause labels which signal started an alarm.
const (
	CauseNone   = ""
	CauseObject = "phone"
	CauseEyes   = "eyes"
	CauseBoth   = "both"
)

// Config holds Session parameters.
type Config struct {
	EARThreshold   float64
	EyeCloseFrames int
	TargetLabels   []string
	ObjectName     string
	Selector       detector.Selector
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		EARThreshold:   DefaultEARThreshold,
		EyeCloseFrames: DefaultEyeCloseFrames,
		TargetLabels:   []string{DefaultTarget},
		ObjectName:     DefaultObjectName,
		Selector:       detector.SelectFirst,
	}
}

// Result is the outcome of one Step.
type Result struct {
	ObjectPresent bool
	EyesClosed    bool
	// AlarmChanged is nil when the alarm state did not change, otherwise it
	// points to the new state.
	AlarmChanged *bool

	Alarming     bool
	FacePresent  bool
	EAR          float64
	ClosedFrames int
	Detections   []detector.Detection

	objectName string
}

// Transition maps AlarmChanged to a Transition.
func (r Result) Transition() Transition {
	switch {
	case r.AlarmChanged == nil:
		return TransitionNone
	case *r.AlarmChanged:
		return TransitionStart
	default:
		return TransitionStop
	}
}

// Cause names the signal(s) that held this frame.
func (r Result) Cause() string {
	switch {
	case r.ObjectPresent && r.EyesClosed:
		return CauseBoth
	case r.ObjectPresent:
		return CauseObject
	case r.EyesClosed:
		return CauseEyes
	default:
		return CauseNone
	}
}

// StatusText renders the overlay line, e.g. "Phone: Yes | Eyes Closed: No".
func (r Result) StatusText() string {
	name := r.objectName
	if name == "" {
		name = DefaultObjectName
	}
	return fmt.Sprintf("%s: %s | Eyes Closed: %s", name, yesNo(r.ObjectPresent), yesNo(r.EyesClosed))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Session owns the cross-frame state (the closure streak and the alarm flag)
// and the perception collaborators. It is not safe for concurrent use.
type Session struct {
	config     Config
	faces      detector.FaceDetector
	objects    detector.ObjectDetector
	debouncer  *Debouncer
	classifier *PresenceClassifier
	fusion     *Fusion
	log        zerolog.Logger
	frames     int
}

// NewSession creates a Session with zeroed state.
func NewSession(config Config, faces detector.FaceDetector, objects detector.ObjectDetector, act alarm.Actuator, log zerolog.Logger) *Session {
	defaults := DefaultConfig()
	if config.EARThreshold <= 0 {
		config.EARThreshold = defaults.EARThreshold
	}
	if config.EyeCloseFrames <= 0 {
		config.EyeCloseFrames = defaults.EyeCloseFrames
	}
	if config.ObjectName == "" {
		config.ObjectName = defaults.ObjectName
	}
	if config.Selector == nil {
		config.Selector = defaults.Selector
	}

	return &Session{
		config:     config,
		faces:      faces,
		objects:    objects,
		debouncer:  NewDebouncer(config.EARThreshold, config.EyeCloseFrames),
		classifier: NewPresenceClassifier(config.TargetLabels...),
		fusion:     NewFusion(act),
		log:        log.With().Str("component", "monitor").Logger(),
	}
}

// Step runs both detectors on frame and evaluates the result. Detector
// failures are logged and treated as an empty result for this frame.
func (s *Session) Step(frame *gocv.Mat) Result {
	var width, height int
	if frame != nil {
		width, height = frame.Cols(), frame.Rows()
	}

	var faces []detector.FaceLandmarks
	if s.faces != nil {
		found, err := s.faces.Detect(frame)
		if err != nil {
			s.log.Warn().Err(err).Msg("face landmark detection failed")
		} else {
			faces = found
		}
	}

	var dets []detector.Detection
	if s.objects != nil {
		found, err := s.objects.Detect(frame)
		if err != nil {
			s.log.Warn().Err(err).Msg("object detection failed")
		} else {
			dets = found
		}
	}

	return s.Evaluate(faces, dets, width, height)
}

// Evaluate advances the session with one frame's perception output.
// width and height are the frame dimensions used to scale landmarks.
func (s *Session) Evaluate(faces []detector.FaceLandmarks, dets []detector.Detection, width, height int) Result {
	s.frames++

	res := Result{
		Detections: dets,
		objectName: s.config.ObjectName,
	}
	res.ObjectPresent = s.classifier.Present(dets)

	if face := s.config.Selector(faces); face != nil {
		ear, err := face.AverageEAR(width, height)
		switch {
		case err == nil:
			res.FacePresent = true
			res.EAR = ear
		case errors.Is(err, detector.ErrDegenerateGeometry):
			s.log.Debug().Int("frame", s.frames).Msg("degenerate eye geometry, treating face as absent")
		default:
			s.log.Warn().Err(err).Msg("invalid face landmarks")
		}
	}

	res.EyesClosed = s.debouncer.Update(res.EAR, res.FacePresent)
	res.ClosedFrames = s.debouncer.Counter()

	transition, err := s.fusion.Evaluate(res.ObjectPresent, res.EyesClosed)
	if err != nil {
		s.log.Error().Err(err).Msg("alarm actuator failed")
	}
	switch transition {
	case TransitionStart:
		on := true
		res.AlarmChanged = &on
		s.log.Warn().
			Str("cause", res.Cause()).
			Float64("ear", res.EAR).
			Int("closed_frames", res.ClosedFrames).
			Msg("alarm started")
	case TransitionStop:
		off := false
		res.AlarmChanged = &off
		s.log.Info().Msg("alarm stopped")
	}
	res.Alarming = s.fusion.Alarming()

	return res
}

// Reset clears the closure streak and the alarm flag, silencing the
// actuator if it was sounding.
func (s *Session) Reset() {
	s.debouncer.Reset()
	if err := s.fusion.Reset(); err != nil {
		s.log.Error().Err(err).Msg("alarm actuator failed on reset")
	}
	s.frames = 0
}

// Alarming reports the current alarm state.
func (s *Session) Alarming() bool {
	return s.fusion.Alarming()
}

// ClosedFrames returns the current closure streak.
func (s *Session) ClosedFrames() int {
	return s.debouncer.Counter()
}

// Frames returns the number of frames evaluated since creation or the last Reset.
func (s *Session) Frames() int {
	return s.frames
}
