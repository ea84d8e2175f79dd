package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	validSelections = []string{"first", "largest", "confident"}
	validBackends   = []string{"malgo", "pulse", "log"}
	validFormats    = []string{"console", "json"}
)

// Validate checks the configuration and fills in derived defaults.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Camera.Source) == "" {
		errs = append(errs, errors.New("camera.source is required"))
	}
	if cfg.Camera.FPS < 0 || cfg.Camera.Width < 0 || cfg.Camera.Height < 0 {
		errs = append(errs, errors.New("camera dimensions and fps must not be negative"))
	}

	if cfg.Monitor.EARThreshold <= 0 || cfg.Monitor.EARThreshold >= 1 {
		errs = append(errs, fmt.Errorf("monitor.ear_threshold must be in (0, 1), got %v", cfg.Monitor.EARThreshold))
	}
	if cfg.Monitor.EyeCloseFrames < 1 {
		errs = append(errs, fmt.Errorf("monitor.eye_close_frames must be at least 1, got %d", cfg.Monitor.EyeCloseFrames))
	}
	if len(cfg.Monitor.TargetLabels) == 0 {
		errs = append(errs, errors.New("monitor.target_labels must name at least one label"))
	}
	if cfg.Monitor.FaceSelection == "" {
		cfg.Monitor.FaceSelection = "first"
	}
	if !oneOf(cfg.Monitor.FaceSelection, validSelections) {
		errs = append(errs, fmt.Errorf("monitor.face_selection must be one of %v", validSelections))
	}

	if cfg.Face.MaxFaces < 1 {
		cfg.Face.MaxFaces = 1
	}
	// A selection strategy needs more than one candidate to choose from.
	if cfg.Monitor.FaceSelection != "first" && cfg.Face.MaxFaces < 2 {
		cfg.Face.MaxFaces = 2
	}
	if cfg.Face.MinConfidence < 0 || cfg.Face.MinConfidence > 1 {
		errs = append(errs, errors.New("face.min_confidence must be in [0, 1]"))
	}

	if cfg.Object.InputSize <= 0 || cfg.Object.InputSize%32 != 0 {
		errs = append(errs, fmt.Errorf("object.input_size must be a positive multiple of 32, got %d", cfg.Object.InputSize))
	}
	if cfg.Object.Confidence <= 0 || cfg.Object.Confidence > 1 {
		errs = append(errs, errors.New("object.confidence must be in (0, 1]"))
	}
	if cfg.Object.NMS <= 0 || cfg.Object.NMS > 1 {
		errs = append(errs, errors.New("object.nms must be in (0, 1]"))
	}

	if !oneOf(cfg.Alarm.Backend, validBackends) {
		errs = append(errs, fmt.Errorf("alarm.backend must be one of %v", validBackends))
	}
	if cfg.Alarm.Volume < 0 || cfg.Alarm.Volume > 1 {
		errs = append(errs, errors.New("alarm.volume must be in [0, 1]"))
	}

	if cfg.Display.Title == "" {
		cfg.Display.Title = "Driver Safety Monitor"
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS))
		}
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = "vigil"
		}
		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = "vigil"
		}
	}

	if cfg.Hooks.TimeoutMs <= 0 {
		cfg.Hooks.TimeoutMs = 5000
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if !oneOf(cfg.Log.Format, validFormats) {
		errs = append(errs, fmt.Errorf("log.format must be one of %v", validFormats))
	}

	return errors.Join(errs...)
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
