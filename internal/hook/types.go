// Package hook runs user-supplied executables when the alarm starts or stops.
package hook

import (
	"encoding/json"
	"time"
)

// ManifestFile is the manifest name expected in each hook directory.
const ManifestFile = "hook.json"

// Manifest describes a hook's metadata and the events it subscribes to.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is written as JSON to the hook's stdin.
type Request struct {
	Event        string          `json:"event"`
	SessionID    string          `json:"session_id"`
	Cause        string          `json:"cause,omitempty"`
	EAR          float64         `json:"ear"`
	ClosedFrames int             `json:"closed_frames"`
	Timestamp    time.Time       `json:"timestamp"`
	Config       json.RawMessage `json:"config,omitempty"`
}

// Response is read as JSON from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Subscribes reports whether the hook wants the given event.
func (h *Hook) Subscribes(event string) bool {
	for _, e := range h.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
