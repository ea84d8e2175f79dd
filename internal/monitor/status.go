package monitor

import "time"

// Status is a point-in-time snapshot of a running monitor, shared with the
// HTTP API, the websocket hub and the tray.
type Status struct {
	SessionID    string    `json:"session_id"`
	Source       string    `json:"source"`
	Enabled      bool      `json:"enabled"`
	Alarming     bool      `json:"alarming"`
	Cause        string    `json:"cause,omitempty"`
	FacePresent  bool      `json:"face_present"`
	EAR          float64   `json:"ear"`
	ClosedFrames int       `json:"closed_frames"`
	Frames       int       `json:"frames"`
	Text         string    `json:"text"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Apply copies the per-frame fields of r into s.
func (s *Status) Apply(r Result, frames int) {
	s.Alarming = r.Alarming
	s.Cause = r.Cause()
	s.FacePresent = r.FacePresent
	s.EAR = r.EAR
	s.ClosedFrames = r.ClosedFrames
	s.Frames = frames
	s.Text = r.StatusText()
	s.UpdatedAt = time.Now()
}
