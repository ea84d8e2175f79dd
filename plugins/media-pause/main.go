// Package main provides an alarm hook that pauses media playback while the
// driver is alerted and resumes it when the alarm stops.
// It uses playerctl on Linux and AppleScript on macOS.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Request represents the input from the hook executor.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	Cause     string          `json:"cause,omitempty"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// hookConfig is the "config" block of hook.json.
type hookConfig struct {
	// Player restricts playerctl to one player, e.g. "spotify".
	Player string `json:"player"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var cfg hookConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	var err error
	switch req.Event {
	case "alarm_start":
		err = pause(cfg)
	case "alarm_stop":
		err = resume(cfg)
	default:
		writeErrorResponse(fmt.Sprintf("unknown event: %s", req.Event))
		return
	}
	if err != nil {
		writeErrorResponse(fmt.Sprintf("%s failed: %v", req.Event, err))
		return
	}

	data, _ := json.Marshal(map[string]string{"event": req.Event, "cause": req.Cause})
	writeSuccessResponse(data)
}

func pause(cfg hookConfig) error {
	if runtime.GOOS == "darwin" {
		return runAppleScript(`tell application "Music" to pause`)
	}
	return runPlayerctl(cfg, "pause")
}

func resume(cfg hookConfig) error {
	if runtime.GOOS == "darwin" {
		return runAppleScript(`tell application "Music" to play`)
	}
	return runPlayerctl(cfg, "play")
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(data json.RawMessage) {
	resp := Response{
		Success: true,
		Data:    data,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func runPlayerctl(cfg hookConfig, action string) error {
	args := []string{action}
	if cfg.Player != "" {
		args = []string{"--player", cfg.Player, action}
	}
	output, err := exec.Command("playerctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
