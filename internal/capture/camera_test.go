package capture

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantFPS int
	}{
		{
			name:    "zero config takes defaults",
			config:  Config{},
			wantFPS: DefaultFPS,
		},
		{
			name:    "device 1",
			config:  Config{Source: "1"},
			wantFPS: DefaultFPS,
		},
		{
			name:    "video file at 15 fps",
			config:  Config{Source: "drive.mp4", FPS: 15},
			wantFPS: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.config)

			if cam == nil {
				t.Fatal("NewCamera returned nil")
			}

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}

			// Camera should not be running initially
			if cam.IsOpen() {
				t.Error("camera should not be running initially")
			}
		})
	}
}

func TestDeviceID(t *testing.T) {
	tests := []struct {
		source string
		wantID int
		wantOK bool
	}{
		{source: "0", wantID: 0, wantOK: true},
		{source: " 2 ", wantID: 2, wantOK: true},
		{source: "-1", wantOK: false},
		{source: "video.mp4", wantOK: false},
		{source: "rtsp://192.168.1.10/stream", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			id, ok := DeviceID(tt.source)
			if ok != tt.wantOK || (ok && id != tt.wantID) {
				t.Errorf("DeviceID(%q) = %d, %v; want %d, %v", tt.source, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(Config{FPS: 1})

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{
			name:    "set to 10",
			fps:     10,
			wantFPS: 10,
		},
		{
			name:    "set to 30",
			fps:     30,
			wantFPS: 30,
		},
		{
			name:    "set to 0 should keep previous",
			fps:     0,
			wantFPS: 30, // Previous value
		},
		{
			name:    "set to negative should keep previous",
			fps:     -5,
			wantFPS: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)

			got := cam.FPS()
			if got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(DefaultConfig())

	err := cam.Open()
	if err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		if mat.Empty() {
			t.Error("ReadFrame() returned empty mat")
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}

func TestCamera_Open_MissingFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV-backed test in short mode")
	}

	cam := NewCamera(Config{Source: filepath.Join(t.TempDir(), "missing.mp4")})
	if err := cam.Open(); err == nil {
		cam.Close()
		t.Error("Open() should fail for a missing video file")
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	_, err := cam.ReadFrame()
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	// Close on not opened camera should not panic and return nil
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on not opened camera should return nil, got: %v", err)
	}
}
