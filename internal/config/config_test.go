package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}

	if cfg.Monitor.EARThreshold != 0.25 || cfg.Monitor.EyeCloseFrames != 15 {
		t.Errorf("debounce defaults = %v, %d; want 0.25, 15", cfg.Monitor.EARThreshold, cfg.Monitor.EyeCloseFrames)
	}
	if !reflect.DeepEqual(cfg.Monitor.TargetLabels, []string{"cell phone"}) {
		t.Errorf("target labels = %v", cfg.Monitor.TargetLabels)
	}
	if cfg.Object.InputSize != 320 || cfg.Object.Confidence != 0.4 {
		t.Errorf("object defaults = %d, %v; want 320, 0.4", cfg.Object.InputSize, cfg.Object.Confidence)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
camera:
  source: /videos/drive.mp4
monitor:
  ear_threshold: 0.22
  eye_close_frames: 20
  target_labels: ["cell phone", "remote"]
alarm:
  backend: log
mqtt:
  broker: tcp://localhost:1883
  qos: 1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Camera.Source != "/videos/drive.mp4" {
		t.Errorf("camera.source = %q", cfg.Camera.Source)
	}
	if cfg.Monitor.EARThreshold != 0.22 || cfg.Monitor.EyeCloseFrames != 20 {
		t.Errorf("monitor = %+v", cfg.Monitor)
	}
	if len(cfg.Monitor.TargetLabels) != 2 {
		t.Errorf("target labels = %v", cfg.Monitor.TargetLabels)
	}
	if cfg.Alarm.Backend != "log" {
		t.Errorf("alarm.backend = %q", cfg.Alarm.Backend)
	}

	// Untouched sections keep their defaults.
	if cfg.Object.InputSize != 320 || cfg.Camera.FPS != 30 {
		t.Errorf("defaults lost: input size %d, fps %d", cfg.Object.InputSize, cfg.Camera.FPS)
	}
	if cfg.MQTT.ClientID != "vigil" || cfg.MQTT.QoS != 1 {
		t.Errorf("mqtt = %+v", cfg.MQTT)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "monitor: [unterminated")); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, "monitor:\n  ear_threshold: 1.5\n"))
		if err == nil || !strings.Contains(err.Error(), "ear_threshold") {
			t.Errorf("expected ear_threshold error, got %v", err)
		}
	})
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("VIGIL_EYE_CLOSE_FRAMES", "10")
	t.Setenv("VIGIL_CAMERA_SOURCE", "1")

	cfg, err := Load(writeConfig(t, "monitor:\n  eye_close_frames: 20\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Monitor.EyeCloseFrames != 10 {
		t.Errorf("eye_close_frames = %d, want 10 from env", cfg.Monitor.EyeCloseFrames)
	}
	if cfg.Camera.Source != "1" {
		t.Errorf("camera.source = %q, want 1 from env", cfg.Camera.Source)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"VIGIL_EAR_THRESHOLD": "0.2",
		"VIGIL_TARGET_LABELS": "cell phone, book ,",
		"VIGIL_HEADLESS":      "true",
		"VIGIL_LOG_LEVEL":     "debug",
		"VIGIL_SERVER_ADDR":   "  ",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Monitor.EARThreshold != 0.2 {
		t.Errorf("ear threshold = %v", cfg.Monitor.EARThreshold)
	}
	if !reflect.DeepEqual(cfg.Monitor.TargetLabels, []string{"cell phone", "book"}) {
		t.Errorf("target labels = %v", cfg.Monitor.TargetLabels)
	}
	if cfg.Display.Window {
		t.Error("VIGIL_HEADLESS=true should disable the window")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("blank override should be ignored, addr = %q", cfg.Server.Addr)
	}

	env["VIGIL_EYE_CLOSE_FRAMES"] = "many"
	if err := Default().ApplyEnv(lookup); err == nil {
		t.Error("expected error for non-numeric frame count")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "zero frames", mutate: func(c *Config) { c.Monitor.EyeCloseFrames = 0 }, wantErr: "eye_close_frames"},
		{name: "no targets", mutate: func(c *Config) { c.Monitor.TargetLabels = nil }, wantErr: "target_labels"},
		{name: "unknown selection", mutate: func(c *Config) { c.Monitor.FaceSelection = "tallest" }, wantErr: "face_selection"},
		{name: "odd input size", mutate: func(c *Config) { c.Object.InputSize = 300 }, wantErr: "input_size"},
		{name: "unknown backend", mutate: func(c *Config) { c.Alarm.Backend = "speaker" }, wantErr: "alarm.backend"},
		{name: "bad qos", mutate: func(c *Config) { c.MQTT.Broker = "tcp://x:1883"; c.MQTT.QoS = 3 }, wantErr: "qos"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "empty source", mutate: func(c *Config) { c.Camera.Source = " " }, wantErr: "camera.source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}

	t.Run("fills derived defaults", func(t *testing.T) {
		cfg := Default()
		cfg.Monitor.FaceSelection = ""
		cfg.Hooks.TimeoutMs = 0
		cfg.Display.Title = ""
		if err := Validate(cfg); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if cfg.Monitor.FaceSelection != "first" || cfg.Hooks.TimeoutMs != 5000 || cfg.Display.Title == "" {
			t.Errorf("derived defaults not filled: %+v", cfg)
		}
		if cfg.Face.MaxFaces != 1 {
			t.Errorf("max_faces = %d, want 1 for first-face selection", cfg.Face.MaxFaces)
		}
	})

	t.Run("selection strategies see several faces", func(t *testing.T) {
		for _, sel := range []string{"largest", "confident"} {
			cfg := Default()
			cfg.Monitor.FaceSelection = sel
			cfg.Face.MaxFaces = 1
			if err := Validate(cfg); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if cfg.Face.MaxFaces != 2 {
				t.Errorf("%s: max_faces = %d, want 2", sel, cfg.Face.MaxFaces)
			}
		}

		cfg := Default()
		cfg.Monitor.FaceSelection = "largest"
		cfg.Face.MaxFaces = 4
		if err := Validate(cfg); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if cfg.Face.MaxFaces != 4 {
			t.Errorf("max_faces = %d, explicit value should be kept", cfg.Face.MaxFaces)
		}
	})
}
