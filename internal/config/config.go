// Package config loads Vigil settings from defaults, a YAML file, a .env
// file and VIGIL_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VIGIL_"

// Config represents the complete Vigil configuration
type Config struct {
	Camera  CameraConfig  `yaml:"camera"`
	Monitor MonitorConfig `yaml:"monitor"`
	Face    FaceConfig    `yaml:"face"`
	Object  ObjectConfig  `yaml:"object"`
	Alarm   AlarmConfig   `yaml:"alarm"`
	Display DisplayConfig `yaml:"display"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Hooks   HooksConfig   `yaml:"hooks"`
	Log     LogConfig     `yaml:"log"`
	Tray    TrayConfig    `yaml:"tray"`
}

// CameraConfig selects the frame source
type CameraConfig struct {
	Source string `yaml:"source"` // device index, file path or stream URL
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
}

// MonitorConfig tunes the eye-closure debouncer and object classifier
type MonitorConfig struct {
	EARThreshold   float64  `yaml:"ear_threshold"`
	EyeCloseFrames int      `yaml:"eye_close_frames"`
	TargetLabels   []string `yaml:"target_labels"`
	ObjectName     string   `yaml:"object_name"` // overlay name for the target object
	FaceSelection  string   `yaml:"face_selection"` // first, largest, confident (same as first with the MediaPipe worker)
}

// FaceConfig configures the face landmark worker
type FaceConfig struct {
	WorkerScript  string  `yaml:"worker_script"`
	Python        string  `yaml:"python"`
	MaxFaces      int     `yaml:"max_faces"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// ObjectConfig configures the ONNX object detector
type ObjectConfig struct {
	ModelPath  string  `yaml:"model_path"`
	LabelsPath string  `yaml:"labels_path"`
	InputSize  int     `yaml:"input_size"`
	Confidence float64 `yaml:"confidence"`
	NMS        float64 `yaml:"nms"`
}

// AlarmConfig selects the audio backend and alert sound
type AlarmConfig struct {
	Backend   string  `yaml:"backend"` // malgo, pulse, log
	SoundFile string  `yaml:"sound_file"`
	Frequency float64 `yaml:"frequency"`
	Volume    float64 `yaml:"volume"`
}

// DisplayConfig controls the preview window
type DisplayConfig struct {
	Window bool   `yaml:"window"`
	Title  string `yaml:"title"`
}

// StoreConfig locates the session database
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig controls the HTTP API; an empty Addr disables it
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// MQTTConfig contains MQTT broker settings; an empty Broker disables publishing
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

// HooksConfig locates alarm hook executables
type HooksConfig struct {
	Dir       string `yaml:"dir"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// LogConfig controls logging output
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console, json
	File   string `yaml:"file"`
}

// TrayConfig enables the system tray menu
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DataDir returns the per-user data directory (~/.vigil).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vigil"
	}
	return filepath.Join(home, ".vigil")
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := DataDir()
	return &Config{
		Camera: CameraConfig{
			Source: "0",
			Width:  640,
			Height: 480,
			FPS:    30,
		},
		Monitor: MonitorConfig{
			EARThreshold:   0.25,
			EyeCloseFrames: 15,
			TargetLabels:   []string{"cell phone"},
			ObjectName:     "Phone",
			FaceSelection:  "first",
		},
		Face: FaceConfig{
			MaxFaces:      1,
			MinConfidence: 0.5,
		},
		Object: ObjectConfig{
			ModelPath:  filepath.Join(dir, "models", "yolov8n.onnx"),
			InputSize:  320,
			Confidence: 0.4,
			NMS:        0.45,
		},
		Alarm: AlarmConfig{
			Backend:   "malgo",
			Frequency: 880,
			Volume:    0.6,
		},
		Display: DisplayConfig{
			Window: true,
			Title:  "Driver Safety Monitor",
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "vigil.db"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		MQTT: MQTTConfig{
			ClientID:    "vigil",
			TopicPrefix: "vigil",
		},
		Hooks: HooksConfig{
			Dir:       filepath.Join(dir, "hooks"),
			TimeoutMs: 5000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded into the environment first (existing variables win), then the YAML
// file at path is applied over the defaults, then VIGIL_* variables.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from VIGIL_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	strs := map[string]*string{
		"CAMERA_SOURCE":  &c.Camera.Source,
		"FACE_SELECTION": &c.Monitor.FaceSelection,
		"FACE_WORKER":    &c.Face.WorkerScript,
		"PYTHON":         &c.Face.Python,
		"OBJECT_MODEL":   &c.Object.ModelPath,
		"ALARM_BACKEND":  &c.Alarm.Backend,
		"ALARM_SOUND":    &c.Alarm.SoundFile,
		"STORE_PATH":     &c.Store.Path,
		"SERVER_ADDR":    &c.Server.Addr,
		"MQTT_BROKER":    &c.MQTT.Broker,
		"MQTT_USERNAME":  &c.MQTT.Username,
		"MQTT_PASSWORD":  &c.MQTT.Password,
		"HOOKS_DIR":      &c.Hooks.Dir,
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
		"LOG_FILE":       &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	if v, ok := get("EAR_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sEAR_THRESHOLD: %w", EnvPrefix, err)
		}
		c.Monitor.EARThreshold = f
	}
	if v, ok := get("EYE_CLOSE_FRAMES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sEYE_CLOSE_FRAMES: %w", EnvPrefix, err)
		}
		c.Monitor.EyeCloseFrames = n
	}
	if v, ok := get("TARGET_LABELS"); ok {
		c.Monitor.TargetLabels = splitList(v)
	}
	if v, ok := get("HEADLESS"); ok {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sHEADLESS: %w", EnvPrefix, err)
		}
		c.Display.Window = !headless
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
