package detector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"gocv.io/x/gocv"
)

// ErrWorkerNotFound is returned when the face mesh worker script cannot be located.
var ErrWorkerNotFound = errors.New("face_mesh_worker.py not found")

const (
	workerScriptName = "face_mesh_worker.py"
	workerIdleTime   = 30 * time.Second
	maxResponseBytes = 8 << 20
)

// MediaPipeFaceDetector implements FaceDetector using a Python MediaPipe Face Mesh subprocess.
//
// Wire format, both directions: a 4-byte big-endian length followed by the
// payload. Requests carry a JPEG-encoded frame, responses a msgpack map
// {"faces": [{"points": [{"x", "y"}...], "score"}]}.
type MediaPipeFaceDetector struct {
	config    FaceConfig
	script    string
	log       zerolog.Logger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeFaceDetector creates a new MediaPipe face landmark detector.
// The Python process is started lazily on first detection.
func NewMediaPipeFaceDetector(config FaceConfig, log zerolog.Logger) (*MediaPipeFaceDetector, error) {
	script := config.Script
	if script == "" {
		script = findWorkerScript()
	}
	if script == "" {
		return nil, ErrWorkerNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("face mesh worker: %w", err)
	}

	return &MediaPipeFaceDetector{
		config: config,
		script: script,
		log:    log.With().Str("component", "face_mesh").Logger(),
	}, nil
}

// Detect analyzes a frame and returns detected face landmarks.
func (d *MediaPipeFaceDetector) Detect(frame *gocv.Mat) ([]FaceLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		d.shutdown()
		return nil, err
	}

	payload, err := readFrame(d.stdout)
	if err != nil {
		d.shutdown()
		return nil, err
	}

	var response struct {
		Faces []FaceLandmarks `msgpack:"faces"`
		Error string          `msgpack:"error"`
	}
	if err := msgpack.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("face mesh worker: %s", response.Error)
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return response.Faces, nil
}

// Close shuts down the Python process.
func (d *MediaPipeFaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func writeFrame(w io.Writer, data []byte) error {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := w.Write(length); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

func readFrame(r io.Reader) ([]byte, error) {
	length := make([]byte, 4)
	if _, err := io.ReadFull(r, length); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}

	n := binary.BigEndian.Uint32(length)
	if n > maxResponseBytes {
		return nil, fmt.Errorf("response too large: %d bytes", n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return payload, nil
}

func (d *MediaPipeFaceDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := d.config.Python
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.script,
		"--max-faces", strconv.Itoa(d.config.MaxFaces),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Worker diagnostics go straight to our stderr
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start face mesh worker: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	d.log.Info().Str("python", pythonPath).Str("script", d.script).Int("pid", d.cmd.Process.Pid).Msg("face mesh worker started")
	return nil
}

func (d *MediaPipeFaceDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	d.log.Info().Msg("face mesh worker stopped")
	return err
}

func (d *MediaPipeFaceDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(workerIdleTime, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findWorkerScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", workerScriptName),
		filepath.Join("..", "scripts", workerScriptName),
		filepath.Join(execDir, "scripts", workerScriptName),
		filepath.Join(os.Getenv("HOME"), ".vigil", "scripts", workerScriptName),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".vigil/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
