package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/vigil/internal/alarm"
	"github.com/ayusman/vigil/internal/app"
	"github.com/ayusman/vigil/internal/capture"
	"github.com/ayusman/vigil/internal/config"
	"github.com/ayusman/vigil/internal/detector"
	"github.com/ayusman/vigil/internal/display"
	"github.com/ayusman/vigil/internal/hook"
	"github.com/ayusman/vigil/internal/logging"
	"github.com/ayusman/vigil/internal/monitor"
	"github.com/ayusman/vigil/internal/notify"
	"github.com/ayusman/vigil/internal/server"
	"github.com/ayusman/vigil/internal/store"
	"github.com/ayusman/vigil/internal/tray"
)

// The preview window and the tray both need the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	source := flag.String("source", "", "Camera index, video file or stream URL (overrides config)")
	headless := flag.Bool("headless", false, "Disable the preview window")
	withTray := flag.Bool("tray", false, "Show the system tray menu")
	addr := flag.String("addr", "", "HTTP listen address, e.g. :8080 (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	if err := run(*configPath, overrides{
		source:   *source,
		headless: *headless,
		tray:     *withTray,
		addr:     *addr,
		logLevel: *logLevel,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "vigil: %v\n", err)
		os.Exit(1)
	}
}

type overrides struct {
	source   string
	headless bool
	tray     bool
	addr     string
	logLevel string
}

func (o overrides) apply(cfg *config.Config) {
	if o.source != "" {
		cfg.Camera.Source = o.source
	}
	if o.headless {
		cfg.Display.Window = false
	}
	if o.tray {
		cfg.Tray.Enabled = true
	}
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	// The tray owns the main thread, so the OpenCV window cannot run.
	if cfg.Tray.Enabled {
		cfg.Display.Window = false
	}
}

func run(configPath string, o overrides) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	o.apply(cfg)

	log, logCloser, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}, os.Stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	log.Info().Str("config", configPath).Str("source", cfg.Camera.Source).Msg("starting driver safety monitor")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	faces := newFaceDetector(cfg, log)
	if faces != nil {
		defer faces.Close()
	}
	objects := newObjectDetector(cfg, log)
	if objects != nil {
		defer objects.Close()
	}

	actuator, err := alarm.New(alarm.Config{
		Backend:   cfg.Alarm.Backend,
		SoundFile: cfg.Alarm.SoundFile,
		Frequency: cfg.Alarm.Frequency,
		Volume:    cfg.Alarm.Volume,
	}, log)
	if err != nil {
		log.Warn().Err(err).Msg("audio alarm not available, alerts will only be logged")
		actuator = alarm.NewLogActuator(log)
	}
	defer actuator.Close()

	selector, err := detector.ParseSelector(cfg.Monitor.FaceSelection)
	if err != nil {
		return err
	}
	session := monitor.NewSession(monitor.Config{
		EARThreshold:   cfg.Monitor.EARThreshold,
		EyeCloseFrames: cfg.Monitor.EyeCloseFrames,
		TargetLabels:   cfg.Monitor.TargetLabels,
		ObjectName:     cfg.Monitor.ObjectName,
		Selector:       selector,
	}, faces, objects, actuator, log)

	camera := capture.NewCamera(capture.Config{
		Source: cfg.Camera.Source,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
	})

	frames := display.NewFrameBuffer()
	sinks := display.Multi{frames, display.NewHeadless(log)}
	if cfg.Display.Window {
		sinks = append(sinks, display.NewWindow(cfg.Display.Title))
	}

	a := app.New(app.Config{Source: cfg.Camera.Source, Store: st}, camera, session, sinks, log)
	defer a.Close()

	hooks := hook.NewManager(cfg.Hooks.Dir)
	if err := hooks.Discover(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.Hooks.Dir).Msg("failed to discover hooks")
	}
	if n := len(hooks.List()); n > 0 {
		log.Info().Int("hooks", n).Msg("alarm hooks loaded")
		a.Subscribe(hook.NewRunner(hooks, hook.NewExecutor(cfg.Hooks.TimeoutMs), log))
	}

	if cfg.MQTT.Broker != "" {
		notifier := notify.NewMQTTNotifier(notify.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
		}, log)
		if err := notifier.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("mqtt unavailable, continuing without it")
		} else {
			defer notifier.Disconnect()
			a.Subscribe(notifier)
		}
	}

	if cfg.Server.Addr != "" {
		hub := server.NewHub(a, log)
		a.Subscribe(hub)
		srv := server.New(server.Config{
			StaticDir: findWebDir(),
			Store:     st,
			Monitor:   a,
			Frames:    frames,
			Hub:       hub,
			Log:       log,
		})
		go func() {
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				log.Error().Err(err).Msg("http server failed")
			}
		}()
	}

	if !cfg.Tray.Enabled {
		return a.Run(ctx)
	}
	return runWithTray(ctx, cancel, a, cfg.Server.Addr, log)
}

// runWithTray runs the monitor loop in the background while the tray owns
// the main thread.
func runWithTray(ctx context.Context, cancel context.CancelFunc, a *app.App, addr string, log zerolog.Logger) error {
	t := tray.New()
	t.SetEnabled(a.IsEnabled())
	t.OnToggle(func(enabled bool) {
		if err := a.SetEnabled(enabled); err != nil {
			log.Error().Err(err).Msg("failed to toggle monitor")
		}
	})
	t.OnQuit(cancel)
	if addr != "" {
		t.OnDashboard(func() {
			openBrowser(dashboardURL(addr), log)
		})
	}
	a.Subscribe(t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		t.Quit()
	}()

	t.Run()
	cancel()

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("monitor loop did not stop")
	}
}

func newFaceDetector(cfg *config.Config, log zerolog.Logger) detector.FaceDetector {
	fc := detector.DefaultFaceConfig()
	fc.Script = cfg.Face.WorkerScript
	fc.Python = cfg.Face.Python
	fc.MaxFaces = cfg.Face.MaxFaces
	fc.MinConfidence = cfg.Face.MinConfidence

	d, err := detector.NewMediaPipeFaceDetector(fc, log)
	if err != nil {
		log.Warn().Err(err).Msg("face landmarks not available, eye closure will not be detected")
		return nil
	}
	log.Info().Msg("using MediaPipe face mesh")
	return d
}

func newObjectDetector(cfg *config.Config, log zerolog.Logger) detector.ObjectDetector {
	d, err := detector.NewYOLODetector(detector.ObjectConfig{
		ModelPath:    cfg.Object.ModelPath,
		LabelsPath:   cfg.Object.LabelsPath,
		InputSize:    cfg.Object.InputSize,
		Confidence:   cfg.Object.Confidence,
		NMSThreshold: cfg.Object.NMS,
	})
	if err != nil {
		log.Warn().Err(err).Msg("object detector not available, phone use will not be detected")
		return nil
	}
	log.Info().Str("model", cfg.Object.ModelPath).Msg("using YOLO object detector")
	return d
}

func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/api/stream"
}

func openBrowser(url string, log zerolog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Stdout = io.Discard
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("failed to open browser")
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.vigil/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
