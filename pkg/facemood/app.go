package facemood

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-facemood/internal/log"
	"github.com/teslashibe/go-facemood/pkg/camera"
	"github.com/teslashibe/go-facemood/pkg/debug"
	"github.com/teslashibe/go-facemood/pkg/frame"
	"github.com/teslashibe/go-facemood/pkg/presenter"
	"github.com/teslashibe/go-facemood/pkg/protocol"
	"github.com/teslashibe/go-facemood/pkg/tracker"
	"github.com/teslashibe/go-facemood/pkg/vision"
	"github.com/teslashibe/go-facemood/pkg/web"
)

// Device is an opened capture device. *camera.Webcam implements it.
type Device interface {
	Read() (frame.Frame, bool)
	Size() (width, height int)
	Close() error
}

// OpenFunc opens the capture device for a configuration.
type OpenFunc func(cfg camera.Config, logger *slog.Logger) (Device, error)

func openWebcam(cfg camera.Config, logger *slog.Logger) (Device, error) {
	w, err := camera.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// App is the application orchestrator. It owns every component and their
// lifecycle: Init acquires resources, Run drives them, Shutdown releases
// them in order.
type App struct {
	config    Config
	logger    *slog.Logger
	sessionID string
	startedAt time.Time
	open      OpenFunc

	// Capture
	cameraManager *camera.Manager
	device        Device

	// Processing
	pipeline *vision.Pipeline
	degraded []string
	worker   *tracker.Worker

	// Presentation
	presenter *presenter.Presenter
	webServer *web.Server

	mu           sync.Mutex
	initialized  bool
	shutdownOnce sync.Once
}

// New creates an application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Features = cfg.DebugFeatures
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	return &App{
		config:    cfg,
		logger:    log.Component("facemood"),
		sessionID: uuid.New().String(),
		open:      openWebcam,
	}, nil
}

// SetOpener replaces the function used to open the capture device.
// It must be called before Init.
func (a *App) SetOpener(open OpenFunc) {
	a.open = open
}

// SessionID identifies this run in status messages.
func (a *App) SessionID() string {
	return a.sessionID
}

// Init acquires the capture device and builds the pipeline.
// If the device cannot be opened it returns ErrDeviceUnavailable and
// nothing has been started.
func (a *App) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return ErrAlreadyInitialized
	}

	a.logger.Info("🙂 Facemood - live facial emotion recognition", "session", a.sessionID)
	if debug.Enabled {
		a.logger.Debug("🐛 Debug mode enabled")
	}

	a.cameraManager = camera.NewManager(a.config.Camera)
	if a.config.Preset != "" {
		if err := a.cameraManager.ApplyPreset(a.config.Preset); err != nil {
			return fmt.Errorf("camera preset: %w", err)
		}
	}

	device, err := a.open(a.cameraManager.GetConfig(), log.Component("camera"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	a.device = device
	a.cameraManager.SetNegotiated(device.Size())

	set, failures := vision.LoadDetectors(a.config.Models, log.Component("vision"))
	for _, kind := range set.Degraded() {
		a.degraded = append(a.degraded, kind.String())
	}
	if len(failures) > 0 {
		a.logger.Warn("⚠️  Running with degraded detection", "missing", a.degraded)
	}
	a.pipeline = vision.NewPipeline(set, log.Component("vision"))

	a.worker = tracker.New(a.config.Worker, a.device, a.pipeline, log.Component("tracker"))

	var display presenter.Display
	if a.config.Dashboard {
		cfg := web.DefaultConfig()
		cfg.Port = a.config.Port
		cfg.JPEGQuality = a.config.JPEGQuality
		cfg.Status = a.Status
		cfg.Color = vision.LabelHex
		cfg.Camera = a.cameraManager
		a.webServer = web.NewServer(cfg, log.Component("web"))
		display = a.webServer
	}

	a.presenter = presenter.New(a.config.Presenter, a.worker, display, log.Component("presenter"))
	a.presenter.AddListener(presenter.LogListener(log.Component("presenter")))
	if a.webServer != nil {
		a.presenter.AddListener(a.webServer)
	}

	a.startedAt = time.Now()
	a.initialized = true
	return nil
}

// Run starts the worker and the dashboard, then presents results until ctx
// is cancelled. It does not release resources; call Shutdown for that.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	ready := a.initialized
	a.mu.Unlock()
	if !ready {
		return ErrNotInitialized
	}

	if err := a.worker.Start(); err != nil {
		return fmt.Errorf("worker start: %w", err)
	}

	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
	}

	a.logger.Info("🎥 Running", "fps", a.config.Presenter.TargetFPS, "interval", a.config.Worker.Interval)

	err := a.presenter.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Shutdown stops the worker and waits for it, then releases the capture
// device, the detectors and the dashboard. It is safe to call more than
// once and before Init.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		if a.worker != nil {
			a.worker.Stop()
			a.worker.Wait()
		}
		if a.device != nil {
			if err := a.device.Close(); err != nil {
				a.logger.Warn("⚠️  Camera close", "error", err)
			}
		}
		if a.pipeline != nil {
			if err := a.pipeline.Close(); err != nil {
				a.logger.Warn("⚠️  Detector close", "error", err)
			}
		}
		if a.webServer != nil {
			if err := a.webServer.Shutdown(); err != nil {
				a.logger.Debug("web shutdown", "error", err)
			}
		}

		if a.worker != nil {
			st := a.worker.Stats()
			a.logger.Info("👋 Goodbye!", "cycles", st.Cycles, "published", st.Published, "failed", st.Failed)
		}
	})
}

// Status reports the current pipeline state.
func (a *App) Status() protocol.StatusData {
	st := protocol.StatusData{
		State:     tracker.StateCreated.String(),
		Leading:   "Neutral",
		Degraded:  a.degraded,
		SessionID: a.sessionID,
	}
	if a.worker != nil {
		ws := a.worker.Stats()
		st.State = ws.State.String()
		st.Cycles = ws.Cycles
		st.Published = ws.Published
		st.Skipped = ws.Skipped
		st.Failed = ws.Failed
	}
	if a.presenter != nil {
		ps := a.presenter.Stats()
		st.FramesShown = ps.FramesShown
		st.Leading = ps.Leading.String()
	}
	if a.cameraManager != nil {
		st.Width, st.Height = a.cameraManager.Negotiated()
	}
	if !a.startedAt.IsZero() {
		st.UptimeSec = time.Since(a.startedAt).Seconds()
	}
	return st
}

// Worker exposes the processing worker, mainly for tests and tools.
func (a *App) Worker() *tracker.Worker {
	return a.worker
}
