package facemood

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-facemood/pkg/camera"
	"github.com/teslashibe/go-facemood/pkg/frame"
	"github.com/teslashibe/go-facemood/pkg/tracker"
	"github.com/teslashibe/go-facemood/pkg/vision"
)

type fakeDevice struct {
	mu     sync.Mutex
	seq    uint64
	closed atomic.Int32
}

func (d *fakeDevice) Read() (frame.Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	f := frame.New(64, 48, frame.FormatBGR)
	f.Seq = d.seq
	f.CapturedAt = time.Now()
	return f, true
}

func (d *fakeDevice) Size() (int, int) { return 64, 48 }

func (d *fakeDevice) Close() error {
	d.closed.Add(1)
	return nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Dashboard = false
	cfg.SetModelDir(t.TempDir()) // no models: every detector degrades
	cfg.Worker.Interval = time.Millisecond
	cfg.Presenter.TargetFPS = 200
	return cfg
}

func TestInit_DeviceUnavailable(t *testing.T) {
	app, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	app.SetOpener(func(camera.Config, *slog.Logger) (Device, error) {
		return nil, camera.ErrOpenFailed
	})

	err = app.Init()
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if app.Worker() != nil {
		t.Error("worker created after device failure")
	}
	if err := app.Run(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Run after failed Init: %v", err)
	}
	app.Shutdown()
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Presenter.TargetFPS = 0
	if _, err := New(cfg); err == nil {
		t.Error("New accepted an invalid config")
	}
}

func TestShutdown_BeforeInit(t *testing.T) {
	app, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	app.Shutdown()
	app.Shutdown()
}

func TestApp_RunAndShutdown(t *testing.T) {
	dev := &fakeDevice{}
	cfg := testConfig(t)
	cfg.Preset = "low"

	app, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var opened camera.Config
	app.SetOpener(func(c camera.Config, _ *slog.Logger) (Device, error) {
		opened = c
		return dev, nil
	})

	if err := app.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if opened.Width != 320 || opened.Height != 240 {
		t.Errorf("preset not applied: %dx%d", opened.Width, opened.Height)
	}
	if err := app.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init: %v", err)
	}

	st := app.Status()
	if len(st.Degraded) != 3 {
		t.Errorf("degraded kinds: %v", st.Degraded)
	}
	if st.Width != 64 || st.Height != 48 {
		t.Errorf("negotiated size: %dx%d", st.Width, st.Height)
	}
	if st.State != tracker.StateCreated.String() {
		t.Errorf("state before run: %s", st.State)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	st = app.Status()
	if st.Published == 0 {
		t.Error("no results published")
	}
	if st.FramesShown == 0 {
		t.Error("presenter showed no frames")
	}
	if st.Leading != "Neutral" {
		t.Errorf("leading without faces: %s", st.Leading)
	}
	if st.SessionID != app.SessionID() || st.SessionID == "" {
		t.Errorf("session id: %q", st.SessionID)
	}

	app.Shutdown()
	app.Shutdown()

	if got := dev.closed.Load(); got != 1 {
		t.Errorf("device closed %d times, want 1", got)
	}
	if s := app.Worker().State(); s != tracker.StateStopped {
		t.Errorf("worker state after shutdown: %s", s)
	}
	if _, ok := app.Worker().PollFrame(); !ok {
		t.Error("last result not readable after shutdown")
	}
}

func TestApp_OnnxFaceModelDegrades(t *testing.T) {
	cfg := testConfig(t)
	cfg.Models.Face = cfg.ModelDir + "/face_detection_yunet.onnx"

	app, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	app.SetOpener(func(camera.Config, *slog.Logger) (Device, error) {
		return &fakeDevice{}, nil
	})
	if err := app.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer app.Shutdown()

	if !vision.IsNull(app.pipeline.Detectors().Face) {
		t.Error("missing onnx model should leave a null face detector")
	}
}
