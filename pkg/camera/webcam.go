package camera

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facemood/internal/log"
	"github.com/teslashibe/go-facemood/pkg/frame"
	"github.com/teslashibe/go-facemood/pkg/frame/cvframe"
)

// Webcam is an opened capture device. It is owned by a single reader;
// Read and Close must not be called concurrently with each other from
// different goroutines except for Close during shutdown.
type Webcam struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	config  Config
	width   int
	height  int
	seq     uint64
	closed  bool
	logger  *slog.Logger
}

// Open opens and configures the device described by cfg. The driver may
// not honour the requested resolution; the negotiated size is available
// from Size.
func Open(cfg Config, logger *slog.Logger) (*Webcam, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	logger = log.OrDefault(logger, "camera")

	capture, err := gocv.OpenVideoCapture(cfg.DeviceIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrOpenFailed, cfg.DeviceIndex, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d", ErrOpenFailed, cfg.DeviceIndex)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	capture.Set(gocv.VideoCaptureBufferSize, float64(cfg.BufferSize))

	w := &Webcam{
		capture: capture,
		mat:     gocv.NewMat(),
		config:  cfg,
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
		logger:  logger,
	}

	logger.Info("📷 Camera opened",
		"device", cfg.DeviceIndex,
		"requested", fmt.Sprintf("%dx%d@%d", cfg.Width, cfg.Height, cfg.Framerate),
		"actual", fmt.Sprintf("%dx%d", w.width, w.height))

	return w, nil
}

// Size returns the negotiated frame size.
func (w *Webcam) Size() (width, height int) {
	return w.width, w.height
}

// Config returns the configuration the device was opened with.
func (w *Webcam) Config() Config {
	return w.config
}

// Read grabs the next frame. ok is false when the device produced nothing
// usable this time; callers should retry on the next cycle.
func (w *Webcam) Read() (frame.Frame, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return frame.Frame{}, false
	}
	if ok := w.capture.Read(&w.mat); !ok || w.mat.Empty() {
		return frame.Frame{}, false
	}

	f, err := cvframe.FromMat(w.mat)
	if err != nil {
		w.logger.Debug("discarding unreadable frame", "error", err)
		return frame.Frame{}, false
	}
	w.seq++
	f.Seq = w.seq
	return f, true
}

// Close releases the device. Safe to call more than once.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.mat.Close()
	err := w.capture.Close()
	w.logger.Info("📷 Camera released", "device", w.config.DeviceIndex, "frames", w.seq)
	return err
}
