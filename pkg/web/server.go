// Package web serves the live emotion dashboard: the annotated camera feed,
// the current estimates, and pipeline status over HTTP and WebSocket.
package web

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-facemood/internal/log"
	"github.com/teslashibe/go-facemood/pkg/emotion"
	"github.com/teslashibe/go-facemood/pkg/frame"
	"github.com/teslashibe/go-facemood/pkg/hub"
	"github.com/teslashibe/go-facemood/pkg/presenter"
	"github.com/teslashibe/go-facemood/pkg/protocol"
)

// maxChanges is how many emotion changes the server remembers.
const maxChanges = 100

// Config holds dashboard settings.
type Config struct {
	Port           string
	JPEGQuality    int
	StatusInterval time.Duration // How often status is pushed to /ws/status

	// Status reports pipeline state. Optional.
	Status func() protocol.StatusData

	// Color maps a label to its annotation color. Optional.
	Color func(emotion.Label) string

	// Camera exposes capture settings on /api/camera. Optional.
	Camera CameraInfo
}

// CameraInfo describes the capture device. camera.Manager implements it.
type CameraInfo interface {
	GetConfigJSON() map[string]interface{}
	Capabilities() map[string]interface{}
}

// DefaultConfig returns the standard dashboard settings.
func DefaultConfig() Config {
	return Config{
		Port:           "8080",
		JPEGQuality:    frame.DefaultJPEGQuality,
		StatusInterval: time.Second,
	}
}

// Server is the web dashboard. It implements presenter.Display and
// presenter.Listener.
type Server struct {
	app    *fiber.App
	config Config
	logger *slog.Logger

	// Latest display state
	mu       sync.RWMutex
	frame    frame.Frame
	hasFrame bool
	emotions []emotion.Estimate
	sentSeq  uint64 // Frame seq of the last emotions broadcast
	changes  []presenter.Change

	// Hubs for websocket broadcast
	statusHub   *hub.Hub
	emotionsHub *hub.Hub
	cameraHub   *hub.Hub

	cancel context.CancelFunc
}

var (
	_ presenter.Display  = (*Server)(nil)
	_ presenter.Listener = (*Server)(nil)
)

// NewServer creates a new web dashboard server
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = frame.DefaultJPEGQuality
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = time.Second
	}
	logger = log.OrDefault(logger, "web")

	s := &Server{
		config:      cfg,
		logger:      logger,
		changes:     make([]presenter.Change, 0, maxChanges),
		statusHub:   hub.New("status", true, logger),
		emotionsHub: hub.New("emotions", true, logger),
		cameraHub:   hub.New("camera", true, logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "facemood",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/emotions", s.handleEmotions)
	api.Get("/frame", s.handleFrame)
	api.Get("/snapshot", s.handleSnapshot)
	api.Get("/changes", s.handleChanges)
	api.Get("/camera", s.handleCamera)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/camera", websocket.New(s.serveHub(s.cameraHub)))
	app.Get("/ws/emotions", websocket.New(s.serveHub(s.emotionsHub)))
	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured port and serves until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.config.Port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hubs and the status pusher, then serves on ln until
// Shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.statusHub.Run(ctx)
	go s.emotionsHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	go s.pushStatus(ctx)

	s.logger.Info("🌐 Web dashboard", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Warn("⚠️  Web server error", "error", err)
		}
	}()
}

// Shutdown stops the hubs and the HTTP server.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return s.app.Shutdown()
}

// ShowFrame stores the latest annotated frame and pushes it to camera
// clients as JPEG.
func (s *Server) ShowFrame(f frame.Frame) {
	s.mu.Lock()
	s.frame = f
	s.hasFrame = true
	s.mu.Unlock()

	if s.cameraHub.ClientCount() == 0 {
		return
	}
	jpeg, err := frame.EncodeJPEG(f, s.config.JPEGQuality)
	if err != nil {
		s.logger.Debug("frame encode failed", "error", err)
		return
	}
	s.cameraHub.BroadcastBinary(jpeg)
}

// ShowEmotions stores the latest estimates. They are broadcast once per
// new frame.
func (s *Server) ShowEmotions(list []emotion.Estimate) {
	s.mu.Lock()
	s.emotions = list
	seq := s.frame.Seq
	fresh := s.hasFrame && seq != s.sentSeq
	if fresh {
		s.sentSeq = seq
	}
	s.mu.Unlock()

	if !fresh {
		return
	}
	msg, err := protocol.NewEmotionsMessage(seq, s.faces(list))
	if err != nil {
		s.logger.Debug("emotions message failed", "error", err)
		return
	}
	s.emotionsHub.BroadcastJSON(msg)
}

// OnEmotionChange records a leading-emotion change and pushes it to
// emotion clients.
func (s *Server) OnEmotionChange(c presenter.Change) {
	s.mu.Lock()
	if len(s.changes) == maxChanges {
		copy(s.changes, s.changes[1:])
		s.changes[len(s.changes)-1] = c
	} else {
		s.changes = append(s.changes, c)
	}
	s.mu.Unlock()

	msg, err := protocol.NewEmotionChangedMessage(c.From.String(), c.To.String(), c.Confidence, c.At.UnixMilli())
	if err != nil {
		return
	}
	s.emotionsHub.BroadcastJSON(msg)
}

func (s *Server) pushStatus(ctx context.Context) {
	if s.config.Status == nil {
		return
	}
	ticker := time.NewTicker(s.config.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg, err := protocol.NewStatusMessage(s.status())
			if err != nil {
				continue
			}
			s.statusHub.BroadcastJSON(msg)
		}
	}
}

// status merges the pipeline status with the dashboard's own streaming
// state.
func (s *Server) status() protocol.StatusData {
	st := protocol.StatusData{State: "unknown"}
	if s.config.Status != nil {
		st = s.config.Status()
	}
	st.Streaming = true
	for _, h := range []*hub.Hub{s.statusHub, s.emotionsHub, s.cameraHub} {
		st.Streaming = st.Streaming && h.IsRunning()
		st.Viewers += h.ClientCount()
	}
	return st
}

// serveHub returns a websocket handler that attaches the connection to h.
func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		client := hub.NewClient(h, c)
		if client == nil {
			return
		}
		client.Run()
	}
}

func (s *Server) faces(list []emotion.Estimate) []protocol.FaceData {
	faces := make([]protocol.FaceData, 0, len(list))
	for _, e := range list {
		fd := protocol.FaceData{
			Emotion:    e.Label.String(),
			Confidence: e.Confidence,
			CenterX:    e.CenterX,
			CenterY:    e.CenterY,
			Size:       e.Size,
			Box:        [4]int{e.Box.Min.X, e.Box.Min.Y, e.Box.Dx(), e.Box.Dy()},
		}
		if s.config.Color != nil {
			fd.Color = s.config.Color(e.Label)
		}
		faces = append(faces, fd)
	}
	return faces
}
