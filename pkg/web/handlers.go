package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-facemood/pkg/frame"
	"github.com/teslashibe/go-facemood/pkg/protocol"
)

// Snapshot bounds when the query does not give any.
const (
	defaultSnapshotWidth  = 320
	defaultSnapshotHeight = 240
	maxSnapshotSide       = 4096
)

// handleStatus returns the pipeline status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleEmotions returns the latest estimates
func (s *Server) handleEmotions(c *fiber.Ctx) error {
	s.mu.RLock()
	list := s.emotions
	seq := s.frame.Seq
	s.mu.RUnlock()

	return c.JSON(protocol.EmotionsData{
		Seq:   seq,
		Faces: s.faces(list),
	})
}

// latestFrame returns the most recent frame shown.
func (s *Server) latestFrame() (frame.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.hasFrame
}

// handleFrame returns the latest annotated frame as JPEG
func (s *Server) handleFrame(c *fiber.Ctx) error {
	f, ok := s.latestFrame()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no frame yet",
		})
	}

	jpeg, err := frame.EncodeJPEG(f, s.config.JPEGQuality)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(jpeg)
}

// handleSnapshot returns a thumbnail of the latest frame that fits in
// ?w= by ?h= pixels
func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	w := c.QueryInt("w", defaultSnapshotWidth)
	h := c.QueryInt("h", defaultSnapshotHeight)
	if w <= 0 || h <= 0 || w > maxSnapshotSide || h > maxSnapshotSide {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "w and h must be between 1 and 4096",
		})
	}

	f, ok := s.latestFrame()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no frame yet",
		})
	}

	jpeg, err := frame.Thumbnail(f, w, h, s.config.JPEGQuality)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(jpeg)
}

// handleChanges returns recent leading-emotion changes, oldest first
func (s *Server) handleChanges(c *fiber.Ctx) error {
	s.mu.RLock()
	out := make([]protocol.EmotionChangedData, 0, len(s.changes))
	for _, ch := range s.changes {
		out = append(out, protocol.EmotionChangedData{
			From:       ch.From.String(),
			To:         ch.To.String(),
			Confidence: ch.Confidence,
			At:         ch.At.UnixMilli(),
		})
	}
	s.mu.RUnlock()

	return c.JSON(out)
}

// handleCamera returns the capture configuration and accepted ranges
func (s *Server) handleCamera(c *fiber.Ctx) error {
	if s.config.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera not configured",
		})
	}
	return c.JSON(fiber.Map{
		"config":       s.config.Camera.GetConfigJSON(),
		"capabilities": s.config.Camera.Capabilities(),
	})
}
