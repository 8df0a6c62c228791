// Package protocol defines the JSON messages pushed to dashboard clients
// over WebSocket.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Server → client messages
	TypeEmotions       MessageType = "emotions"        // Latest estimate list
	TypeEmotionChanged MessageType = "emotion_changed" // Leading emotion switched
	TypeStatus         MessageType = "status"          // Worker/presenter status

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with a fresh ID and the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// FaceData is one classified face
type FaceData struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	CenterX    float64 `json:"center_x"`   // Pixels, mirrored frame
	CenterY    float64 `json:"center_y"`   // Pixels, mirrored frame
	Size       float64 `json:"size"`       // Face width in pixels
	Box        [4]int  `json:"box"`        // x, y, width, height
	Color      string  `json:"color"`      // Annotation color, #rrggbb
}

// EmotionsData is the estimate list of one processing cycle
type EmotionsData struct {
	Seq   uint64     `json:"seq"` // Processing cycle of the matching frame
	Faces []FaceData `json:"faces"`
}

// EmotionChangedData reports a switch of the leading emotion
type EmotionChangedData struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Confidence float64 `json:"confidence"`
	At         int64   `json:"at"` // Unix milliseconds
}

// StatusData summarises the running pipeline
type StatusData struct {
	State       string   `json:"state"` // Worker lifecycle state
	Cycles      uint64   `json:"cycles"`
	Published   uint64   `json:"published"`
	Skipped     uint64   `json:"skipped"`
	Failed      uint64   `json:"failed"`
	FramesShown uint64   `json:"frames_shown"`
	Leading     string   `json:"leading"`
	Width       int      `json:"width"`  // Negotiated capture width
	Height      int      `json:"height"` // Negotiated capture height
	Degraded    []string `json:"degraded,omitempty"`
	UptimeSec   float64  `json:"uptime_sec"`
	SessionID   string   `json:"session_id"`
	Streaming   bool     `json:"streaming"` // Dashboard hubs are running
	Viewers     int      `json:"viewers"`   // Connected websocket clients
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
