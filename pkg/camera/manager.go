package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the requested capture configuration and the resolution the
// device actually negotiated.
type Manager struct {
	config Config
	mu     sync.RWMutex

	negotiatedWidth  int
	negotiatedHeight int
}

// NewManager creates a camera manager with the given config.
func NewManager(cfg Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and stores a configuration.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errors)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// ApplyPreset replaces the resolution and frame rate with a preset's,
// keeping the selected device.
func (m *Manager) ApplyPreset(name string) error {
	preset := GetPreset(name)
	if preset == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}

	cfg := m.GetConfig()
	preset.DeviceIndex = cfg.DeviceIndex
	return m.SetConfig(*preset)
}

// SetNegotiated records the resolution reported by the opened device.
func (m *Manager) SetNegotiated(width, height int) {
	m.mu.Lock()
	m.negotiatedWidth = width
	m.negotiatedHeight = height
	m.mu.Unlock()
}

// Negotiated returns the device-reported resolution, or zeros before the
// device was opened.
func (m *Manager) Negotiated() (width, height int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.negotiatedWidth, m.negotiatedHeight
}

// GetConfigJSON returns the current config as a map for JSON serialization,
// including the negotiated resolution.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	_ = json.Unmarshal(data, &result)

	w, h := m.Negotiated()
	result["negotiated_width"] = w
	result["negotiated_height"] = h
	return result
}

// Capabilities returns the accepted capture ranges.
func (m *Manager) Capabilities() map[string]interface{} {
	return Capabilities()
}
