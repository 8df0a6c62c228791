package camera

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Fatalf("default config invalid: %v", errs)
	}
	if cfg.Width != 640 || cfg.Height != 480 || cfg.Framerate != 30 || cfg.BufferSize != 1 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"negative device", func(c *Config) { c.DeviceIndex = -1 }, "device_index"},
		{"tiny width", func(c *Config) { c.Width = 10 }, "width"},
		{"huge height", func(c *Config) { c.Height = 5000 }, "height"},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, "framerate"},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }, "buffer_size"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %v", errs)
			}
			if !strings.HasPrefix(errs[0], tc.field) {
				t.Errorf("error %q does not name %s", errs[0], tc.field)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	presets := Presets()
	if len(presets) != len(PresetNames()) {
		t.Fatalf("Presets has %d entries, PresetNames %d", len(presets), len(PresetNames()))
	}
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("GetPreset(%q) = nil", name)
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %s invalid: %v", name, errs)
		}
	}
	if GetPreset("8k") != nil {
		t.Error("GetPreset returned a config for an unknown name")
	}
	if low := GetPreset(PresetLow); low.Width != 320 || low.Height != 240 {
		t.Errorf("low preset: %dx%d", low.Width, low.Height)
	}
}

func TestManager_ApplyPresetKeepsDevice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeviceIndex = 2
	m := NewManager(cfg)

	if err := m.ApplyPreset(Preset720p); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	got := m.GetConfig()
	if got.Width != 1280 || got.Height != 720 || got.DeviceIndex != 2 {
		t.Errorf("after preset: %+v", got)
	}

	if err := m.ApplyPreset("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestManager_SetConfigRejectsInvalid(t *testing.T) {
	m := NewManager(DefaultConfig())
	bad := DefaultConfig()
	bad.Width = 1

	if err := m.SetConfig(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if m.GetConfig().Width != 640 {
		t.Error("invalid config was stored")
	}
}

func TestManager_Negotiated(t *testing.T) {
	m := NewManager(DefaultConfig())
	if w, h := m.Negotiated(); w != 0 || h != 0 {
		t.Errorf("negotiated before open: %dx%d", w, h)
	}
	m.SetNegotiated(800, 600)

	out := m.GetConfigJSON()
	if out["negotiated_width"] != 800 || out["negotiated_height"] != 600 {
		t.Errorf("GetConfigJSON: %v", out)
	}
	if out["width"] != float64(640) {
		t.Errorf("width in json: %v", out["width"])
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Framerate = 0
	if _, err := Open(cfg, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
