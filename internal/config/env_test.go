package config

import "testing"

func TestString(t *testing.T) {
	t.Setenv("FACEMOOD_TEST_STR", "  value ")
	if got := String("FACEMOOD_TEST_STR", "def"); got != "value" {
		t.Errorf("String = %q, want value", got)
	}

	t.Setenv("FACEMOOD_TEST_STR", "   ")
	if got := String("FACEMOOD_TEST_STR", "def"); got != "def" {
		t.Errorf("String blank = %q, want def", got)
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"number", "3", 3},
		{"empty", "", 7},
		{"garbage", "abc", 7},
		{"negative", "-1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FACEMOOD_TEST_INT", tt.env)
			if got := Int("FACEMOOD_TEST_INT", 7); got != tt.want {
				t.Errorf("Int = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDeviceIndex(t *testing.T) {
	t.Setenv(EnvDevice, "2")
	if got := DeviceIndex(0); got != 2 {
		t.Errorf("DeviceIndex = %d, want 2", got)
	}
}

func TestDashboardPort(t *testing.T) {
	t.Setenv(EnvPort, "")
	if got := DashboardPort("8090"); got != "8090" {
		t.Errorf("DashboardPort = %q, want default", got)
	}
}
