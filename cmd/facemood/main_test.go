package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPresetsCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"presets"})

	if err := root.Execute(); err != nil {
		t.Fatalf("presets: %v", err)
	}
	for _, want := range []string{"default", "720p", "1280x720", "low"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestVersionFlag(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out.String()) != Version {
		t.Errorf("version output: %q", out.String())
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"--fps", "0"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "configuration error") {
		t.Errorf("expected configuration error, got %v", err)
	}
}
