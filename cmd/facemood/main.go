// Facemood - live facial emotion recognition from a webcam.
// Detects faces with cascade classifiers, classifies each one with a small
// rule set, and serves the annotated feed on a web dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-facemood/pkg/camera"
	"github.com/teslashibe/go-facemood/pkg/facemood"
)

// Version is the application version.
const Version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := facemood.DefaultConfig()
	cfg.LoadEnvConfig()
	modelDir := cfg.ModelDir

	root := &cobra.Command{
		Use:           "facemood",
		Short:         "Live facial emotion recognition from a webcam",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Explicit model paths win over the directory.
			if cmd.Flags().Changed("model-dir") {
				explicit := cfg.Models
				cfg.SetModelDir(modelDir)
				if cmd.Flags().Changed("face-model") {
					cfg.Models.Face = explicit.Face
				}
				if cmd.Flags().Changed("eye-model") {
					cfg.Models.Eye = explicit.Eye
				}
				if cmd.Flags().Changed("mouth-model") {
					cfg.Models.Mouth = explicit.Mouth
				}
			}
			return run(cmd.Context(), cfg)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	f := root.Flags()
	f.IntVarP(&cfg.Camera.DeviceIndex, "device", "d", cfg.Camera.DeviceIndex, "Capture device index (FACEMOOD_DEVICE)")
	f.IntVar(&cfg.Camera.Width, "width", cfg.Camera.Width, "Requested capture width")
	f.IntVar(&cfg.Camera.Height, "height", cfg.Camera.Height, "Requested capture height")
	f.IntVar(&cfg.Camera.Framerate, "camera-fps", cfg.Camera.Framerate, "Requested capture frame rate")
	f.StringVarP(&cfg.Preset, "preset", "p", "", "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	f.StringVar(&modelDir, "model-dir", modelDir, "Directory holding the cascade files (FACEMOOD_MODEL_DIR)")
	f.StringVar(&cfg.Models.Face, "face-model", cfg.Models.Face, "Face model (.xml cascade or .onnx YuNet)")
	f.StringVar(&cfg.Models.Eye, "eye-model", cfg.Models.Eye, "Eye cascade")
	f.StringVar(&cfg.Models.Mouth, "mouth-model", cfg.Models.Mouth, "Mouth/smile cascade")
	f.DurationVar(&cfg.Worker.Interval, "interval", cfg.Worker.Interval, "Pause between processing cycles")
	f.IntVar(&cfg.Presenter.TargetFPS, "fps", cfg.Presenter.TargetFPS, "Maximum display refresh rate (FACEMOOD_FPS)")
	f.BoolVar(&cfg.Dashboard, "dashboard", cfg.Dashboard, "Serve the web dashboard")
	f.StringVar(&cfg.Port, "port", cfg.Port, "Dashboard port (FACEMOOD_PORT)")
	f.IntVar(&cfg.JPEGQuality, "jpeg-quality", cfg.JPEGQuality, "Dashboard JPEG quality (1-100)")
	f.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	f.BoolVar(&cfg.DebugFeatures, "debug-features", false, "Print per-face feature values every cycle")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error (LOG_LEVEL)")

	root.AddCommand(newPresetsCmd())
	return root
}

func run(ctx context.Context, cfg facemood.Config) error {
	app, err := facemood.New(cfg)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := app.Init(); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	return nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List camera presets",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, name := range camera.PresetNames() {
				p := camera.GetPreset(name)
				fmt.Fprintf(out, "%-8s %4dx%-4d @ %d fps\n", name, p.Width, p.Height, p.Framerate)
			}
		},
	}
}
