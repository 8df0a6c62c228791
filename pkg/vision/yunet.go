package vision

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facemood/pkg/debug"
	"github.com/teslashibe/go-facemood/pkg/detection"
)

// YuNetConfig configures the YuNet face network.
type YuNetConfig struct {
	ModelPath      string
	ScoreThreshold float64 // Minimum face score (0-1)
	NMSThreshold   float64
	TopK           int
	InitialWidth   int // Input size before the first frame arrives
	InitialHeight  int
}

// DefaultYuNetConfig returns the standard thresholds for a model file.
func DefaultYuNetConfig(path string) YuNetConfig {
	return YuNetConfig{
		ModelPath:      path,
		ScoreThreshold: 0.6,
		NMSThreshold:   0.3,
		TopK:           5000,
		InitialWidth:   320,
		InitialHeight:  240,
	}
}

// YuNetDetector uses OpenCV's FaceDetectorYN as a face detector. It accepts
// the same grayscale search image as the cascade detectors.
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   YuNetConfig
	mu       sync.Mutex // Protects inference
}

// NewYuNet loads a YuNet ONNX model.
func NewYuNet(cfg YuNetConfig) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // No config file needed for ONNX
		image.Pt(cfg.InitialWidth, cfg.InitialHeight),
		float32(cfg.ScoreThreshold),
		float32(cfg.NMSThreshold),
		cfg.TopK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Kind always returns KindFace.
func (d *YuNetDetector) Kind() detection.Kind { return detection.KindFace }

// Detect finds faces in img, returning pixel rectangles in img coordinates.
func (d *YuNetDetector) Detect(img gocv.Mat) []image.Rectangle {
	if img.Empty() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// The network wants 3 channels.
	input := img
	if img.Channels() == 1 {
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(img, &bgr, gocv.ColorGrayToBGR)
		input = bgr
	}

	d.detector.SetInputSize(image.Pt(input.Cols(), input.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	d.detector.Detect(input, &faces)

	// Rows are x, y, w, h, 5 landmark pairs, score.
	rects := make([]image.Rectangle, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		x := int(faces.GetFloatAt(r, 0))
		y := int(faces.GetFloatAt(r, 1))
		w := int(faces.GetFloatAt(r, 2))
		h := int(faces.GetFloatAt(r, 3))
		rects = append(rects, image.Rect(x, y, x+w, y+h))
	}

	if len(rects) > 0 {
		debug.Log("👁️  YuNet found %d face(s)\n", len(rects))
	}
	return rects
}

// Close releases the network.
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
