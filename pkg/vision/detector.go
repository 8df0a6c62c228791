// Package vision runs face and facial-feature detection on captured frames
// and turns the detections into emotion estimates and an annotated frame.
package vision

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facemood/internal/log"
	"github.com/teslashibe/go-facemood/pkg/detection"
)

// Detector finds regions of one kind in a grayscale image.
type Detector interface {
	Kind() detection.Kind
	Detect(img gocv.Mat) []image.Rectangle
	Close() error
}

var (
	// ErrModelNotFound is returned when a model file does not exist.
	ErrModelNotFound = errors.New("vision: model file not found")

	// ErrModelLoad is returned when a model file exists but cannot be loaded.
	ErrModelLoad = errors.New("vision: failed to load model")
)

// CascadeDetector is a Haar/LBP cascade classifier with fixed search
// parameters for its kind.
type CascadeDetector struct {
	kind       detection.Kind
	params     detection.Params
	path       string
	classifier gocv.CascadeClassifier
	mu         sync.Mutex
}

// NewCascade loads a cascade model file for the given kind.
func NewCascade(kind detection.Kind, path string) (*CascadeDetector, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, path)
	}

	return &CascadeDetector{
		kind:       kind,
		params:     detection.DefaultParams(kind),
		path:       path,
		classifier: classifier,
	}, nil
}

// Kind returns the detector kind.
func (d *CascadeDetector) Kind() detection.Kind { return d.kind }

// Params returns the search parameters in use.
func (d *CascadeDetector) Params() detection.Params { return d.params }

// Detect runs a multi-scale search over img.
func (d *CascadeDetector) Detect(img gocv.Mat) []image.Rectangle {
	if img.Empty() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.classifier.DetectMultiScaleWithParams(
		img,
		d.params.ScaleFactor,
		d.params.MinNeighbors,
		0,
		d.params.MinSizePoint(),
		image.Pt(0, 0),
	)
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}

// nullDetector stands in for a detector whose model failed to load.
type nullDetector struct {
	kind detection.Kind
}

// Null returns a detector that never finds anything.
func Null(kind detection.Kind) Detector {
	return nullDetector{kind: kind}
}

func (n nullDetector) Kind() detection.Kind            { return n.kind }
func (nullDetector) Detect(gocv.Mat) []image.Rectangle { return nil }
func (nullDetector) Close() error                      { return nil }

// IsNull reports whether d is a placeholder for a missing model.
func IsNull(d Detector) bool {
	_, ok := d.(nullDetector)
	return ok
}

// Standard OpenCV cascade file names.
const (
	FaceCascadeFile  = "haarcascade_frontalface_default.xml"
	EyeCascadeFile   = "haarcascade_eye.xml"
	MouthCascadeFile = "haarcascade_smile.xml"
)

// Paths locates the model file for each detector kind.
type Paths struct {
	Face  string `json:"face"`
	Eye   string `json:"eye"`
	Mouth string `json:"mouth"`
}

// DefaultPaths returns the standard cascade file names inside dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Face:  filepath.Join(dir, FaceCascadeFile),
		Eye:   filepath.Join(dir, EyeCascadeFile),
		Mouth: filepath.Join(dir, MouthCascadeFile),
	}
}

// For returns the path configured for kind.
func (p Paths) For(kind detection.Kind) string {
	switch kind {
	case detection.KindEye:
		return p.Eye
	case detection.KindMouth:
		return p.Mouth
	default:
		return p.Face
	}
}

// Set holds one detector per kind.
type Set struct {
	Face  Detector
	Eye   Detector
	Mouth Detector
}

// Get returns the detector for kind.
func (s Set) Get(kind detection.Kind) Detector {
	switch kind {
	case detection.KindEye:
		return s.Eye
	case detection.KindMouth:
		return s.Mouth
	default:
		return s.Face
	}
}

// Degraded lists the kinds running without a model.
func (s Set) Degraded() []detection.Kind {
	var out []detection.Kind
	for _, k := range detection.Kinds {
		if d := s.Get(k); d == nil || IsNull(d) {
			out = append(out, k)
		}
	}
	return out
}

// Close releases every detector.
func (s Set) Close() error {
	var errs []error
	for _, k := range detection.Kinds {
		if d := s.Get(k); d != nil {
			if err := d.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s detector: %w", k, err))
			}
		}
	}
	return errors.Join(errs...)
}

// LoadDetectors loads a detector for each kind. A kind whose model cannot
// be loaded gets a null detector and its error is reported in the returned
// map; loading never fails as a whole. Face models ending in .onnx are
// loaded as YuNet networks, everything else as cascades.
func LoadDetectors(paths Paths, logger *slog.Logger) (Set, map[detection.Kind]error) {
	logger = log.OrDefault(logger, "vision")

	var set Set
	failures := make(map[detection.Kind]error)

	for _, kind := range detection.Kinds {
		path := paths.For(kind)

		var (
			d   Detector
			err error
		)
		if kind == detection.KindFace && strings.EqualFold(filepath.Ext(path), ".onnx") {
			d, err = NewYuNet(DefaultYuNetConfig(path))
		} else {
			d, err = NewCascade(kind, path)
		}

		if err != nil {
			logger.Warn("⚠️  Detector unavailable, continuing without it",
				"kind", kind.String(), "path", path, "error", err)
			failures[kind] = err
			d = Null(kind)
		} else {
			logger.Info("✅ Detector loaded", "kind", kind.String(), "path", path)
		}

		switch kind {
		case detection.KindFace:
			set.Face = d
		case detection.KindEye:
			set.Eye = d
		case detection.KindMouth:
			set.Mouth = d
		}
	}

	return set, failures
}
