package emotion

import (
	"image"

	"github.com/teslashibe/go-facemood/pkg/detection"
)

// EyeCount buckets the number of detected eyes.
type EyeCount int

const (
	NoEyes EyeCount = iota
	OneEye
	TwoOrMoreEyes
)

// FeatureSummary aggregates the sub-detections of one face.
// It is computed once per face per cycle and not retained.
type FeatureSummary struct {
	// Face is the clamped face rectangle in full-frame pixels.
	Face image.Rectangle

	EyeCount      int
	MeanEyeWidth  float64
	MeanEyeHeight float64

	// MouthCount is the number of smile-region detections in the lower half
	// of the face.
	MouthCount      int
	MeanMouthWidth  float64
	MeanMouthHeight float64

	// EyeAspectRatio is mean eye height / mean eye width (0 without eyes).
	EyeAspectRatio float64

	// RelativeEyeSize is mean eye height / face height (0 without eyes).
	RelativeEyeSize float64
}

// HasSmile reports whether at least one smile region was detected.
func (s FeatureSummary) HasSmile() bool {
	return s.MouthCount > 0
}

// SmileIntensity is the raw smile detection count, used as an
// evidence-strength proxy rather than a normalized score.
func (s FeatureSummary) SmileIntensity() float64 {
	return float64(s.MouthCount)
}

// Eyes returns the eye-count bucket.
func (s FeatureSummary) Eyes() EyeCount {
	switch {
	case s.EyeCount <= 0:
		return NoEyes
	case s.EyeCount == 1:
		return OneEye
	default:
		return TwoOrMoreEyes
	}
}

// Summarize derives the feature summary of a face from its eye and mouth
// detections. Eye and mouth rectangles may be in any coordinate system;
// only their sizes are used.
func Summarize(face image.Rectangle, eyes, mouths []image.Rectangle) FeatureSummary {
	s := FeatureSummary{
		Face:       face,
		EyeCount:   len(eyes),
		MouthCount: len(mouths),
	}

	s.MeanEyeWidth, s.MeanEyeHeight = meanSize(eyes)
	s.MeanMouthWidth, s.MeanMouthHeight = meanSize(mouths)

	if s.MeanEyeWidth > 0 {
		s.EyeAspectRatio = s.MeanEyeHeight / s.MeanEyeWidth
	}
	if h := face.Dy(); h > 0 {
		s.RelativeEyeSize = s.MeanEyeHeight / float64(h)
	}
	return s
}

func meanSize(rects []image.Rectangle) (w, h float64) {
	if len(rects) == 0 {
		return 0, 0
	}
	for _, r := range rects {
		w += float64(r.Dx())
		h += float64(r.Dy())
	}
	n := float64(len(rects))
	return w / n, h / n
}

// SummarizeRegions is Summarize over kind-tagged sub-detections. Eye and
// mouth regions are split by kind; empty regions and other kinds are
// ignored.
func SummarizeRegions(face image.Rectangle, regions []detection.Region) FeatureSummary {
	var eyes, mouths []image.Rectangle
	for _, r := range regions {
		if r.Area() <= 0 {
			continue
		}
		switch r.Kind {
		case detection.KindEye:
			eyes = append(eyes, r.Rect)
		case detection.KindMouth:
			mouths = append(mouths, r.Rect)
		}
	}
	return Summarize(face, eyes, mouths)
}
