package vision

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facemood/internal/log"
	"github.com/teslashibe/go-facemood/pkg/debug"
	"github.com/teslashibe/go-facemood/pkg/detection"
	"github.com/teslashibe/go-facemood/pkg/emotion"
	"github.com/teslashibe/go-facemood/pkg/frame"
	"github.com/teslashibe/go-facemood/pkg/frame/cvframe"
)

// ErrEmptyFrame is returned by Process for a frame without pixels.
var ErrEmptyFrame = errors.New("vision: empty frame")

// Pipeline turns one captured frame into an annotated frame and the list of
// emotion estimates for the faces in it. It is not safe for concurrent use;
// a single processing loop owns it.
type Pipeline struct {
	detectors Set
	logger    *slog.Logger
}

// NewPipeline creates a pipeline over a detector set. Missing detectors are
// replaced by null detectors.
func NewPipeline(detectors Set, logger *slog.Logger) *Pipeline {
	for _, k := range detection.Kinds {
		if detectors.Get(k) == nil {
			switch k {
			case detection.KindFace:
				detectors.Face = Null(k)
			case detection.KindEye:
				detectors.Eye = Null(k)
			case detection.KindMouth:
				detectors.Mouth = Null(k)
			}
		}
	}
	return &Pipeline{
		detectors: detectors,
		logger:    log.OrDefault(logger, "vision"),
	}
}

// Detectors returns the detector set in use.
func (p *Pipeline) Detectors() Set {
	return p.detectors
}

// Process runs detection and classification on f.
//
// The frame is mirrored horizontally first; all returned coordinates and the
// annotated frame are in mirrored space. Faces are searched on a half-size,
// histogram-equalized grayscale copy; eyes and smiles are searched inside
// each face on the full-resolution grayscale image, smiles only in the lower
// half of the face.
func (p *Pipeline) Process(f frame.Frame) (frame.Frame, []emotion.Estimate, error) {
	if f.Empty() {
		return frame.Frame{}, nil, ErrEmptyFrame
	}

	src, err := cvframe.ToMat(f)
	if err != nil {
		return frame.Frame{}, nil, fmt.Errorf("vision: %w", err)
	}
	defer src.Close()

	canvas := gocv.NewMat()
	defer canvas.Close()
	gocv.Flip(src, &canvas, 1)

	gray := gocv.NewMat()
	defer gray.Close()
	if canvas.Channels() == 1 {
		canvas.CopyTo(&gray)
		gocv.CvtColor(gray, &canvas, gocv.ColorGrayToBGR)
	} else {
		gocv.CvtColor(canvas, &gray, gocv.ColorBGRToGray)
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(gray, &small, image.Point{}, detection.DownscaleFactor, detection.DownscaleFactor, gocv.InterpolationLinear)

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(small, &equalized)

	frameSize := image.Pt(gray.Cols(), gray.Rows())
	faces := detection.ScaleToFrame(p.detectors.Face.Detect(equalized), detection.DownscaleFactor, frameSize)

	estimates := make([]emotion.Estimate, 0, len(faces))
	for i, face := range faces {
		regions := p.subFeatures(gray, face)
		summary := emotion.SummarizeRegions(face, regions)
		est := emotion.NewEstimate(summary)
		estimates = append(estimates, est)

		debug.FeatureLog("🔬 face %d %v: eyes=%d EAR=%.2f relEye=%.3f smile=%.0f -> %s (%.2f)\n",
			i, face, summary.EyeCount, summary.EyeAspectRatio, summary.RelativeEyeSize,
			summary.SmileIntensity(), est.Label, est.Confidence)
		if debug.Features {
			for _, r := range regions {
				x, y := r.Center()
				debug.FeatureLog("   %s at (%.0f, %.0f) area=%d\n", r.Kind, x, y, r.Area())
			}
		}
	}

	Annotate(&canvas, estimates)

	out, err := cvframe.FromMat(canvas)
	if err != nil {
		return frame.Frame{}, nil, fmt.Errorf("vision: %w", err)
	}
	out.Seq = f.Seq
	out.CapturedAt = f.CapturedAt

	return out, estimates, nil
}

// subFeatures runs the eye and smile searches inside one face and returns
// the hits in face-local coordinates, tagged by the kind of the detector
// that produced them.
func (p *Pipeline) subFeatures(gray gocv.Mat, face image.Rectangle) []detection.Region {
	roi := gray.Region(face)
	defer roi.Close()

	eye := p.detectors.Eye
	regions := detection.Tag(eye.Kind(), eye.Detect(roi))

	lower := detection.LowerHalf(image.Pt(roi.Cols(), roi.Rows()))
	if !lower.Empty() {
		mouth := p.detectors.Mouth
		lowerROI := roi.Region(lower)
		regions = append(regions, detection.Tag(mouth.Kind(), detection.Translate(mouth.Detect(lowerROI), lower.Min))...)
		lowerROI.Close()
	}
	return regions
}

// Close releases the detectors.
func (p *Pipeline) Close() error {
	return p.detectors.Close()
}
