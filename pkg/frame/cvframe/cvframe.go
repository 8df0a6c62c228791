// Package cvframe converts between frame.Frame and gocv.Mat.
package cvframe

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facemood/pkg/frame"
)

// ToMat copies a frame into a new Mat. The caller owns the Mat and must
// Close it.
func ToMat(f frame.Frame) (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	mt := gocv.MatTypeCV8UC3
	if f.Format == frame.FormatGray {
		mt = gocv.MatTypeCV8UC1
	}

	// NewMatFromBytes may alias the Go slice, so hand back an owned clone.
	view, err := gocv.NewMatFromBytes(f.Height, f.Width, mt, f.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("cvframe: mat from bytes: %w", err)
	}
	defer view.Close()
	return view.Clone(), nil
}

// FromMat copies a Mat into a frame. 3 channel Mats become BGR frames,
// 1 channel Mats gray frames, 4 channel Mats are converted to BGR.
func FromMat(m gocv.Mat) (frame.Frame, error) {
	if m.Empty() {
		return frame.Frame{}, fmt.Errorf("%w: empty mat", frame.ErrInvalidFrame)
	}

	var (
		src    = m
		format frame.PixelFormat
	)
	switch m.Channels() {
	case 1:
		format = frame.FormatGray
	case 3:
		format = frame.FormatBGR
	case 4:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(m, &bgr, gocv.ColorBGRAToBGR)
		src = bgr
		format = frame.FormatBGR
	default:
		return frame.Frame{}, fmt.Errorf("%w: %d channels", frame.ErrInvalidFrame, m.Channels())
	}

	if !src.IsContinuous() {
		c := src.Clone()
		defer c.Close()
		src = c
	}

	f := frame.Frame{
		Width:      src.Cols(),
		Height:     src.Rows(),
		Format:     format,
		Pix:        src.ToBytes(),
		CapturedAt: time.Now(),
	}
	return f, f.Validate()
}
