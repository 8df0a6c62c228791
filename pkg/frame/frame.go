// Package frame defines the pixel buffer passed between capture, processing
// and presentation.
//
// Frames have copy semantics: a Frame handed to another goroutine must be a
// Clone, never a shared buffer that is still being written.
package frame

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// PixelFormat tags the channel layout of Pix.
type PixelFormat int

const (
	// FormatBGR is 8-bit, 3 channel, blue-green-red (OpenCV's native order).
	FormatBGR PixelFormat = iota
	// FormatGray is 8-bit single channel.
	FormatGray
)

// String returns the format name.
func (p PixelFormat) String() string {
	switch p {
	case FormatBGR:
		return "bgr"
	case FormatGray:
		return "gray"
	default:
		return "unknown"
	}
}

// Channels returns the number of bytes per pixel.
func (p PixelFormat) Channels() int {
	if p == FormatGray {
		return 1
	}
	return 3
}

// ErrInvalidFrame is returned when Pix does not match the frame geometry.
var ErrInvalidFrame = errors.New("frame: invalid geometry")

// Frame is a 2D pixel buffer.
type Frame struct {
	Width      int
	Height     int
	Format     PixelFormat
	Pix        []byte // row-major, Stride() bytes per row
	Seq        uint64 // producer sequence number (processing cycle for published frames)
	CapturedAt time.Time
}

// New allocates a zeroed frame.
func New(width, height int, format PixelFormat) Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return Frame{
		Width:  width,
		Height: height,
		Format: format,
		Pix:    make([]byte, width*height*format.Channels()),
	}
}

// Channels returns bytes per pixel.
func (f Frame) Channels() int {
	return f.Format.Channels()
}

// Stride returns bytes per row.
func (f Frame) Stride() int {
	return f.Width * f.Channels()
}

// Bounds returns the frame rectangle anchored at the origin.
func (f Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) == 0
}

// Validate checks that Pix is consistent with Width, Height and Format.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if want := f.Stride() * f.Height; len(f.Pix) != want {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrInvalidFrame, len(f.Pix), want)
	}
	return nil
}

// Clone returns a deep copy.
func (f Frame) Clone() Frame {
	out := f
	if f.Pix != nil {
		out.Pix = make([]byte, len(f.Pix))
		copy(out.Pix, f.Pix)
	}
	return out
}

// Image converts the frame to an image.Image.
// BGR frames become *image.RGBA, gray frames *image.Gray.
func (f Frame) Image() (image.Image, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	switch f.Format {
	case FormatGray:
		img := image.NewGray(f.Bounds())
		copy(img.Pix, f.Pix)
		return img, nil
	case FormatBGR:
		img := image.NewRGBA(f.Bounds())
		for i, j := 0, 0; i < len(f.Pix); i, j = i+3, j+4 {
			img.Pix[j] = f.Pix[i+2]
			img.Pix[j+1] = f.Pix[i+1]
			img.Pix[j+2] = f.Pix[i]
			img.Pix[j+3] = 0xff
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %s", ErrInvalidFrame, f.Format)
	}
}
