// Package detection holds the detector-independent geometry of face and
// facial-feature detection: region kinds, per-kind search parameters, and
// the coordinate mapping between the downscaled search image, the full
// frame, and a face's local coordinates.
package detection

import (
	"image"
)

// Kind identifies what a region was detected as.
type Kind int

const (
	KindFace Kind = iota
	KindEye
	KindMouth
)

// Kinds lists every kind in detector load order.
var Kinds = []Kind{KindFace, KindEye, KindMouth}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFace:
		return "face"
	case KindEye:
		return "eye"
	case KindMouth:
		return "mouth"
	default:
		return "unknown"
	}
}

// Region is an axis-aligned rectangle in image pixels, tagged with its kind.
type Region struct {
	Kind Kind
	Rect image.Rectangle
}

// Center returns the center point of the region
func (r Region) Center() (x, y float64) {
	return Center(r.Rect)
}

// Area returns the area of the bounding box
func (r Region) Area() int {
	return r.Rect.Dx() * r.Rect.Dy()
}

// Center returns the center point of a rectangle.
func Center(r image.Rectangle) (x, y float64) {
	return float64(r.Min.X) + float64(r.Dx())/2, float64(r.Min.Y) + float64(r.Dy())/2
}

// DownscaleFactor is applied to the grayscale frame before face search.
// Sub-feature search and drawing always use full resolution.
const DownscaleFactor = 0.5

// Params are the multi-scale search parameters for one detector kind.
type Params struct {
	ScaleFactor  float64 // Image pyramid step
	MinNeighbors int     // Overlapping candidates required to accept a region
	MinSize      int     // Smallest square region searched, in pixels
}

// MinSizePoint returns MinSize as a square image.Point.
func (p Params) MinSizePoint() image.Point {
	return image.Pt(p.MinSize, p.MinSize)
}

// DefaultParams returns the fixed search parameters for a kind.
// Smile detectors need far stronger evidence than face or eye detectors,
// hence the larger step and neighbor count for KindMouth.
func DefaultParams(kind Kind) Params {
	switch kind {
	case KindEye:
		return Params{ScaleFactor: 1.1, MinNeighbors: 3, MinSize: 15}
	case KindMouth:
		return Params{ScaleFactor: 1.8, MinNeighbors: 20, MinSize: 25}
	default:
		return Params{ScaleFactor: 1.1, MinNeighbors: 3, MinSize: 20}
	}
}

// Upscale maps a rectangle found on an image downscaled by factor back to
// full-resolution coordinates.
func Upscale(r image.Rectangle, factor float64) image.Rectangle {
	if factor <= 0 || factor == 1 {
		return r
	}
	inv := 1 / factor
	x := int(float64(r.Min.X) * inv)
	y := int(float64(r.Min.Y) * inv)
	w := int(float64(r.Dx()) * inv)
	h := int(float64(r.Dy()) * inv)
	return image.Rect(x, y, x+w, y+h)
}

// Clamp moves the origin of r to be non-negative and trims its width and
// height so it lies inside a frame of size bounds. ok is false when the
// clamped width or height is <= 0; such regions must be discarded.
func Clamp(r image.Rectangle, bounds image.Point) (image.Rectangle, bool) {
	x, y := r.Min.X, r.Min.Y
	w, h := r.Dx(), r.Dy()

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if w > bounds.X-x {
		w = bounds.X - x
	}
	if h > bounds.Y-y {
		h = bounds.Y - y
	}
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}

// ScaleToFrame upscales face rectangles found on the downscaled image and
// clamps them to the full frame, dropping any that end up empty.
func ScaleToFrame(faces []image.Rectangle, factor float64, frame image.Point) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(faces))
	for _, f := range faces {
		if r, ok := Clamp(Upscale(f, factor), frame); ok {
			out = append(out, r)
		}
	}
	return out
}

// LowerHalf returns, in face-local coordinates, the rows from mid-height to
// the bottom of a face of the given size. Smile search runs only there so
// eyebrows and nostrils are not mistaken for a mouth.
func LowerHalf(size image.Point) image.Rectangle {
	top := size.Y / 2
	return image.Rect(0, top, size.X, top+size.Y/2)
}

// Translate shifts every rectangle by offset.
func Translate(rects []image.Rectangle, offset image.Point) []image.Rectangle {
	out := make([]image.Rectangle, len(rects))
	for i, r := range rects {
		out[i] = r.Add(offset)
	}
	return out
}

// Tag wraps rectangles as regions of one kind.
func Tag(kind Kind, rects []image.Rectangle) []Region {
	out := make([]Region, len(rects))
	for i, r := range rects {
		out[i] = Region{Kind: kind, Rect: r}
	}
	return out
}
