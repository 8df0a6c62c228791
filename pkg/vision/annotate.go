package vision

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-facemood/pkg/emotion"
)

// Drawing parameters for face annotations.
const (
	BoxThickness    = 3
	TextThickness   = 2
	LabelScale      = 0.9
	ConfidenceScale = 0.6
	LabelOffsetY    = -10 // Label baseline relative to the box top
	ConfidenceGapY  = 25  // Confidence baseline below the box bottom
)

// Palette maps each label to its annotation color as an RGB hex string.
var Palette = map[emotion.Label]string{
	emotion.Happy:     "#00ff00",
	emotion.Sad:       "#0000ff",
	emotion.Angry:     "#ff0000",
	emotion.Surprised: "#00ffff",
	emotion.Fearful:   "#ff00ff",
	emotion.Disgusted: "#800080",
	emotion.Neutral:   "#808080",
}

var paletteRGBA = func() map[emotion.Label]color.RGBA {
	out := make(map[emotion.Label]color.RGBA, len(Palette))
	for label, hex := range Palette {
		c, err := colorful.Hex(hex)
		if err != nil {
			panic(fmt.Sprintf("vision: bad palette color %q for %s: %v", hex, label, err))
		}
		r, g, b := c.RGB255()
		out[label] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}()

// LabelColor returns the annotation color for a label. Unknown labels are
// drawn in the neutral color.
func LabelColor(l emotion.Label) color.RGBA {
	if c, ok := paletteRGBA[l]; ok {
		return c
	}
	return paletteRGBA[emotion.Neutral]
}

// LabelHex returns the annotation color as a hex string.
func LabelHex(l emotion.Label) string {
	if hex, ok := Palette[l]; ok {
		return hex
	}
	return Palette[emotion.Neutral]
}

// ConfidenceText formats a confidence as a whole percentage, truncated.
func ConfidenceText(confidence float64) string {
	return fmt.Sprintf("Conf: %d%%", int(confidence*100))
}

// Annotate draws a colored box, the label name, and the confidence for each
// estimate onto img. Empty boxes and boxes off the canvas are skipped.
func Annotate(img *gocv.Mat, estimates []emotion.Estimate) {
	canvas := image.Rect(0, 0, img.Cols(), img.Rows())

	for _, e := range estimates {
		box := e.Box
		if box.Empty() || !box.Overlaps(canvas) {
			continue
		}

		c := LabelColor(e.Label)
		gocv.Rectangle(img, box, c, BoxThickness)
		gocv.PutText(img, e.Label.String(),
			image.Pt(box.Min.X, box.Min.Y+LabelOffsetY),
			gocv.FontHersheySimplex, LabelScale, c, TextThickness)
		gocv.PutText(img, ConfidenceText(e.Confidence),
			image.Pt(box.Min.X, box.Max.Y+ConfidenceGapY),
			gocv.FontHersheySimplex, ConfidenceScale, c, TextThickness)
	}
}
