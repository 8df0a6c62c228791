package frame

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when a caller passes quality <= 0.
const DefaultJPEGQuality = 80

// EncodeJPEG encodes the frame as JPEG.
func EncodeJPEG(f Frame, quality int) ([]byte, error) {
	img, err := f.Image()
	if err != nil {
		return nil, err
	}
	return encode(img, quality)
}

// Thumbnail scales the frame to fit inside maxW x maxH, preserving the
// aspect ratio, and encodes the result as JPEG. Frames already smaller than
// the box are encoded unchanged.
func Thumbnail(f Frame, maxW, maxH, quality int) ([]byte, error) {
	if maxW <= 0 || maxH <= 0 {
		return nil, fmt.Errorf("thumbnail: invalid box %dx%d", maxW, maxH)
	}
	img, err := f.Image()
	if err != nil {
		return nil, err
	}
	return encode(imaging.Fit(img, maxW, maxH, imaging.Linear), quality)
}

func encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
