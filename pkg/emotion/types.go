// Package emotion classifies facial expressions from detection geometry.
//
// Classification is a fixed, ordered rule list evaluated first-match over a
// per-face FeatureSummary. The thresholds and confidence formulas define the
// observable classification boundaries; changing them changes what users see.
package emotion

import (
	"fmt"
	"image"
	"strings"
)

// Label is a discrete facial emotion.
type Label int

const (
	Neutral Label = iota
	Happy
	Sad
	Angry
	Surprised
	Fearful
	// Disgusted is a declared label that no rule currently produces.
	Disgusted
)

// Labels lists every label in declaration order.
var Labels = []Label{Neutral, Happy, Sad, Angry, Surprised, Fearful, Disgusted}

var labelNames = [...]string{
	Neutral:   "Neutral",
	Happy:     "Happy",
	Sad:       "Sad",
	Angry:     "Angry",
	Surprised: "Surprised",
	Fearful:   "Fearful",
	Disgusted: "Disgusted",
}

// String returns a human-readable label name.
func (l Label) String() string {
	if l < 0 || int(l) >= len(labelNames) {
		return "Unknown"
	}
	return labelNames[l]
}

// ParseLabel parses a label name, case-insensitively.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	return Neutral, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	if l < 0 || int(l) >= len(labelNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLabel, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Estimate is the classification of one detected face in one cycle.
// A cycle's estimates are published as a whole list; estimates carry no
// identity across cycles.
type Estimate struct {
	Label      Label   `json:"emotion"`
	Confidence float64 `json:"confidence"` // 0-1

	// CenterX, CenterY is the face center in full-frame pixels.
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`

	// Size is the face width in pixels.
	Size float64 `json:"size"`

	// Box is the clamped face rectangle.
	Box image.Rectangle `json:"-"`
}

// Leading returns the first estimate of a cycle, which the presentation
// layer treats as the dominant emotion.
func Leading(estimates []Estimate) (Estimate, bool) {
	if len(estimates) == 0 {
		return Estimate{}, false
	}
	return estimates[0], true
}

// Clone returns a copy of the list that shares no backing array.
func Clone(estimates []Estimate) []Estimate {
	if estimates == nil {
		return nil
	}
	out := make([]Estimate, len(estimates))
	copy(out, estimates)
	return out
}
