package emotion

import "github.com/teslashibe/go-facemood/pkg/detection"

// Rule is one entry of the ordered classification list.
type Rule struct {
	Name       string
	Label      Label
	Match      func(FeatureSummary) bool
	Confidence func(FeatureSummary) float64
}

// Thresholds on relative eye size used by the rule list.
const (
	SurprisedEyeSize   = 0.15
	SadEyeSizeBelow    = 0.12
	FearfulEyeSizeOver = 0.13
)

// rules is evaluated top to bottom and the first match wins. The order
// encodes priority: a smile outranks every eye-based rule.
var rules = []Rule{
	{
		Name:  "smile",
		Label: Happy,
		Match: func(s FeatureSummary) bool {
			return s.HasSmile() && s.SmileIntensity() >= 1
		},
		Confidence: func(s FeatureSummary) float64 {
			return clamp01(0.6 + s.SmileIntensity()*0.1)
		},
	},
	{
		Name:  "wide-eyes",
		Label: Surprised,
		Match: func(s FeatureSummary) bool {
			return s.Eyes() == TwoOrMoreEyes && s.RelativeEyeSize > SurprisedEyeSize
		},
		Confidence: func(s FeatureSummary) float64 {
			return clamp01(0.55 + s.RelativeEyeSize*2.0)
		},
	},
	{
		Name:  "narrowed-eyes",
		Label: Angry,
		Match: func(s FeatureSummary) bool {
			return (s.Eyes() == NoEyes || s.Eyes() == OneEye) && !s.HasSmile()
		},
		Confidence: fixed(0.55),
	},
	{
		Name:  "small-eyes",
		Label: Sad,
		Match: func(s FeatureSummary) bool {
			return s.Eyes() == TwoOrMoreEyes && !s.HasSmile() && s.RelativeEyeSize < SadEyeSizeBelow
		},
		Confidence: fixed(0.5),
	},
	{
		Name:  "open-eyes",
		Label: Fearful,
		Match: func(s FeatureSummary) bool {
			return s.Eyes() == TwoOrMoreEyes && s.RelativeEyeSize > FearfulEyeSizeOver && !s.HasSmile()
		},
		Confidence: fixed(0.5),
	},
}

// Rules returns a copy of the ordered rule list.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// NeutralConfidence is reported when no rule matches.
const NeutralConfidence = 0.6

// Classify returns the label and confidence for a face. It is a pure
// function of the summary.
func Classify(s FeatureSummary) (Label, float64) {
	for _, r := range rules {
		if r.Match(s) {
			return r.Label, r.Confidence(s)
		}
	}
	return Neutral, NeutralConfidence
}

// NewEstimate classifies a summary and fills in the face geometry.
func NewEstimate(s FeatureSummary) Estimate {
	label, conf := Classify(s)
	cx, cy := detection.Center(s.Face)
	return Estimate{
		Label:      label,
		Confidence: conf,
		CenterX:    cx,
		CenterY:    cy,
		Size:       float64(s.Face.Dx()),
		Box:        s.Face,
	}
}

func fixed(v float64) func(FeatureSummary) float64 {
	return func(FeatureSummary) float64 { return v }
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
