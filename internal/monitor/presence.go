package monitor

import "github.com/ayusman/vigil/internal/detector"

// DefaultTarget is the detector label treated as a distraction object.
const DefaultTarget = "cell phone"

// PresenceClassifier reduces a frame's detections to a single
// "distraction object present" flag.
type PresenceClassifier struct {
	Targets []string
}

// NewPresenceClassifier creates a classifier for the given labels. With no
// labels it falls back to DefaultTarget.
func NewPresenceClassifier(targets ...string) *PresenceClassifier {
	if len(targets) == 0 {
		targets = []string{DefaultTarget}
	}
	return &PresenceClassifier{Targets: targets}
}

// Present reports whether any detection carries a target label.
func (c *PresenceClassifier) Present(dets []detector.Detection) bool {
	for _, d := range dets {
		if c.isTarget(d.Label) {
			return true
		}
	}
	return false
}

func (c *PresenceClassifier) isTarget(label string) bool {
	for _, t := range c.Targets {
		if t == label {
			return true
		}
	}
	return false
}
