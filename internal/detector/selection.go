package detector

import "fmt"

// Selector picks the driver's face out of the faces detected in one frame.
// It returns nil when faces is empty.
type Selector func(faces []FaceLandmarks) *FaceLandmarks

// SelectFirst returns the first detected face.
func SelectFirst(faces []FaceLandmarks) *FaceLandmarks {
	if len(faces) == 0 {
		return nil
	}
	return &faces[0]
}

// SelectLargest returns the face with the largest landmark bounding box,
// which is usually the one closest to the camera.
func SelectLargest(faces []FaceLandmarks) *FaceLandmarks {
	var best *FaceLandmarks
	bestArea := -1.0
	for i := range faces {
		if area := faces[i].Area(); area > bestArea {
			best = &faces[i]
			bestArea = area
		}
	}
	return best
}

// SelectMostConfident returns the face with the highest detection score.
// Ties go to the earliest face, so with a source that scores every face
// equally (the MediaPipe worker reports 1.0) it behaves like SelectFirst.
func SelectMostConfident(faces []FaceLandmarks) *FaceLandmarks {
	var best *FaceLandmarks
	for i := range faces {
		if best == nil || faces[i].Score > best.Score {
			best = &faces[i]
		}
	}
	return best
}

// ParseSelector maps a strategy name to a Selector.
// Accepted names are "first", "largest" and "confident"; empty means "first".
func ParseSelector(name string) (Selector, error) {
	switch name {
	case "", "first":
		return SelectFirst, nil
	case "largest":
		return SelectLargest, nil
	case "confident":
		return SelectMostConfident, nil
	default:
		return nil, fmt.Errorf("unknown face selection strategy %q", name)
	}
}
