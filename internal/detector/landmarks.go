// Package detector provides face landmark and object detection interfaces and types
// for driver attention monitoring.
package detector

import (
	"errors"
	"image"
	"math"
)

// Eye contour indices following the MediaPipe Face Mesh numbering.
// Order: outer corner, upper lid (2), inner corner, lower lid (2).
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
var (
	LeftEyeIndices  = [EyePoints]int{362, 385, 387, 263, 373, 380}
	RightEyeIndices = [EyePoints]int{33, 160, 158, 133, 153, 144}
)

const (
	// EyePoints is the number of contour points describing one eye.
	EyePoints = 6
	// NumFaceLandmarks is the size of a full MediaPipe Face Mesh landmark set.
	NumFaceLandmarks = 468
)

// ErrDegenerateGeometry is returned when the eye corners coincide and the
// aspect ratio is undefined.
var ErrDegenerateGeometry = errors.New("degenerate eye geometry: corner points coincide")

// ErrLandmarkIndex is returned when a landmark set is too short for the requested index.
var ErrLandmarkIndex = errors.New("landmark index out of range")

// Point2D represents a 2D point with x, y coordinates.
type Point2D struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// FaceLandmarks is the landmark set detected for one face.
// Points are normalized to [0,1] relative to the frame width and height.
type FaceLandmarks struct {
	Points []Point2D `json:"points" msgpack:"points"`
	Score  float64   `json:"score" msgpack:"score"`
}

// EyeShape is the ordered six-point contour of one eye.
// Pairs (1,5) and (2,4) span the lids vertically, (0,3) spans the corners.
type EyeShape [EyePoints]Point2D

// distance2D calculates the Euclidean distance between two 2D points.
func distance2D(a, b Point2D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// EyeAspectRatio computes the eye aspect ratio (EAR) of an eye contour:
//
//	(|p1-p5| + |p2-p4|) / (2 * |p0-p3|)
//
// Lower values mean a more closed eye. Returns ErrDegenerateGeometry when
// the horizontal corner distance is zero.
func EyeAspectRatio(eye EyeShape) (float64, error) {
	horizontal := distance2D(eye[0], eye[3])
	if horizontal < 1e-9 {
		return 0, ErrDegenerateGeometry
	}

	a := distance2D(eye[1], eye[5])
	b := distance2D(eye[2], eye[4])

	return (a + b) / (2.0 * horizontal), nil
}

// Eye extracts the contour of one eye using the given landmark indices.
// Points are scaled to pixel coordinates so the ratio is independent of
// the frame's aspect ratio.
func (f *FaceLandmarks) Eye(indices [EyePoints]int, width, height int) (EyeShape, error) {
	var eye EyeShape
	if f == nil {
		return eye, ErrLandmarkIndex
	}

	for i, idx := range indices {
		if idx < 0 || idx >= len(f.Points) {
			return eye, ErrLandmarkIndex
		}
		p := f.Points[idx]
		eye[i] = Point2D{X: p.X * float64(width), Y: p.Y * float64(height)}
	}

	return eye, nil
}

// AverageEAR returns the mean eye aspect ratio of the left and right eyes.
func (f *FaceLandmarks) AverageEAR(width, height int) (float64, error) {
	left, err := f.Eye(LeftEyeIndices, width, height)
	if err != nil {
		return 0, err
	}
	right, err := f.Eye(RightEyeIndices, width, height)
	if err != nil {
		return 0, err
	}

	leftEAR, err := EyeAspectRatio(left)
	if err != nil {
		return 0, err
	}
	rightEAR, err := EyeAspectRatio(right)
	if err != nil {
		return 0, err
	}

	return (leftEAR + rightEAR) / 2.0, nil
}

// Bounds returns the normalized bounding box of all landmark points as
// (minX, minY, maxX, maxY). An empty set yields all zeros.
func (f *FaceLandmarks) Bounds() (minX, minY, maxX, maxY float64) {
	if f == nil || len(f.Points) == 0 {
		return 0, 0, 0, 0
	}

	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range f.Points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// Area returns the normalized area of the landmark bounding box.
func (f *FaceLandmarks) Area() float64 {
	minX, minY, maxX, maxY := f.Bounds()
	return (maxX - minX) * (maxY - minY)
}

// Detection is a single object detector output for one frame.
type Detection struct {
	Label      string          `json:"label"`
	ClassID    int             `json:"class_id"`
	Confidence float64         `json:"confidence"`
	Box        image.Rectangle `json:"box"`
}
