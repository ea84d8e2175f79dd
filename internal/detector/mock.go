package detector

import (
	"gocv.io/x/gocv"
)

// MockFaceDetector is a test implementation of the FaceDetector interface.
// It allows tests to control the detection results.
type MockFaceDetector struct {
	faces []FaceLandmarks
	err   error
}

// NewMockFaceDetector creates a new MockFaceDetector instance.
func NewMockFaceDetector() *MockFaceDetector {
	return &MockFaceDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockFaceDetector) SetFaces(faces []FaceLandmarks) {
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockFaceDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured faces or error.
func (m *MockFaceDetector) Detect(frame *gocv.Mat) ([]FaceLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Close is a no-op for the mock detector.
func (m *MockFaceDetector) Close() error {
	return nil
}

// MockObjectDetector is a test implementation of the ObjectDetector interface.
type MockObjectDetector struct {
	detections []Detection
	err        error
}

// NewMockObjectDetector creates a new MockObjectDetector instance.
func NewMockObjectDetector() *MockObjectDetector {
	return &MockObjectDetector{}
}

// SetDetections sets the detections that will be returned by Detect.
func (m *MockObjectDetector) SetDetections(detections []Detection) {
	m.detections = detections
}

// SetError sets the error that will be returned by Detect.
func (m *MockObjectDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured detections or error.
func (m *MockObjectDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

// Close is a no-op for the mock detector.
func (m *MockObjectDetector) Close() error {
	return nil
}

// FaceWithEAR returns a synthetic landmark set whose eyes both measure the
// given aspect ratio on a square frame. Only the twelve eye landmarks are
// placed; the rest sit at the face center.
func FaceWithEAR(ear float64) FaceLandmarks {
	face := FaceLandmarks{
		Points: make([]Point2D, NumFaceLandmarks),
		Score:  0.95,
	}
	for i := range face.Points {
		face.Points[i] = Point2D{X: 0.5, Y: 0.5}
	}

	placeEye(face.Points, RightEyeIndices, 0.35, 0.4, ear)
	placeEye(face.Points, LeftEyeIndices, 0.65, 0.4, ear)

	return face
}

// placeEye lays out an eye contour 0.1 wide centered at (cx, cy) whose lid
// openings produce the requested aspect ratio.
func placeEye(points []Point2D, indices [EyePoints]int, cx, cy, ear float64) {
	const width = 0.1
	half := width * ear / 2 // each lid pair spans ear*width

	points[indices[0]] = Point2D{X: cx - width/2, Y: cy}
	points[indices[1]] = Point2D{X: cx - width/6, Y: cy - half}
	points[indices[2]] = Point2D{X: cx + width/6, Y: cy - half}
	points[indices[3]] = Point2D{X: cx + width/2, Y: cy}
	points[indices[4]] = Point2D{X: cx + width/6, Y: cy + half}
	points[indices[5]] = Point2D{X: cx - width/6, Y: cy + half}
}

// OpenEyesLandmarks returns a preset landmark set of a driver with open eyes (EAR 0.30).
func OpenEyesLandmarks() FaceLandmarks {
	return FaceWithEAR(0.30)
}

// ClosedEyesLandmarks returns a preset landmark set of a driver with closed eyes (EAR 0.10).
func ClosedEyesLandmarks() FaceLandmarks {
	return FaceWithEAR(0.10)
}

// PhoneDetection returns a preset cell phone detection.
func PhoneDetection() Detection {
	return Detection{
		Label:      "cell phone",
		ClassID:    67,
		Confidence: 0.82,
	}
}
