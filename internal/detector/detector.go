package detector

import "gocv.io/x/gocv"

// FaceDetector defines the interface for face landmark sources.
type FaceDetector interface {
	// Detect analyzes a video frame and returns the landmark sets of detected faces.
	// Returns an empty slice if no face is detected.
	Detect(frame *gocv.Mat) ([]FaceLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// ObjectDetector defines the interface for object detection implementations.
type ObjectDetector interface {
	// Detect analyzes a video frame and returns labeled detections.
	// Returns an empty slice if nothing is detected.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// FaceConfig holds configuration options for face landmark detection.
type FaceConfig struct {
	// MaxFaces is the maximum number of faces to detect (default: 1).
	MaxFaces int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Script is the path to the face mesh worker script. Empty means search
	// the default locations.
	Script string

	// Python is the interpreter used to run the worker. Empty means use a
	// virtual environment if one is found, else python3.
	Python string
}

// DefaultFaceConfig returns a FaceConfig with sensible default values.
func DefaultFaceConfig() FaceConfig {
	return FaceConfig{
		MaxFaces:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// ObjectConfig holds configuration options for object detection.
type ObjectConfig struct {
	// ModelPath is the path to a YOLO ONNX model.
	ModelPath string

	// LabelsPath is an optional file with one class name per line.
	// The COCO class list is used when empty.
	LabelsPath string

	// InputSize is the square network input resolution (default: 320).
	InputSize int

	// Confidence is the minimum class score to keep a detection (default: 0.4).
	Confidence float64

	// NMSThreshold is the IoU threshold for non-maximum suppression (default: 0.45).
	NMSThreshold float64
}

// DefaultObjectConfig returns an ObjectConfig with sensible default values.
func DefaultObjectConfig() ObjectConfig {
	return ObjectConfig{
		InputSize:    320,
		Confidence:   0.4,
		NMSThreshold: 0.45,
	}
}
