package detector

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const epsilon = 1e-9

func TestEyeAspectRatio(t *testing.T) {
	t.Run("known geometry", func(t *testing.T) {
		// Corners 4 apart, both lid pairs 2 apart: (2+2)/(2*4) = 0.5
		eye := EyeShape{
			{X: 0, Y: 0},
			{X: 1, Y: -1},
			{X: 3, Y: -1},
			{X: 4, Y: 0},
			{X: 3, Y: 1},
			{X: 1, Y: 1},
		}

		ear, err := EyeAspectRatio(eye)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(ear-0.5) > epsilon {
			t.Errorf("expected EAR 0.5, got %f", ear)
		}
	})

	t.Run("closed eye is zero", func(t *testing.T) {
		eye := EyeShape{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 3, Y: 0},
			{X: 4, Y: 0}, {X: 3, Y: 0}, {X: 1, Y: 0},
		}

		ear, err := EyeAspectRatio(eye)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ear != 0 {
			t.Errorf("expected EAR 0, got %f", ear)
		}
	})

	t.Run("coincident corners are degenerate", func(t *testing.T) {
		eye := EyeShape{
			{X: 2, Y: 2}, {X: 1, Y: 1}, {X: 3, Y: 1},
			{X: 2, Y: 2}, {X: 3, Y: 3}, {X: 1, Y: 3},
		}

		ear, err := EyeAspectRatio(eye)
		if !errors.Is(err, ErrDegenerateGeometry) {
			t.Fatalf("expected ErrDegenerateGeometry, got %v", err)
		}
		if math.IsInf(ear, 0) || math.IsNaN(ear) {
			t.Errorf("degenerate geometry must not produce %f", ear)
		}
	})
}

func TestEyeAspectRatio_Properties(t *testing.T) {
	shapes := []EyeShape{
		{{X: 0, Y: 0}, {X: 1, Y: -1}, {X: 3, Y: -1}, {X: 4, Y: 0}, {X: 3, Y: 1}, {X: 1, Y: 1}},
		{{X: 10, Y: 5}, {X: 12, Y: 4.2}, {X: 15, Y: 4.1}, {X: 18, Y: 5.3}, {X: 15, Y: 6}, {X: 12, Y: 5.9}},
		{{X: -3, Y: 2}, {X: -2, Y: 1.5}, {X: -1, Y: 1.4}, {X: 0, Y: 2.1}, {X: -1, Y: 2.6}, {X: -2, Y: 2.5}},
		{{X: 0.31, Y: 0.40}, {X: 0.33, Y: 0.39}, {X: 0.36, Y: 0.39}, {X: 0.38, Y: 0.40}, {X: 0.36, Y: 0.41}, {X: 0.33, Y: 0.41}},
	}

	for i, eye := range shapes {
		ear, err := EyeAspectRatio(eye)
		if err != nil {
			t.Fatalf("shape %d: unexpected error: %v", i, err)
		}
		if ear < 0 {
			t.Errorf("shape %d: EAR must be non-negative, got %f", i, ear)
		}

		// Reflect about the horizontal axis y = 0.
		var reflected EyeShape
		for j, p := range eye {
			reflected[j] = Point2D{X: p.X, Y: -p.Y}
		}
		reflectedEAR, err := EyeAspectRatio(reflected)
		if err != nil {
			t.Fatalf("shape %d: unexpected error on reflection: %v", i, err)
		}
		if math.Abs(ear-reflectedEAR) > epsilon {
			t.Errorf("shape %d: EAR %f changed to %f under reflection", i, ear, reflectedEAR)
		}
	}
}

func TestFaceLandmarks_AverageEAR(t *testing.T) {
	tests := []struct {
		name string
		ear  float64
	}{
		{name: "open", ear: 0.30},
		{name: "closed", ear: 0.10},
		{name: "threshold", ear: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face := FaceWithEAR(tt.ear)

			got, err := face.AverageEAR(480, 480)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.ear) > 1e-6 {
				t.Errorf("AverageEAR() = %f, want %f", got, tt.ear)
			}
		})
	}

	t.Run("short landmark set", func(t *testing.T) {
		face := FaceLandmarks{Points: make([]Point2D, 100)}

		if _, err := face.AverageEAR(640, 480); !errors.Is(err, ErrLandmarkIndex) {
			t.Errorf("expected ErrLandmarkIndex, got %v", err)
		}
	})

	t.Run("nil face", func(t *testing.T) {
		var face *FaceLandmarks

		if _, err := face.AverageEAR(640, 480); !errors.Is(err, ErrLandmarkIndex) {
			t.Errorf("expected ErrLandmarkIndex, got %v", err)
		}
	})

	t.Run("collapsed face is degenerate", func(t *testing.T) {
		face := FaceLandmarks{Points: make([]Point2D, NumFaceLandmarks)}

		if _, err := face.AverageEAR(640, 480); !errors.Is(err, ErrDegenerateGeometry) {
			t.Errorf("expected ErrDegenerateGeometry, got %v", err)
		}
	})
}

func TestFaceLandmarks_Eye_ScalesToPixels(t *testing.T) {
	face := FaceWithEAR(0.3)

	eye, err := face.Eye(RightEyeIndices, 640, 480)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := face.Points[RightEyeIndices[0]]
	if math.Abs(eye[0].X-want.X*640) > epsilon || math.Abs(eye[0].Y-want.Y*480) > epsilon {
		t.Errorf("eye[0] = %+v, want scaled %+v", eye[0], want)
	}
}

func TestSelectors(t *testing.T) {
	small := FaceWithEAR(0.3)
	small.Score = 0.99
	for i := range small.Points {
		small.Points[i].X = 0.5 + (small.Points[i].X-0.5)*0.5
		small.Points[i].Y = 0.5 + (small.Points[i].Y-0.5)*0.5
	}
	large := FaceWithEAR(0.2)
	large.Score = 0.6

	faces := []FaceLandmarks{small, large}

	t.Run("first", func(t *testing.T) {
		if got := SelectFirst(faces); got != &faces[0] {
			t.Error("SelectFirst should return the first face")
		}
	})

	t.Run("largest", func(t *testing.T) {
		if got := SelectLargest(faces); got != &faces[1] {
			t.Error("SelectLargest should return the face with the larger bounding box")
		}
	})

	t.Run("confident", func(t *testing.T) {
		if got := SelectMostConfident(faces); got != &faces[0] {
			t.Error("SelectMostConfident should return the highest scored face")
		}
	})

	t.Run("confident tie keeps first", func(t *testing.T) {
		tied := []FaceLandmarks{small, large}
		tied[0].Score, tied[1].Score = 1, 1
		if got := SelectMostConfident(tied); got != &tied[0] {
			t.Error("equal scores should resolve to the first face")
		}
	})

	t.Run("empty", func(t *testing.T) {
		for name, sel := range map[string]Selector{
			"first":     SelectFirst,
			"largest":   SelectLargest,
			"confident": SelectMostConfident,
		} {
			if got := sel(nil); got != nil {
				t.Errorf("%s: expected nil for no faces, got %v", name, got)
			}
		}
	})
}

func TestParseSelector(t *testing.T) {
	for _, name := range []string{"", "first", "largest", "confident"} {
		if _, err := ParseSelector(name); err != nil {
			t.Errorf("ParseSelector(%q) error = %v", name, err)
		}
	}

	if _, err := ParseSelector("tallest"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestLoadLabels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.txt")
	if err := os.WriteFile(path, []byte("person\n\ncell phone\n  book  \n"), 0644); err != nil {
		t.Fatalf("failed to write labels: %v", err)
	}

	labels, err := LoadLabels(path)
	if err != nil {
		t.Fatalf("LoadLabels() error = %v", err)
	}

	want := []string{"person", "cell phone", "book"}
	if len(labels) != len(want) {
		t.Fatalf("got %d labels, want %d", len(labels), len(want))
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], want[i])
		}
	}

	if COCOLabels[67] != "cell phone" {
		t.Errorf("COCO class 67 = %q, want cell phone", COCOLabels[67])
	}
}

func TestMockDetectors(t *testing.T) {
	t.Run("face mock returns nil by default", func(t *testing.T) {
		mock := NewMockFaceDetector()

		faces, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if faces != nil {
			t.Errorf("expected nil faces, got %v", faces)
		}
	})

	t.Run("face mock returns configured error", func(t *testing.T) {
		mock := NewMockFaceDetector()
		mock.SetFaces([]FaceLandmarks{OpenEyesLandmarks()})
		expectedErr := errors.New("worker crashed")
		mock.SetError(expectedErr)

		faces, err := mock.Detect(nil)
		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if faces != nil {
			t.Errorf("expected nil faces when error is set, got %v", faces)
		}
	})

	t.Run("object mock returns configured detections", func(t *testing.T) {
		mock := NewMockObjectDetector()
		mock.SetDetections([]Detection{PhoneDetection()})

		dets, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(dets) != 1 || dets[0].Label != "cell phone" {
			t.Errorf("unexpected detections %v", dets)
		}
	})

	t.Run("implements interfaces", func(t *testing.T) {
		var _ FaceDetector = (*MockFaceDetector)(nil)
		var _ ObjectDetector = (*MockObjectDetector)(nil)
		var _ FaceDetector = (*MediaPipeFaceDetector)(nil)
		var _ ObjectDetector = (*YOLODetector)(nil)
	})
}

func TestNewYOLODetector_MissingModel(t *testing.T) {
	if _, err := NewYOLODetector(ObjectConfig{}); err == nil {
		t.Error("expected error when model path is empty")
	}
	if _, err := NewYOLODetector(ObjectConfig{ModelPath: filepath.Join(t.TempDir(), "missing.onnx")}); err == nil {
		t.Error("expected error for missing model file")
	}
}
