package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// YOLODetector implements ObjectDetector with a YOLOv8 ONNX model run through OpenCV DNN.
type YOLODetector struct {
	net    gocv.Net
	config ObjectConfig
	labels []string
	mu     sync.Mutex
}

// NewYOLODetector loads the ONNX model and class labels described by config.
func NewYOLODetector(config ObjectConfig) (*YOLODetector, error) {
	if config.ModelPath == "" {
		return nil, fmt.Errorf("object model path is not set")
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("object model: %w", err)
	}

	defaults := DefaultObjectConfig()
	if config.InputSize <= 0 {
		config.InputSize = defaults.InputSize
	}
	if config.Confidence <= 0 {
		config.Confidence = defaults.Confidence
	}
	if config.NMSThreshold <= 0 {
		config.NMSThreshold = defaults.NMSThreshold
	}

	labels := COCOLabels
	if config.LabelsPath != "" {
		loaded, err := LoadLabels(config.LabelsPath)
		if err != nil {
			return nil, err
		}
		labels = loaded
	}

	net := gocv.ReadNetFromONNX(config.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load object model %s", config.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLODetector{
		net:    net,
		config: config,
		labels: labels,
	}, nil
}

// Detect runs the network on a frame and returns detections above the
// confidence floor after non-maximum suppression.
func (d *YOLODetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	size := d.config.InputSize
	blob := gocv.BlobFromImage(*frame, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	return d.decode(out, frame.Cols(), frame.Rows())
}

// decode parses a YOLOv8 output tensor of shape [1, 4+classes, anchors].
func (d *YOLODetector) decode(out gocv.Mat, frameW, frameH int) ([]Detection, error) {
	dims := out.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	attrs, anchors := dims[1], dims[2]
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	scaleX := float64(frameW) / float64(d.config.InputSize)
	scaleY := float64(frameH) / float64(d.config.InputSize)

	var boxes []image.Rectangle
	var scores []float32
	var classes []int

	for i := 0; i < anchors; i++ {
		bestClass, bestScore := -1, float32(0)
		for c := 4; c < attrs; c++ {
			if s := data[c*anchors+i]; s > bestScore {
				bestClass, bestScore = c-4, s
			}
		}
		if bestClass < 0 || float64(bestScore) < d.config.Confidence {
			continue
		}

		cx := float64(data[0*anchors+i])
		cy := float64(data[1*anchors+i])
		w := float64(data[2*anchors+i])
		h := float64(data[3*anchors+i])

		x0 := int((cx - w/2) * scaleX)
		y0 := int((cy - h/2) * scaleY)
		x1 := int((cx + w/2) * scaleX)
		y1 := int((cy + h/2) * scaleY)

		boxes = append(boxes, image.Rect(x0, y0, x1, y1))
		scores = append(scores, bestScore)
		classes = append(classes, bestClass)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	keep := gocv.NMSBoxes(boxes, scores, float32(d.config.Confidence), float32(d.config.NMSThreshold))

	detections := make([]Detection, 0, len(keep))
	for _, idx := range keep {
		detections = append(detections, Detection{
			Label:      d.label(classes[idx]),
			ClassID:    classes[idx],
			Confidence: float64(scores[idx]),
			Box:        boxes[idx],
		})
	}

	return detections, nil
}

func (d *YOLODetector) label(class int) string {
	if class >= 0 && class < len(d.labels) {
		return d.labels[class]
	}
	return fmt.Sprintf("class_%d", class)
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
