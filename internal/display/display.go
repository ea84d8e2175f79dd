// Package display renders annotated frames to the screen, to the log, or
// to an in-memory buffer served as an MJPEG stream.
package display

import (
	"errors"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/vigil/internal/detector"
)

// DefaultTitle is the window title.
const DefaultTitle = "Driver Safety Monitor"

// KeyEscape is the key code that ends the session.
const KeyEscape = 27

var (
	statusColor = color.RGBA{R: 255, A: 0}
	boxColor    = color.RGBA{G: 255, A: 0}
)

// Overlay is the status drawn on top of a frame.
type Overlay struct {
	Text       string
	Alarming   bool
	Paused     bool
	Detections []detector.Detection
}

// Sink accepts annotated frames.
type Sink interface {
	Render(frame *gocv.Mat, ov Overlay) error
	// ExitRequested reports whether the user asked to stop.
	ExitRequested() bool
	Close() error
}

// Annotate draws the overlay text and detection boxes onto frame in place.
func Annotate(frame *gocv.Mat, ov Overlay) {
	if frame == nil || frame.Empty() {
		return
	}

	for _, d := range ov.Detections {
		if d.Box.Empty() {
			continue
		}
		gocv.Rectangle(frame, d.Box, boxColor, 2)
		gocv.PutText(frame, d.Label, d.Box.Min.Add(image.Pt(0, -6)), gocv.FontHersheySimplex, 0.5, boxColor, 1)
	}

	text := ov.Text
	if ov.Paused {
		text = "Paused"
	}
	gocv.PutText(frame, text, image.Pt(10, 30), gocv.FontHersheySimplex, 0.7, statusColor, 2)
}

// Multi fans frames out to several sinks.
type Multi []Sink

// Render passes frame to every sink and joins their errors.
func (m Multi) Render(frame *gocv.Mat, ov Overlay) error {
	var errs []error
	for _, s := range m {
		if err := s.Render(frame, ov); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExitRequested reports whether any sink asked to stop.
func (m Multi) ExitRequested() bool {
	for _, s := range m {
		if s.ExitRequested() {
			return true
		}
	}
	return false
}

// Close closes every sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
