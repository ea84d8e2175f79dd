// Package testdata provides synthetic frame fixtures for pipeline tests.
package testdata

import (
	"gocv.io/x/gocv"
)

// FrameSize is the edge length of generated test frames.
const FrameSize = 480

// Frames returns n black FrameSize x FrameSize BGR frames.
func Frames(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(FrameSize, FrameSize, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return frames
}

// CloseAll releases every frame in the slice.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}
