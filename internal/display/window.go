package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// Window shows frames in a native OpenCV window. It must be used from the
// goroutine that created it.
type Window struct {
	window *gocv.Window
	exit   bool
	once   sync.Once
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	if title == "" {
		title = DefaultTitle
	}
	return &Window{window: gocv.NewWindow(title)}
}

// Render shows frame and polls the keyboard for ESC.
func (w *Window) Render(frame *gocv.Mat, _ Overlay) error {
	if frame == nil || frame.Empty() {
		return nil
	}

	w.window.IMShow(*frame)
	if w.window.WaitKey(1)&0xFF == KeyEscape {
		w.exit = true
	}
	return nil
}

// ExitRequested reports whether ESC was pressed.
func (w *Window) ExitRequested() bool {
	return w.exit
}

// Close destroys the window.
func (w *Window) Close() error {
	var err error
	w.once.Do(func() {
		err = w.window.Close()
	})
	return err
}
