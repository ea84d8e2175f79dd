package monitor

// Debouncer turns a per-frame eye-aspect ratio into a sustained-closure
// signal. It is slow to trigger and instant to clear.
type Debouncer struct {
	// Threshold is the EAR below which a frame counts as closed.
	Threshold float64
	// Frames is the number of consecutive closed frames needed to report closure.
	Frames int

	counter int
}

// NewDebouncer creates a Debouncer with the given threshold and frame count.
func NewDebouncer(threshold float64, frames int) *Debouncer {
	return &Debouncer{Threshold: threshold, Frames: frames}
}

// Update feeds one frame and reports whether the eyes are in sustained closure.
// A frame without a face resets the streak.
func (d *Debouncer) Update(ratio float64, facePresent bool) bool {
	switch {
	case !facePresent:
		d.counter = 0
	case ratio < d.Threshold:
		d.counter++
	default:
		d.counter = 0
	}
	return d.Closed()
}

// Counter returns the current number of consecutive closed frames.
func (d *Debouncer) Counter() int {
	return d.counter
}

// Closed reports whether the streak has reached Frames.
func (d *Debouncer) Closed() bool {
	return d.counter > 0 && d.counter >= d.Frames
}

// Reset clears the streak.
func (d *Debouncer) Reset() {
	d.counter = 0
}
