package display

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrBufferClosed is returned by Next once the buffer is closed.
var ErrBufferClosed = errors.New("frame buffer closed")

// FrameBuffer keeps the most recent frame as JPEG for streaming clients.
// Older frames are overwritten, so slow readers skip frames instead of
// holding up the monitor loop.
type FrameBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jpeg   []byte
	status Overlay
	seq    uint64
	closed bool
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	b := &FrameBuffer{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Render encodes frame as JPEG and replaces the stored frame.
func (b *FrameBuffer) Render(frame *gocv.Mat, ov Overlay) error {
	if frame == nil || frame.Empty() {
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	b.Publish(data, ov)
	return nil
}

// Publish stores an already encoded JPEG and wakes waiting readers.
func (b *FrameBuffer) Publish(jpeg []byte, ov Overlay) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.jpeg = jpeg
	b.status = ov
	b.seq++
	b.cond.Broadcast()
}

// Latest returns the current frame and its sequence number. The sequence is
// zero before the first frame.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.seq
}

// Status returns the overlay of the latest frame.
func (b *FrameBuffer) Status() Overlay {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Next blocks until a frame newer than after is available, ctx is done, or
// the buffer is closed.
func (b *FrameBuffer) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	stop := context.AfterFunc(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.cond.Broadcast()
	})
	defer stop()

	b.mu.Lock()
	defer b.mu.Unlock()

	for b.seq <= after && !b.closed {
		if err := ctx.Err(); err != nil {
			return nil, after, err
		}
		b.cond.Wait()
	}
	if b.closed {
		return nil, after, ErrBufferClosed
	}
	return b.jpeg, b.seq, nil
}

// ExitRequested always returns false.
func (b *FrameBuffer) ExitRequested() bool {
	return false
}

// Close wakes all readers and rejects further frames.
func (b *FrameBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.cond.Broadcast()
	return nil
}
