package alarm

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
)

// Player loops a Sound on the default playback device through miniaudio.
type Player struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	log    zerolog.Logger

	pcm     []byte
	pos     atomic.Uint32
	playing atomic.Bool

	mu sync.Mutex
}

// NewPlayer opens the default playback device for sound.
func NewPlayer(sound *Sound, log zerolog.Logger) (*Player, error) {
	if sound == nil || len(sound.Samples) == 0 {
		return nil, fmt.Errorf("alarm sound is empty")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	p := &Player{
		ctx: ctx,
		log: log,
		pcm: sound.Bytes(),
	}

	if err := p.initDevice(sound.SampleRate); err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("init playback device: %w", err)
	}

	return p, nil
}

func (p *Player) initDevice(sampleRate int) error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = uint32(sampleRate)

	device, err := malgo.InitDevice(p.ctx.Context, config, malgo.DeviceCallbacks{
		Data: p.fill,
	})
	if err != nil {
		return err
	}
	p.device = device
	return nil
}

// fill runs on the audio thread. It wraps around the clip so the alert
// repeats until Stop.
func (p *Player) fill(out, _ []byte, _ uint32) {
	if !p.playing.Load() {
		clear(out)
		return
	}

	total := uint32(len(p.pcm))
	pos := p.pos.Load()
	written := 0
	for written < len(out) {
		if pos >= total {
			pos = 0
		}
		n := copy(out[written:], p.pcm[pos:])
		written += n
		pos += uint32(n)
	}
	p.pos.Store(pos)
}

// Start begins looping playback. It is a no-op while already playing.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing.Load() {
		return nil
	}

	p.pos.Store(0)
	p.playing.Store(true)
	if err := p.device.Start(); err != nil {
		p.playing.Store(false)
		return fmt.Errorf("start playback: %w", err)
	}

	p.log.Debug().Msg("alarm playback started")
	return nil
}

// Stop halts playback. It is a no-op while silent.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing.Load() {
		return nil
	}

	p.playing.Store(false)
	if err := p.device.Stop(); err != nil {
		return fmt.Errorf("stop playback: %w", err)
	}

	p.log.Debug().Msg("alarm playback stopped")
	return nil
}

// Close releases the playback device and audio context.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.playing.Store(false)
	if p.device != nil {
		p.device.Uninit()
		p.device = nil
	}
	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
	return nil
}
