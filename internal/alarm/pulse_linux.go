//go:build linux

package alarm

import (
	"fmt"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"github.com/rs/zerolog"
)

// PulsePlayer loops a Sound through a PulseAudio playback stream.
type PulsePlayer struct {
	client *pulse.Client
	sound  *Sound
	log    zerolog.Logger

	mu     sync.Mutex
	stream *pulse.PlaybackStream
	pos    int
}

// NewPulsePlayer connects to the PulseAudio server.
func NewPulsePlayer(sound *Sound, log zerolog.Logger) (Actuator, error) {
	if sound == nil || len(sound.Samples) == 0 {
		return nil, fmt.Errorf("alarm sound is empty")
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName("vigil"))
	if err != nil {
		return nil, fmt.Errorf("connect to pulseaudio: %w", err)
	}

	return &PulsePlayer{client: client, sound: sound, log: log}, nil
}

func (p *PulsePlayer) read(buf []int16) (int, error) {
	samples := p.sound.Samples
	written := 0
	for written < len(buf) {
		if p.pos >= len(samples) {
			p.pos = 0
		}
		n := copy(buf[written:], samples[p.pos:])
		written += n
		p.pos += n
	}
	return written, nil
}

// Start opens a playback stream that repeats the sound until Stop.
func (p *PulsePlayer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return nil
	}

	p.pos = 0
	stream, err := p.client.NewPlayback(pulse.Int16Reader(p.read),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(p.sound.SampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(c *proto.CreatePlaybackStream) {
			c.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return fmt.Errorf("create playback stream: %w", err)
	}

	stream.Start()
	p.stream = stream
	p.log.Debug().Msg("alarm playback started")
	return nil
}

// Stop closes the playback stream.
func (p *PulsePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}

	p.stream.Stop()
	p.stream.Close()
	p.stream = nil
	p.log.Debug().Msg("alarm playback stopped")
	return nil
}

// Close stops playback and disconnects from the server.
func (p *PulsePlayer) Close() error {
	_ = p.Stop()
	p.client.Close()
	return nil
}
