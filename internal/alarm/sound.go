package alarm

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mewkiz/flac"
)

const (
	// SampleRate is the playback rate of synthesized tones.
	SampleRate = 44100
	// DefaultFrequency is the pitch of the synthesized alert tone.
	DefaultFrequency = 880.0
	// DefaultVolume is the amplitude of the synthesized alert tone (0-1).
	DefaultVolume = 0.6

	beepDuration = 0.25
	gapDuration  = 0.15
	beepDecay    = 6.0
)

// Sound is a mono 16-bit PCM clip played in a loop while the alarm sounds.
type Sound struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the clip length in seconds.
func (s *Sound) Duration() float64 {
	if s == nil || s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Bytes returns the samples as little-endian signed 16-bit PCM.
func (s *Sound) Bytes() []byte {
	buf := make([]byte, len(s.Samples)*2)
	for i, sample := range s.Samples {
		buf[i*2] = byte(sample)
		buf[i*2+1] = byte(sample >> 8)
	}
	return buf
}

// AlertTone synthesizes one beep followed by a silent gap. Looping it gives
// a pulsing alarm.
func AlertTone(freq, volume float64) *Sound {
	beep := int(float64(SampleRate) * beepDuration)
	gap := int(float64(SampleRate) * gapDuration)

	samples := make([]int16, beep+gap)
	for i := 0; i < beep; i++ {
		t := float64(i) / float64(SampleRate)
		envelope := math.Exp(-t * beepDecay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}

	return &Sound{Samples: samples, SampleRate: SampleRate}
}

// LoadFLAC decodes a FLAC file into a mono clip. Multi-channel audio is
// averaged down to one channel.
func LoadFLAC(path string) (*Sound, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("open sound %s: %w", path, err)
	}
	defer stream.Close()

	info := stream.Info
	if info.NChannels == 0 {
		return nil, fmt.Errorf("sound %s has no channels", path)
	}
	shift := int(info.BitsPerSample) - 16

	var samples []int16
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode sound %s: %w", path, err)
		}

		n := int(frame.BlockSize)
		for i := 0; i < n; i++ {
			var sum int64
			for _, sub := range frame.Subframes {
				sum += int64(sub.Samples[i])
			}
			mixed := sum / int64(len(frame.Subframes))
			samples = append(samples, int16(scaleBits(mixed, shift)))
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("sound %s is empty", path)
	}

	return &Sound{Samples: samples, SampleRate: int(info.SampleRate)}, nil
}

// scaleBits converts a sample of arbitrary bit depth to 16 bits.
func scaleBits(v int64, shift int) int64 {
	switch {
	case shift > 0:
		return v >> uint(shift)
	case shift < 0:
		return v << uint(-shift)
	default:
		return v
	}
}
