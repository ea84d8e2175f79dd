package alarm

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestAlertTone(t *testing.T) {
	sound := AlertTone(DefaultFrequency, DefaultVolume)

	if sound.SampleRate != SampleRate {
		t.Errorf("SampleRate = %d, want %d", sound.SampleRate, SampleRate)
	}

	wantDuration := beepDuration + gapDuration
	if math.Abs(sound.Duration()-wantDuration) > 0.001 {
		t.Errorf("Duration() = %f, want %f", sound.Duration(), wantDuration)
	}

	volume := DefaultVolume
	limit := int16(32767 * volume)
	beep := int(float64(SampleRate) * beepDuration)
	for i, s := range sound.Samples {
		if s > limit || s < -limit {
			t.Fatalf("sample %d = %d exceeds volume limit %d", i, s, limit)
		}
		if i >= beep && s != 0 {
			t.Fatalf("sample %d in gap = %d, want silence", i, s)
		}
	}
}

func TestSound_Bytes(t *testing.T) {
	sound := &Sound{Samples: []int16{1, -1, 0x1234}, SampleRate: 8000}

	got := sound.Bytes()
	want := []byte{0x01, 0x00, 0xff, 0xff, 0x34, 0x12}
	if !bytes.Equal(got, want) {
		t.Errorf("Bytes() = %x, want %x", got, want)
	}
}

func TestScaleBits(t *testing.T) {
	tests := []struct {
		v     int64
		shift int
		want  int64
	}{
		{v: 1000, shift: 0, want: 1000},
		{v: 1 << 20, shift: 8, want: 1 << 12},
		{v: 100, shift: -8, want: 100 << 8},
	}

	for _, tt := range tests {
		if got := scaleBits(tt.v, tt.shift); got != tt.want {
			t.Errorf("scaleBits(%d, %d) = %d, want %d", tt.v, tt.shift, got, tt.want)
		}
	}
}

func TestLoadFLAC_Missing(t *testing.T) {
	if _, err := LoadFLAC(filepath.Join(t.TempDir(), "missing.flac")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNew(t *testing.T) {
	t.Run("log backend", func(t *testing.T) {
		act, err := New(Config{Backend: BackendLog}, zerolog.Nop())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if _, ok := act.(*LogActuator); !ok {
			t.Errorf("expected *LogActuator, got %T", act)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		if _, err := New(Config{Backend: "speaker"}, zerolog.Nop()); err == nil {
			t.Error("expected error for unknown backend")
		}
	})

	t.Run("missing sound file", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SoundFile = filepath.Join(t.TempDir(), "missing.flac")
		if _, err := New(cfg, zerolog.Nop()); err == nil {
			t.Error("expected error for missing sound file")
		}
	})
}

func TestLoadSound_Defaults(t *testing.T) {
	sound, err := loadSound(Config{Frequency: -1, Volume: 4})
	if err != nil {
		t.Fatalf("loadSound() error = %v", err)
	}

	want := AlertTone(DefaultFrequency, DefaultVolume)
	if len(sound.Samples) != len(want.Samples) {
		t.Fatalf("got %d samples, want %d", len(sound.Samples), len(want.Samples))
	}
	for i := range want.Samples {
		if sound.Samples[i] != want.Samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, sound.Samples[i], want.Samples[i])
		}
	}
}

func TestLogActuator(t *testing.T) {
	var buf bytes.Buffer
	act := NewLogActuator(zerolog.New(&buf))

	act.Start()
	act.Start()
	act.Stop()
	act.Stop()

	out := buf.String()
	if n := strings.Count(out, "ALERT: buzzing"); n != 1 {
		t.Errorf("logged start %d times, want 1", n)
	}
	if n := strings.Count(out, "alert silenced"); n != 1 {
		t.Errorf("logged stop %d times, want 1", n)
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()

	rec.Start()
	rec.Stop()
	rec.Start()

	if rec.Starts() != 2 || rec.Stops() != 1 {
		t.Errorf("Starts() = %d, Stops() = %d; want 2, 1", rec.Starts(), rec.Stops())
	}
	calls := rec.Calls()
	if strings.Join(calls, ",") != "start,stop,start" {
		t.Errorf("Calls() = %v", calls)
	}

	expectedErr := errors.New("device lost")
	rec.SetError(expectedErr)
	if err := rec.Stop(); err != expectedErr {
		t.Errorf("Stop() error = %v, want %v", err, expectedErr)
	}

	rec.Reset()
	if rec.Starts() != 0 || len(rec.Calls()) != 0 {
		t.Error("Reset() should clear recorded calls")
	}

	var _ Actuator = (*Recorder)(nil)
	var _ Actuator = (*LogActuator)(nil)
	var _ Actuator = (*Player)(nil)
}
