package playback

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lingopipe/lingopipe/internal/synthesizer"
)

func TestBuildArgs(t *testing.T) {
	p := New(Config{SampleRate: 22050, Channels: 1})
	got := strings.Join(p.buildArgs(), " ")
	want := "--format s16 --rate 22050 --channels 1 -"
	if got != want {
		t.Errorf("buildArgs = %q, want %q", got, want)
	}
}

func TestBuildArgsWithDevice(t *testing.T) {
	p := New(Config{SampleRate: 48000, Channels: 2, Device: "alsa_output.usb"})
	got := strings.Join(p.buildArgs(), " ")
	if !strings.Contains(got, "--target alsa_output.usb") {
		t.Errorf("buildArgs = %q, missing --target", got)
	}
	if !strings.HasSuffix(got, " -") {
		t.Errorf("buildArgs = %q, must end reading from stdin", got)
	}
}

func TestPlayRejectsFormatMismatch(t *testing.T) {
	p := New(Config{SampleRate: 22050, Channels: 1})

	audio := &synthesizer.Audio{Samples: make([]int16, 100), SampleRate: 44100, Channels: 1}
	err := p.Play(context.Background(), audio)

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("format mismatch must not report a missing device")
	}
}

func TestPlayEmptyBufferIsNoop(t *testing.T) {
	p := New(Config{})
	if err := p.Play(context.Background(), nil); err != nil {
		t.Errorf("Play(nil) = %v, want nil", err)
	}
	if err := p.Play(context.Background(), &synthesizer.Audio{SampleRate: 22050, Channels: 1}); err != nil {
		t.Errorf("Play(empty) = %v, want nil", err)
	}
}

func TestDefaultsApplied(t *testing.T) {
	p := New(Config{})
	if p.cfg.SampleRate != 22050 || p.cfg.Channels != 1 {
		t.Errorf("defaults = %d Hz / %d ch", p.cfg.SampleRate, p.cfg.Channels)
	}
}
