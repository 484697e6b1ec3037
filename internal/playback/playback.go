package playback

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lingopipe/lingopipe/internal/logging"
	"github.com/lingopipe/lingopipe/internal/synthesizer"
)

// Config selects the output device and the fixed playback format. Every
// buffer handed to Play must already be at SampleRate/Channels; the
// synthesizer resamples before handing audio over.
type Config struct {
	SampleRate int
	Channels   int
	Device     string // PipeWire target, empty for the system default
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 22050,
		Channels:   1,
	}
}

// Error wraps a playback failure. Per-utterance: the utterance is dropped
// and the pipeline continues, unless the device itself is gone.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return "playback error"
	}
	return fmt.Sprintf("playback: %v", e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrDeviceUnavailable means the output path is gone entirely, which is
// fatal to the process rather than to one utterance.
var ErrDeviceUnavailable = errors.New("audio output unavailable")

// CheckAvailable verifies the PipeWire playback tool exists before the
// daemon commits to running.
func CheckAvailable() error {
	if _, err := exec.LookPath("pw-play"); err != nil {
		return fmt.Errorf("%w: pw-play not found (install pipewire-tools)", ErrDeviceUnavailable)
	}
	return nil
}

// Player plays PCM buffers through pw-play. Play blocks until the device
// has consumed the whole buffer; concurrent calls are serialized, never
// mixed, because the controller paces itself on playback completion.
type Player struct {
	cfg Config
	log zerolog.Logger

	mu sync.Mutex // serializes playback
}

func New(cfg Config) *Player {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultConfig().Channels
	}
	return &Player{cfg: cfg, log: logging.Component("playback")}
}

func (p *Player) Play(ctx context.Context, audio *synthesizer.Audio) error {
	if audio == nil || len(audio.Samples) == 0 {
		return nil
	}
	if audio.SampleRate != p.cfg.SampleRate || audio.Channels != p.cfg.Channels {
		return &Error{Err: fmt.Errorf("buffer format %dHz/%dch, device expects %dHz/%dch",
			audio.SampleRate, audio.Channels, p.cfg.SampleRate, p.cfg.Channels)}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cmd := exec.CommandContext(ctx, "pw-play", p.buildArgs()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &Error{Err: fmt.Errorf("create stdin pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		return &Error{Err: fmt.Errorf("start pw-play: %w", err)}
	}

	start := time.Now()
	_, writeErr := stdin.Write(audio.PCMBytes())
	closeErr := stdin.Close()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Err: fmt.Errorf("pw-play: %w", err)}
	}
	if writeErr != nil {
		return &Error{Err: fmt.Errorf("write audio: %w", writeErr)}
	}
	if closeErr != nil {
		return &Error{Err: fmt.Errorf("close stdin: %w", closeErr)}
	}

	p.log.Debug().
		Dur("audio", audio.Duration()).
		Dur("elapsed", time.Since(start)).
		Msg("playback complete")
	return nil
}

func (p *Player) buildArgs() []string {
	args := []string{
		"--format", "s16",
		"--rate", strconv.Itoa(p.cfg.SampleRate),
		"--channels", strconv.Itoa(p.cfg.Channels),
	}
	if p.cfg.Device != "" {
		args = append(args, "--target", p.cfg.Device)
	}
	args = append(args, "-")
	return args
}
