package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Audio is a buffer of interleaved 16-bit PCM samples ready for playback.
type Audio struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Duration reports the playback length of the buffer.
func (a *Audio) Duration() time.Duration {
	if a == nil || a.SampleRate <= 0 || a.Channels <= 0 {
		return 0
	}
	frames := len(a.Samples) / a.Channels
	return time.Duration(frames) * time.Second / time.Duration(a.SampleRate)
}

// PCMBytes returns the samples as little-endian s16le bytes, the format the
// playback device consumes.
func (a *Audio) PCMBytes() []byte {
	out := make([]byte, len(a.Samples)*2)
	for i, s := range a.Samples {
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}

// Synthesizer converts translated text into audio. Implementations resample
// their native output rate to the configured rate, so callers can assume a
// single fixed rate.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}

// EngineError reports a failure inside the TTS engine or an unsupported
// model/language combination.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	if e == nil || e.Err == nil {
		return "synthesis engine error"
	}
	return fmt.Sprintf("synthesis engine: %v", e.Err)
}

func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewEngineError(err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Err: err}
}

func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}
