package capture

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lingopipe/lingopipe/internal/logging"
	"github.com/lingopipe/lingopipe/internal/pipeline"
	"github.com/lingopipe/lingopipe/internal/transcriber"
)

// Submitter receives finalized utterances. Satisfied by the pipeline
// controller.
type Submitter interface {
	Submit(u pipeline.Utterance)
}

// SessionConfig tunes utterance assembly and the device restart budget.
type SessionConfig struct {
	Language string // source language code

	// Finals shorter than MinFinalLen runes are discarded as noise.
	MinFinalLen int

	// MaxRestarts bounds consecutive capture restarts before the session
	// gives up and reports a fatal error.
	MaxRestarts    int
	RestartBackoff time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Language:       "en",
		MinFinalLen:    3,
		MaxRestarts:    3,
		RestartBackoff: time.Second,
	}
}

// fillerWords are finals the transcription service occasionally emits for
// hesitation sounds. They carry no content and are never translated.
var fillerWords = map[string]bool{
	"um": true, "uh": true, "ah": true, "er": true,
}

// Session is the live capture side of the pipeline: it pumps microphone
// frames into the streaming transcriber, turns final transcripts into
// sequenced utterances and submits them downstream. Partials never enter
// the pipeline; they are surfaced in logs only.
type Session struct {
	cfg      SessionConfig
	recorder Recorder
	adapter  transcriber.StreamingAdapter
	sink     Submitter
	log      zerolog.Logger

	seq    atomic.Uint64
	paused atomic.Bool // playback in progress
	muted  atomic.Bool // user-requested mute
}

func NewSession(cfg SessionConfig, rec Recorder, adapter transcriber.StreamingAdapter, sink Submitter) *Session {
	if cfg.MinFinalLen <= 0 {
		cfg.MinFinalLen = DefaultSessionConfig().MinFinalLen
	}
	if cfg.MaxRestarts <= 0 {
		cfg.MaxRestarts = DefaultSessionConfig().MaxRestarts
	}
	if cfg.RestartBackoff <= 0 {
		cfg.RestartBackoff = DefaultSessionConfig().RestartBackoff
	}
	return &Session{
		cfg:      cfg,
		recorder: rec,
		adapter:  adapter,
		sink:     sink,
		log:      logging.Component("session"),
	}
}

// Pause stops forwarding frames to the transcriber. Frames keep draining
// from the device so the capture stream never stalls; they are discarded.
func (s *Session) Pause() {
	if s.paused.CompareAndSwap(false, true) {
		s.log.Debug().Msg("microphone paused")
	}
}

// Resume restores frame forwarding.
func (s *Session) Resume() {
	if s.paused.CompareAndSwap(true, false) {
		s.log.Debug().Msg("microphone resumed")
	}
}

// ToggleMute flips the user-requested mute and reports the new state.
// Distinct from Pause so that playback completion cannot silently undo a
// mute the user asked for.
func (s *Session) ToggleMute() bool {
	muted := !s.muted.Load()
	s.muted.Store(muted)
	s.log.Info().Bool("muted", muted).Msg("mute toggled")
	return muted
}

// IsMuted reports the user-requested mute state.
func (s *Session) IsMuted() bool {
	return s.muted.Load()
}

// Submitted reports how many utterances this session has produced.
func (s *Session) Submitted() uint64 {
	return s.seq.Load()
}

// Run drives the capture loop until ctx is cancelled (returns nil) or a
// fatal capture/transcription error occurs (returns it). Transient device
// errors restart the recorder within the configured budget.
func (s *Session) Run(ctx context.Context) error {
	if err := s.adapter.Start(ctx, s.cfg.Language); err != nil {
		return fmt.Errorf("start transcriber: %w", err)
	}
	defer s.adapter.Close()

	restarts := 0
	for {
		frameCh, errCh, err := s.recorder.Start(ctx)
		if err != nil {
			restarts++
			if restarts > s.cfg.MaxRestarts {
				return fmt.Errorf("capture device failed after %d restarts: %w", restarts-1, err)
			}
			s.log.Warn().Err(err).Int("restart", restarts).Msg("capture start failed, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.cfg.RestartBackoff):
			}
			continue
		}

		if restarts > 0 {
			s.log.Info().Int("restart", restarts).Msg("capture recovered")
		}
		restarts = 0

		again, err := s.pump(ctx, frameCh, errCh)
		s.recorder.Stop()
		if err != nil {
			return err
		}
		if !again {
			return nil
		}

		restarts++
		if restarts > s.cfg.MaxRestarts {
			return fmt.Errorf("capture device failed after %d consecutive restarts", restarts-1)
		}
		s.log.Warn().Int("restart", restarts).Msg("capture stream lost, restarting")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.RestartBackoff):
		}
	}
}

// pump forwards frames and consumes transcription events until the stream
// breaks. again=true asks Run to restart the recorder; a non-nil error is
// fatal to the session.
func (s *Session) pump(ctx context.Context, frameCh <-chan AudioFrame, errCh <-chan error) (again bool, err error) {
	results := s.adapter.Results()

	for {
		select {
		case <-ctx.Done():
			return false, nil

		case frame, ok := <-frameCh:
			if !ok {
				return true, nil
			}
			if s.paused.Load() || s.muted.Load() {
				continue
			}
			if err := s.adapter.SendChunk(frame.Data); err != nil {
				// Adapter handles its own reconnection; a send error here
				// is transient.
				s.log.Warn().Err(err).Msg("send chunk failed")
			}

		case captureErr, ok := <-errCh:
			if !ok {
				return true, nil
			}
			if captureErr != nil {
				s.log.Warn().Err(captureErr).Msg("capture stream error")
				return true, nil
			}

		case result, ok := <-results:
			if !ok {
				return false, fmt.Errorf("transcription stream closed")
			}
			if result.Error != nil {
				if transcriber.IsFatalError(result.Error) {
					return false, fmt.Errorf("transcription failed: %w", result.Error)
				}
				s.log.Warn().Err(result.Error).Msg("transient transcription error")
				continue
			}
			s.handleResult(result)
		}
	}
}

func (s *Session) handleResult(result transcriber.Result) {
	if !result.IsFinal {
		s.log.Debug().Str("partial", result.Text).Msg("interim hypothesis")
		return
	}

	text := strings.TrimSpace(result.Text)
	if len([]rune(text)) < s.cfg.MinFinalLen || fillerWords[strings.ToLower(text)] {
		s.log.Debug().Str("text", text).Msg("skipping low-content final")
		return
	}

	u := pipeline.Utterance{
		ID:        uuid.NewString(),
		Seq:       s.seq.Add(1),
		Text:      text,
		Language:  s.cfg.Language,
		CreatedAt: time.Now(),
	}

	s.log.Info().Uint64("seq", u.Seq).Str("text", u.Text).Msg("utterance finalized")
	s.sink.Submit(u)
}
