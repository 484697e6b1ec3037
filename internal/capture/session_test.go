package capture_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lingopipe/lingopipe/internal/capture"
	"github.com/lingopipe/lingopipe/internal/pipeline"
	"github.com/lingopipe/lingopipe/internal/testutil"
	"github.com/lingopipe/lingopipe/internal/transcriber"
)

type recordingSink struct {
	mu    sync.Mutex
	items []pipeline.Utterance
}

func (s *recordingSink) Submit(u pipeline.Utterance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, u)
}

func (s *recordingSink) all() []pipeline.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pipeline.Utterance, len(s.items))
	copy(out, s.items)
	return out
}

func runSession(t *testing.T, s *capture.Session) (stop func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	return func() error {
		cancel()
		select {
		case err := <-errCh:
			return err
		case <-time.After(2 * time.Second):
			t.Fatalf("session did not stop")
			return nil
		}
	}
}

func TestSessionSubmitsFinalsInSequence(t *testing.T) {
	rec := testutil.NewMockRecorder()
	adapter := testutil.NewMockStreamingAdapter()
	sink := &recordingSink{}

	s := capture.NewSession(capture.DefaultSessionConfig(), rec, adapter, sink)
	stop := runSession(t, s)

	adapter.Emit(transcriber.Result{Text: "hello there", IsFinal: false})
	adapter.Emit(transcriber.Result{Text: "hello there friend", IsFinal: true})
	adapter.Emit(transcriber.Result{Text: "second utterance", IsFinal: true})

	testutil.WaitForCondition(t, func() bool { return len(sink.all()) == 2 }, 2*time.Second)
	if err := stop(); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	items := sink.all()
	if items[0].Text != "hello there friend" || items[1].Text != "second utterance" {
		t.Errorf("submitted texts = %q, %q", items[0].Text, items[1].Text)
	}
	if items[0].Seq != 1 || items[1].Seq != 2 {
		t.Errorf("sequence numbers = %d, %d, want 1, 2", items[0].Seq, items[1].Seq)
	}
	if items[0].ID == items[1].ID || items[0].ID == "" {
		t.Errorf("utterance IDs not unique: %q, %q", items[0].ID, items[1].ID)
	}
}

func TestSessionFiltersNoiseFinals(t *testing.T) {
	rec := testutil.NewMockRecorder()
	adapter := testutil.NewMockStreamingAdapter()
	sink := &recordingSink{}

	s := capture.NewSession(capture.DefaultSessionConfig(), rec, adapter, sink)
	stop := runSession(t, s)

	adapter.Emit(transcriber.Result{Text: "um", IsFinal: true})
	adapter.Emit(transcriber.Result{Text: "Uh", IsFinal: true})
	adapter.Emit(transcriber.Result{Text: "  hi  ", IsFinal: true}) // 2 runes after trim
	adapter.Emit(transcriber.Result{Text: "real speech", IsFinal: true})

	testutil.WaitForCondition(t, func() bool { return len(sink.all()) == 1 }, 2*time.Second)
	if err := stop(); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	items := sink.all()
	if items[0].Text != "real speech" {
		t.Errorf("submitted %q, want 'real speech'", items[0].Text)
	}
	if items[0].Seq != 1 {
		t.Errorf("filtered finals consumed sequence numbers: seq = %d", items[0].Seq)
	}
}

func TestSessionForwardsFramesToAdapter(t *testing.T) {
	rec := testutil.NewMockRecorder()
	rec.Frames = []capture.AudioFrame{
		testutil.MockAudioFrame(nil),
		testutil.MockAudioFrame(nil),
	}
	adapter := testutil.NewMockStreamingAdapter()
	sink := &recordingSink{}

	s := capture.NewSession(capture.DefaultSessionConfig(), rec, adapter, sink)
	stop := runSession(t, s)

	testutil.WaitForCondition(t, func() bool { return len(adapter.Chunks()) == 2 }, 2*time.Second)
	if err := stop(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestSessionDropsFramesWhilePaused(t *testing.T) {
	rec := testutil.NewMockRecorder()
	rec.Frames = []capture.AudioFrame{
		testutil.MockAudioFrame(nil),
		testutil.MockAudioFrame(nil),
	}
	adapter := testutil.NewMockStreamingAdapter()
	sink := &recordingSink{}

	s := capture.NewSession(capture.DefaultSessionConfig(), rec, adapter, sink)
	s.Pause()

	stop := runSession(t, s)

	// Results still flow while the mic is paused.
	adapter.Emit(transcriber.Result{Text: "still transcribing buffered audio", IsFinal: true})
	testutil.WaitForCondition(t, func() bool { return len(sink.all()) == 1 }, 2*time.Second)

	if err := stop(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if len(adapter.Chunks()) != 0 {
		t.Errorf("chunks forwarded while paused: %d", len(adapter.Chunks()))
	}
}

func TestSessionMuteSurvivesResume(t *testing.T) {
	rec := testutil.NewMockRecorder()
	adapter := testutil.NewMockStreamingAdapter()
	sink := &recordingSink{}

	s := capture.NewSession(capture.DefaultSessionConfig(), rec, adapter, sink)

	if muted := s.ToggleMute(); !muted {
		t.Fatalf("ToggleMute() = false, want true")
	}

	// Playback pause/resume must not clear the user's mute.
	s.Pause()
	s.Resume()

	if !s.IsMuted() {
		t.Errorf("resume cleared user mute")
	}
	if muted := s.ToggleMute(); muted {
		t.Errorf("second ToggleMute() = true, want false")
	}
}

func TestSessionFatalTranscriptionError(t *testing.T) {
	rec := testutil.NewMockRecorder()
	adapter := testutil.NewMockStreamingAdapter()
	sink := &recordingSink{}

	s := capture.NewSession(capture.DefaultSessionConfig(), rec, adapter, sink)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()

	adapter.Emit(transcriber.Result{Error: transcriber.NewFatalError(fmt.Errorf("invalid API key"))})

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatalf("Run returned nil, want fatal error")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return on fatal error")
	}
}

func TestSessionTransientTranscriptionErrorContinues(t *testing.T) {
	rec := testutil.NewMockRecorder()
	adapter := testutil.NewMockStreamingAdapter()
	sink := &recordingSink{}

	s := capture.NewSession(capture.DefaultSessionConfig(), rec, adapter, sink)
	stop := runSession(t, s)

	adapter.Emit(transcriber.Result{Error: fmt.Errorf("connection interrupted")})
	adapter.Emit(transcriber.Result{Text: "back online", IsFinal: true})

	testutil.WaitForCondition(t, func() bool { return len(sink.all()) == 1 }, 2*time.Second)
	if err := stop(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestSessionGivesUpAfterRestartBudget(t *testing.T) {
	rec := testutil.NewMockRecorder()
	rec.StartError = fmt.Errorf("pw-record: no such device")
	adapter := testutil.NewMockStreamingAdapter()
	sink := &recordingSink{}

	cfg := capture.DefaultSessionConfig()
	cfg.MaxRestarts = 2
	cfg.RestartBackoff = 10 * time.Millisecond

	s := capture.NewSession(cfg, rec, adapter, sink)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatalf("Run returned nil, want device failure")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not give up within the restart budget")
	}

	if got := rec.Starts(); got != cfg.MaxRestarts+1 {
		t.Errorf("recorder starts = %d, want %d", got, cfg.MaxRestarts+1)
	}
}
