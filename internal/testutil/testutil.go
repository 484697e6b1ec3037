package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lingopipe/lingopipe/internal/capture"
	"github.com/lingopipe/lingopipe/internal/config"
	"github.com/lingopipe/lingopipe/internal/synthesizer"
	"github.com/lingopipe/lingopipe/internal/transcriber"
)

// TestConfig returns a valid configuration for testing.
func TestConfig() *config.Config {
	cfg := config.Default()
	cfg.Transcription.APIKey = "test-api-key"
	return cfg
}

// TestAudio returns a playable buffer at the default output format.
func TestAudio(frames int) *synthesizer.Audio {
	samples := make([]int16, frames)
	for i := range samples {
		samples[i] = int16(i % 256)
	}
	return &synthesizer.Audio{Samples: samples, SampleRate: 22050, Channels: 1}
}

// MockAudioFrame creates a test capture frame.
func MockAudioFrame(data []byte) capture.AudioFrame {
	if data == nil {
		data = make([]byte, 1024)
		for i := range data {
			data[i] = byte(i % 256)
		}
	}
	return capture.AudioFrame{Data: data, Timestamp: time.Now()}
}

// TestContext returns a context with timeout for testing.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or fails the test.
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// MockRecorder implements capture.Recorder for testing.
type MockRecorder struct {
	Frames     []capture.AudioFrame
	StartError error

	mu        sync.Mutex
	recording atomic.Bool
	starts    int
	stopCh    chan struct{}
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{
		Frames: []capture.AudioFrame{MockAudioFrame(nil)},
	}
}

func (m *MockRecorder) Start(ctx context.Context) (<-chan capture.AudioFrame, <-chan error, error) {
	m.mu.Lock()
	m.starts++
	m.mu.Unlock()

	if m.StartError != nil {
		return nil, nil, m.StartError
	}

	m.mu.Lock()
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	m.recording.Store(true)

	frameCh := make(chan capture.AudioFrame, len(m.Frames)+1)
	errCh := make(chan error, 1)

	go func() {
		defer close(frameCh)
		defer close(errCh)

		for _, frame := range m.Frames {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case frameCh <- frame:
			}
		}

		// keep channel open until stopped
		select {
		case <-ctx.Done():
		case <-stopCh:
		}
	}()

	return frameCh, errCh, nil
}

func (m *MockRecorder) Stop() error {
	if !m.recording.Load() {
		return nil
	}
	m.recording.Store(false)

	m.mu.Lock()
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
	m.mu.Unlock()
	return nil
}

func (m *MockRecorder) IsRecording() bool {
	return m.recording.Load()
}

func (m *MockRecorder) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// MockStreamingAdapter implements transcriber.StreamingAdapter for testing.
// Tests push events through Emit.
type MockStreamingAdapter struct {
	StartError error

	mu        sync.Mutex
	started   bool
	chunks    [][]byte
	resultsCh chan transcriber.Result
	closeOnce sync.Once
}

func NewMockStreamingAdapter() *MockStreamingAdapter {
	return &MockStreamingAdapter{
		resultsCh: make(chan transcriber.Result, 100),
	}
}

func (m *MockStreamingAdapter) Start(ctx context.Context, language string) error {
	if m.StartError != nil {
		return m.StartError
	}
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	return nil
}

func (m *MockStreamingAdapter) SendChunk(audio []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return fmt.Errorf("adapter not started")
	}
	chunk := make([]byte, len(audio))
	copy(chunk, audio)
	m.chunks = append(m.chunks, chunk)
	return nil
}

func (m *MockStreamingAdapter) Results() <-chan transcriber.Result {
	return m.resultsCh
}

func (m *MockStreamingAdapter) Finalize(ctx context.Context) error { return nil }

func (m *MockStreamingAdapter) Close() error {
	m.closeOnce.Do(func() { close(m.resultsCh) })
	return nil
}

// Emit delivers a result to the session under test.
func (m *MockStreamingAdapter) Emit(r transcriber.Result) {
	m.resultsCh <- r
}

// Chunks returns a copy of the audio sent so far.
func (m *MockStreamingAdapter) Chunks() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.chunks))
	copy(out, m.chunks)
	return out
}

// MockTranslator implements pipeline.Translator for testing.
type MockTranslator struct {
	TranslateFunc func(ctx context.Context, text, source, target string) (string, error)

	mu    sync.Mutex
	calls []string
}

func NewMockTranslator() *MockTranslator {
	return &MockTranslator{}
}

func (m *MockTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, source, target)
	}
	return "translated: " + text, nil
}

func (m *MockTranslator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockSynthesizer implements synthesizer.Synthesizer for testing.
type MockSynthesizer struct {
	SynthesizeFunc func(ctx context.Context, text string) (*synthesizer.Audio, error)

	mu    sync.Mutex
	calls []string
}

func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) (*synthesizer.Audio, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return TestAudio(220), nil
}

func (m *MockSynthesizer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockPlayer implements pipeline.Player for testing.
type MockPlayer struct {
	PlayFunc func(ctx context.Context, audio *synthesizer.Audio) error
	Delay    time.Duration

	mu      sync.Mutex
	playing bool
	overlap bool
	played  []*synthesizer.Audio
}

func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

func (m *MockPlayer) Play(ctx context.Context, audio *synthesizer.Audio) error {
	m.mu.Lock()
	if m.playing {
		m.overlap = true
	}
	m.playing = true
	m.played = append(m.played, audio)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.playing = false
		m.mu.Unlock()
	}()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.Delay):
		}
	}

	if m.PlayFunc != nil {
		return m.PlayFunc(ctx, audio)
	}
	return nil
}

// Overlapped reports whether two Play calls ever ran concurrently.
func (m *MockPlayer) Overlapped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlap
}

func (m *MockPlayer) Played() []*synthesizer.Audio {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*synthesizer.Audio, len(m.played))
	copy(out, m.played)
	return out
}

// MockMuter implements pipeline.Muter for testing.
type MockMuter struct {
	mu      sync.Mutex
	paused  bool
	pauses  int
	resumes int
}

func NewMockMuter() *MockMuter {
	return &MockMuter{}
}

func (m *MockMuter) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
	m.pauses++
}

func (m *MockMuter) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	m.resumes++
}

func (m *MockMuter) Counts() (pauses, resumes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses, m.resumes
}
