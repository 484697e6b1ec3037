package transcriber

import "context"

// Result is a single transcription event from a streaming adapter.
type Result struct {
	Text    string // the transcript (partial or final)
	IsFinal bool   // true for finalized turns, false for interim hypotheses
	Error   error  // non-nil if an error occurred
}

// StreamingAdapter is the contract for real-time transcription backends.
type StreamingAdapter interface {
	// Start opens the streaming session with the given language setting.
	Start(ctx context.Context, language string) error

	// SendChunk sends raw PCM audio to the transcription service.
	SendChunk(audio []byte) error

	// Results returns the channel receiving partial and final results.
	Results() <-chan Result

	// Finalize signals end of audio and waits for pending finals. The ctx
	// bounds the wait.
	Finalize(ctx context.Context) error

	// Close tears the session down.
	Close() error
}
