package pipeline

import (
	"context"
	"time"

	"github.com/lingopipe/lingopipe/internal/synthesizer"
)

// Utterance is one finalized unit of transcribed speech. Immutable once
// created; consumed exactly once by the controller.
type Utterance struct {
	ID        string
	Seq       uint64
	Text      string
	Language  string
	CreatedAt time.Time
}

// Translator converts finalized source-language text to the target language.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Player plays a synthesized buffer and blocks until playback completes.
type Player interface {
	Play(ctx context.Context, audio *synthesizer.Audio) error
}

// Muter pauses and resumes capture forwarding. The controller mutes the
// microphone while translated speech is playing so the pipeline does not
// transcribe its own output.
type Muter interface {
	Pause()
	Resume()
}

// Notifier surfaces pipeline health changes to the user.
type Notifier interface {
	Degraded(stage string, consecutive int)
}
