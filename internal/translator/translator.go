package translator

import (
	"context"
	"errors"
	"fmt"
)

// Translator converts finalized source-language text into the target
// language. Stateless from the caller's perspective; adapters may cache
// loaded models internally.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ErrUnavailable means the requested language pair has no installed model.
// Per-utterance: the utterance is dropped, the pipeline keeps running.
var ErrUnavailable = errors.New("translation unavailable for language pair")

// EngineError reports any other failure inside the translation engine.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	if e == nil || e.Err == nil {
		return "translation engine error"
	}
	return fmt.Sprintf("translation engine: %v", e.Err)
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
