package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lingopipe/lingopipe/internal/logging"
)

var defaultRetryDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// AssemblyAIConfig configures the streaming session against AssemblyAI's
// v3 realtime endpoint.
type AssemblyAIConfig struct {
	BaseURL    string // e.g. wss://streaming.assemblyai.com
	APIKey     string
	SampleRate int
}

func DefaultAssemblyAIConfig() AssemblyAIConfig {
	return AssemblyAIConfig{
		BaseURL:    "wss://streaming.assemblyai.com",
		SampleRate: 16000,
	}
}

// AssemblyAIAdapter implements StreamingAdapter over the AssemblyAI v3
// websocket protocol: binary PCM16 frames out, JSON Begin/Turn/Termination
// events in.
type AssemblyAIAdapter struct {
	cfg       AssemblyAIConfig
	language  string
	conn      *websocket.Conn
	resultsCh chan Result
	log       zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	// reconnection budget
	maxRetries  int
	retryDelays []time.Duration

	// Termination signaling for Finalize
	terminated chan struct{}
}

// assemblyaiTerminate asks the service to flush and close the session.
type assemblyaiTerminate struct {
	Type string `json:"type"`
}

// Incoming message envelope. Turn carries both interim and finalized
// transcripts; EndOfTurn distinguishes them.
type assemblyaiMessage struct {
	Type             string  `json:"type"`
	ID               string  `json:"id,omitempty"`
	Transcript       string  `json:"transcript,omitempty"`
	TurnOrder        int     `json:"turn_order,omitempty"`
	EndOfTurn        bool    `json:"end_of_turn,omitempty"`
	TurnIsFormatted  bool    `json:"turn_is_formatted,omitempty"`
	AudioDurationSec float64 `json:"audio_duration_seconds,omitempty"`
	Error            string  `json:"error,omitempty"`
}

func NewAssemblyAIAdapter(cfg AssemblyAIConfig) *AssemblyAIAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAssemblyAIConfig().BaseURL
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultAssemblyAIConfig().SampleRate
	}
	return &AssemblyAIAdapter{
		cfg:         cfg,
		resultsCh:   make(chan Result, 100),
		log:         logging.Component("assemblyai"),
		maxRetries:  3,
		retryDelays: defaultRetryDelays,
		terminated:  make(chan struct{}, 1),
	}
}

// Start opens the websocket session.
func (a *AssemblyAIAdapter) Start(ctx context.Context, language string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("adapter already started")
	}
	if a.cfg.APIKey == "" {
		return NewFatalError(fmt.Errorf("assemblyai: API key required"))
	}

	a.language = language
	a.ctx, a.cancel = context.WithCancel(ctx)

	if err := a.connectLocked(); err != nil {
		return err
	}
	a.started = true

	a.wg.Add(1)
	go a.readLoop()

	a.log.Info().Int("sample_rate", a.cfg.SampleRate).Str("language", a.language).Msg("connected")
	return nil
}

// connectLocked establishes the websocket connection. Must be called with
// mu held.
func (a *AssemblyAIAdapter) connectLocked() error {
	wsURL, err := a.buildURL()
	if err != nil {
		return fmt.Errorf("build websocket url: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", a.cfg.APIKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(a.ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			a.log.Error().Int("status", resp.StatusCode).Msg("dial failed")
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return NewFatalError(fmt.Errorf("websocket dial: %w (check ASSEMBLYAI_API_KEY)", err))
			}
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	a.conn = conn
	return nil
}

func (a *AssemblyAIAdapter) buildURL() (string, error) {
	u, err := url.Parse(a.cfg.BaseURL + "/v3/ws")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("sample_rate", strconv.Itoa(a.cfg.SampleRate))
	q.Set("encoding", "pcm_s16le")
	// Formatted finals: punctuation and casing on end-of-turn transcripts.
	q.Set("format_turns", "true")
	if a.language != "" {
		q.Set("language_code", a.language)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// reconnect re-establishes the connection with backoff. Returns false once
// the retry budget is exhausted or the context is cancelled.
func (a *AssemblyAIAdapter) reconnect() bool {
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		select {
		case <-a.ctx.Done():
			return false
		default:
		}

		if attempt > 0 {
			delay := a.retryDelays[len(a.retryDelays)-1]
			if attempt-1 < len(a.retryDelays) {
				delay = a.retryDelays[attempt-1]
			}
			a.log.Info().Int("attempt", attempt+1).Int("max", a.maxRetries).Dur("delay", delay).Msg("reconnecting")

			select {
			case <-a.ctx.Done():
				return false
			case <-time.After(delay):
			}
		} else {
			a.log.Info().Int("attempt", attempt+1).Int("max", a.maxRetries).Msg("reconnecting")
		}

		a.mu.Lock()
		if a.conn != nil {
			a.conn.Close()
			a.conn = nil
		}
		err := a.connectLocked()
		a.mu.Unlock()

		if err == nil {
			a.log.Info().Msg("reconnected")
			// Surface the interruption as a transient result error.
			select {
			case a.resultsCh <- Result{Error: fmt.Errorf("connection interrupted, reconnected")}:
			default:
			}
			return true
		}

		if IsFatalError(err) {
			return false
		}
		a.log.Warn().Err(err).Msg("reconnect failed")
	}

	return false
}

// emit delivers a result unless the session is shutting down. A full
// results channel must never wedge readLoop past Close.
func (a *AssemblyAIAdapter) emit(r Result) bool {
	select {
	case a.resultsCh <- r:
		return true
	case <-a.ctx.Done():
		return false
	}
}

// readLoop consumes service messages and forwards transcripts.
func (a *AssemblyAIAdapter) readLoop() {
	defer a.wg.Done()
	defer close(a.resultsCh)

	for {
		select {
		case <-a.ctx.Done():
			return
		default:
		}

		a.mu.Lock()
		conn := a.conn
		a.mu.Unlock()

		if conn == nil {
			if !a.reconnect() {
				a.emit(Result{Error: NewFatalError(fmt.Errorf("connection lost, reconnection failed after %d attempts", a.maxRetries))})
				return
			}
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-a.ctx.Done():
				return
			default:
			}

			a.log.Warn().Err(err).Msg("read error, attempting reconnection")
			if !a.reconnect() {
				a.emit(Result{Error: NewFatalError(fmt.Errorf("websocket read: %w, reconnection failed", err))})
				return
			}
			continue
		}

		var msg assemblyaiMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			a.log.Warn().Err(err).Msg("parse error")
			continue
		}

		switch msg.Type {
		case "Begin":
			a.log.Info().Str("session_id", msg.ID).Msg("session started")

		case "Turn":
			if msg.Transcript == "" {
				continue
			}
			if msg.EndOfTurn {
				a.log.Debug().Int("turn", msg.TurnOrder).Str("transcript", msg.Transcript).Msg("final")
			}
			if !a.emit(Result{Text: msg.Transcript, IsFinal: msg.EndOfTurn}) {
				return
			}

		case "Termination":
			a.log.Info().Float64("audio_seconds", msg.AudioDurationSec).Msg("session terminated")
			select {
			case a.terminated <- struct{}{}:
			default:
			}
			return

		default:
			if msg.Error != "" {
				a.log.Error().Str("error", msg.Error).Msg("service error")
				if !a.emit(Result{Error: fmt.Errorf("assemblyai: %s", msg.Error)}) {
					return
				}
				continue
			}
			a.log.Debug().Str("type", msg.Type).Msg("unknown message type")
		}
	}
}

// SendChunk sends raw binary PCM to the service.
func (a *AssemblyAIAdapter) SendChunk(audio []byte) error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return fmt.Errorf("adapter not started")
	}
	conn := a.conn
	a.mu.Unlock()

	select {
	case <-a.ctx.Done():
		return a.ctx.Err()
	default:
	}

	if conn == nil {
		return fmt.Errorf("no connection")
	}

	a.mu.Lock()
	err := a.conn.WriteMessage(websocket.BinaryMessage, audio)
	a.mu.Unlock()

	if err != nil {
		a.log.Warn().Err(err).Msg("write error, attempting reconnection")
		if a.reconnect() {
			a.mu.Lock()
			err = a.conn.WriteMessage(websocket.BinaryMessage, audio)
			a.mu.Unlock()
			if err == nil {
				return nil
			}
		}
		return fmt.Errorf("websocket write: %w", err)
	}

	return nil
}

// Results returns the channel of transcription events.
func (a *AssemblyAIAdapter) Results() <-chan Result {
	return a.resultsCh
}

// Finalize sends a Terminate message and waits for the service's
// Termination acknowledgement so pending finals are flushed.
func (a *AssemblyAIAdapter) Finalize(ctx context.Context) error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	conn := a.conn
	a.mu.Unlock()

	if conn == nil {
		return nil
	}

	select {
	case <-a.terminated:
	default:
	}

	a.mu.Lock()
	err := a.conn.WriteJSON(assemblyaiTerminate{Type: "Terminate"})
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("finalize write: %w", err)
	}

	select {
	case <-a.terminated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return a.ctx.Err()
	}
}

// Close tears down the websocket session.
func (a *AssemblyAIAdapter) Close() error {
	a.mu.Lock()

	if !a.started {
		a.mu.Unlock()
		return nil
	}

	if a.cancel != nil {
		a.cancel()
	}

	conn := a.conn
	a.started = false
	a.mu.Unlock()

	// Close outside the lock; readLoop may be blocked on a read.
	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}

	a.wg.Wait()

	a.log.Info().Msg("closed")
	return nil
}
