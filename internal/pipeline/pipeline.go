package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lingopipe/lingopipe/internal/logging"
	"github.com/lingopipe/lingopipe/internal/synthesizer"
)

// escalateAfter is the number of consecutive stage failures that triggers an
// escalated warning. Repeated failures across any stage usually mean a
// collaborator outage rather than a bad utterance.
const escalateAfter = 3

// Config carries the controller's tunables. Set once at startup.
type Config struct {
	SourceLanguage string
	TargetLanguage string
	MaxBacklog     int
	ShutdownGrace  time.Duration
}

func DefaultConfig() Config {
	return Config{
		SourceLanguage: "en",
		TargetLanguage: "es",
		MaxBacklog:     8,
		ShutdownGrace:  5 * time.Second,
	}
}

// Controller owns each utterance from arrival to playback completion. It
// enforces strict sequence order: translation, synthesis and playback run
// sequentially per utterance, and no two playback operations overlap.
type Controller struct {
	cfg        Config
	translator Translator
	synth      synthesizer.Synthesizer
	player     Player
	muter      Muter    // optional
	notifier   Notifier // optional

	queue *utteranceQueue
	log   zerolog.Logger

	mu           sync.Mutex
	cancel       context.CancelFunc
	failures     int
	dropped      uint64
	played       uint64
	shuttingDown bool

	done chan struct{}
}

func New(cfg Config, tr Translator, sy synthesizer.Synthesizer, pl Player) *Controller {
	if cfg.MaxBacklog <= 0 {
		cfg.MaxBacklog = DefaultConfig().MaxBacklog
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = DefaultConfig().ShutdownGrace
	}
	return &Controller{
		cfg:        cfg,
		translator: tr,
		synth:      sy,
		player:     pl,
		queue:      newUtteranceQueue(cfg.MaxBacklog),
		log:        logging.Component("pipeline"),
		done:       make(chan struct{}),
	}
}

// SetMuter installs the capture-side muter used to silence the microphone
// during playback. Must be called before Run.
func (c *Controller) SetMuter(m Muter) {
	c.muter = m
}

// SetNotifier installs the health notifier. Must be called before Run.
func (c *Controller) SetNotifier(n Notifier) {
	c.notifier = n
}

// Submit accepts a finalized utterance from the capture session. It never
// blocks; over the configured backlog the oldest unprocessed utterance is
// dropped and the drop logged.
func (c *Controller) Submit(u Utterance) {
	dropped, ok := c.queue.push(u)
	if !ok {
		c.log.Debug().Uint64("seq", u.Seq).Msg("submit after shutdown, ignoring")
		return
	}
	if dropped != nil {
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
		c.log.Warn().
			Uint64("seq", dropped.Seq).
			Int("backlog", c.cfg.MaxBacklog).
			Msg("backlog full, dropped oldest unprocessed utterance")
	}
	c.log.Debug().Uint64("seq", u.Seq).Str("text", u.Text).Msg("utterance queued")
}

// Run processes queued utterances in sequence order until ctx is cancelled
// or Shutdown is called. Stage failures are logged and skipped; the loop
// itself never fails.
func (c *Controller) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	defer close(c.done)
	defer cancel()

	for {
		u, ok, closed := c.queue.pop()
		if closed {
			return
		}
		if !ok {
			select {
			case <-c.queue.wakeCh():
				continue
			case <-runCtx.Done():
				return
			}
		}
		c.process(runCtx, u)
	}
}

// Shutdown stops intake, waits for the in-flight utterance up to the grace
// period, then force-cancels and returns once the run loop has exited.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if c.shuttingDown {
		c.mu.Unlock()
		<-c.done
		return
	}
	c.shuttingDown = true
	c.mu.Unlock()

	c.queue.close()

	select {
	case <-c.done:
		return
	case <-time.After(c.cfg.ShutdownGrace):
		c.log.Warn().Dur("grace", c.cfg.ShutdownGrace).Msg("shutdown grace elapsed, aborting in-flight utterance")
	}

	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-c.done
}

// Backlog reports the number of queued, unprocessed utterances.
func (c *Controller) Backlog() int {
	return c.queue.len()
}

// Dropped reports how many utterances were discarded under backpressure.
func (c *Controller) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Played reports how many utterances completed playback.
func (c *Controller) Played() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.played
}

// ConsecutiveFailures reports the current run of stage failures.
func (c *Controller) ConsecutiveFailures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

func (c *Controller) process(ctx context.Context, u Utterance) {
	start := time.Now()

	translated, err := c.translator.Translate(ctx, u.Text, c.cfg.SourceLanguage, c.cfg.TargetLanguage)
	if err != nil {
		c.stageFailed(ctx, u, "translate", err)
		return
	}
	c.log.Info().
		Uint64("seq", u.Seq).
		Str("source", u.Text).
		Str("translated", translated).
		Msg("utterance translated")

	audio, err := c.synth.Synthesize(ctx, translated)
	if err != nil {
		c.stageFailed(ctx, u, "synthesize", err)
		return
	}

	if c.muter != nil {
		c.muter.Pause()
		defer c.muter.Resume()
	}

	if err := c.player.Play(ctx, audio); err != nil {
		c.stageFailed(ctx, u, "play", err)
		return
	}

	c.mu.Lock()
	c.failures = 0
	c.played++
	c.mu.Unlock()

	c.log.Info().
		Uint64("seq", u.Seq).
		Dur("elapsed", time.Since(start)).
		Msg("utterance played")
}

// stageFailed drops the utterance, keeps the loop alive and escalates after
// repeated failures across any stage.
func (c *Controller) stageFailed(ctx context.Context, u Utterance, stage string, err error) {
	if ctx.Err() != nil {
		c.log.Debug().Uint64("seq", u.Seq).Str("stage", stage).Msg("stage cancelled")
		return
	}

	c.mu.Lock()
	c.failures++
	failures := c.failures
	c.mu.Unlock()

	c.log.Error().
		Err(err).
		Uint64("seq", u.Seq).
		Str("stage", stage).
		Msg("stage failed, utterance dropped")

	if failures >= escalateAfter {
		c.log.Warn().
			Int("consecutive_failures", failures).
			Str("stage", stage).
			Msg("repeated stage failures, collaborator may be down")
		if c.notifier != nil && failures == escalateAfter {
			c.notifier.Degraded(stage, failures)
		}
	}
}
