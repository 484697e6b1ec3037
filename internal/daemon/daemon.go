package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/lingopipe/lingopipe/internal/bus"
	"github.com/lingopipe/lingopipe/internal/capture"
	"github.com/lingopipe/lingopipe/internal/config"
	"github.com/lingopipe/lingopipe/internal/logging"
	"github.com/lingopipe/lingopipe/internal/notify"
	"github.com/lingopipe/lingopipe/internal/pipeline"
	"github.com/lingopipe/lingopipe/internal/playback"
	"github.com/lingopipe/lingopipe/internal/synthesizer"
	"github.com/lingopipe/lingopipe/internal/transcriber"
	"github.com/lingopipe/lingopipe/internal/translator"
)

// Daemon runs the live translation pipeline plus the control socket. The
// pipeline runs from startup until shutdown; the socket serves status and
// mute commands.
type Daemon struct {
	manager  *config.Manager
	notifier notify.Notifier
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	controller *pipeline.Controller
	session    *capture.Session

	mu       sync.Mutex
	fatalErr error
	wg       sync.WaitGroup
}

func New(n notify.Notifier) (*Daemon, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, err
	}

	cfg := manager.GetConfig()
	if err := logging.Setup(cfg.Logging); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if n == nil {
		n = notify.Nop{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		manager:  manager,
		notifier: n,
		log:      logging.Component("daemon"),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// BuildTranslator constructs the configured translation provider.
func BuildTranslator(cfg *config.Config) (pipeline.Translator, error) {
	switch cfg.Translation.Provider {
	case "libretranslate":
		return translator.NewLibreTranslateAdapter(cfg.ToLibreTranslateConfig()), nil
	case "openai":
		return translator.NewOpenAIAdapter(cfg.ToOpenAITranslatorConfig())
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", cfg.Translation.Provider)
	}
}

// Run blocks until shutdown. Returns non-nil on fatal pipeline errors so
// the process can exit non-zero.
func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	if err := playback.CheckAvailable(); err != nil {
		return err
	}

	if err := d.startPipeline(); err != nil {
		return err
	}

	if err := d.manager.StartWatching(d.ctx); err != nil {
		d.log.Warn().Err(err).Msg("config watching disabled")
	}
	defer d.manager.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		d.log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
		d.cancel()
	}()

	// Close the listener when context is done.
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	d.log.Info().Msg("daemon started, listening on socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				break
			}
			d.log.Error().Err(err).Msg("accept error")
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}

	d.shutdown()
	return d.fatalError()
}

func (d *Daemon) startPipeline() error {
	cfg := d.manager.GetConfig()

	tr, err := BuildTranslator(cfg)
	if err != nil {
		return err
	}
	synth := synthesizer.NewCoquiAdapter(cfg.ToCoquiConfig())
	player := playback.New(cfg.ToPlaybackConfig())

	d.controller = pipeline.New(cfg.ToPipelineConfig(), tr, synth, player)

	recorder := capture.NewRecorder(cfg.ToCaptureConfig())
	adapter := transcriber.NewAssemblyAIAdapter(cfg.ToAssemblyAIConfig())
	d.session = capture.NewSession(cfg.ToSessionConfig(), recorder, adapter, d.controller)
	d.controller.SetMuter(d.session)
	d.controller.SetNotifier(d.notifier)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.controller.Run(d.ctx)
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.session.Run(d.ctx); err != nil {
			d.log.Error().Err(err).Msg("capture session failed")
			d.notifier.Error(err.Error())
			d.mu.Lock()
			d.fatalErr = err
			d.mu.Unlock()
			d.cancel()
		}
	}()

	d.log.Info().
		Str("source", cfg.Transcription.Language).
		Str("target", cfg.Translation.TargetLanguage).
		Str("translator", cfg.Translation.Provider).
		Msg("pipeline started")
	return nil
}

func (d *Daemon) shutdown() {
	d.log.Info().Msg("shutdown requested")
	if d.controller != nil {
		d.controller.Shutdown()
	}
	d.wg.Wait()
}

func (d *Daemon) fatalError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fatalErr
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	cmd, err := bus.ReadCommand(c)
	if err != nil {
		d.log.Warn().Err(err).Msg("client read error")
		bus.WriteError(c, "read_error: %v", err)
		return
	}

	switch cmd {
	case bus.CmdStatus:
		bus.WriteStatus(c, d.controller.Backlog(), d.controller.Played(), d.controller.Dropped(), d.session.IsMuted())
	case bus.CmdMute:
		muted := d.session.ToggleMute()
		d.notifier.MuteChanged(muted)
		bus.WriteMuted(c, muted)
	case bus.CmdVersion:
		bus.WriteVersion(c)
	case bus.CmdQuit:
		bus.WriteQuitting(c)
		d.cancel()
	default:
		d.log.Warn().Str("cmd", string(rune(cmd))).Msg("unknown command")
		bus.WriteError(c, "unknown=%q", byte(cmd))
	}
}
