package notify

import (
	"fmt"
	"os/exec"

	"github.com/lingopipe/lingopipe/internal/logging"
)

// Notifier surfaces pipeline events on the desktop. The daemon runs
// headless, so notifications are the only feedback channel besides logs.
type Notifier interface {
	MuteChanged(muted bool)
	Degraded(stage string, consecutive int)
	Error(msg string)
}

// Desktop sends notifications through notify-send. Failures to notify are
// logged and otherwise ignored; a missing notification daemon must never
// affect the pipeline.
type Desktop struct{}

func (d Desktop) MuteChanged(muted bool) {
	state := "Microphone live"
	if muted {
		state = "Microphone muted"
	}
	d.send("Lingopipe: "+state, "")
}

func (d Desktop) Degraded(stage string, consecutive int) {
	d.send("Lingopipe: translation degraded",
		fmt.Sprintf("%d consecutive %s failures, check the %s service", consecutive, stage, stage),
		"-u", "critical")
}

func (d Desktop) Error(msg string) {
	d.send("Lingopipe error", msg, "-u", "critical")
}

func (d Desktop) send(summary, body string, extra ...string) {
	args := append([]string{"-a", "Lingopipe"}, extra...)
	args = append(args, summary)
	if body != "" {
		args = append(args, body)
	}
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		log := logging.Component("notify")
		log.Debug().Err(err).Msg("failed to send notification")
	}
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) MuteChanged(muted bool)                 {}
func (Nop) Degraded(stage string, consecutive int) {}
func (Nop) Error(msg string)                       {}
