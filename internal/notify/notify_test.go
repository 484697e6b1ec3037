package notify

import "testing"

func TestNotifierImplementations(t *testing.T) {
	notifiers := map[string]Notifier{
		"Desktop": Desktop{},
		"Nop":     Nop{},
	}

	// notify-send may or may not exist on the test machine; either way the
	// notifier must swallow the result without panicking.
	for name, n := range notifiers {
		t.Run(name, func(t *testing.T) {
			n.MuteChanged(true)
			n.MuteChanged(false)
			n.Degraded("translate", 3)
			n.Error("test error message")
			n.Error("")
		})
	}
}

func TestDesktopConcurrentUse(t *testing.T) {
	d := Desktop{}
	done := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		go func() {
			d.MuteChanged(true)
			d.Degraded("synthesize", 3)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
