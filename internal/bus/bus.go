// Package bus is the control channel between the lingopipe CLI and the
// daemon: a unix socket carrying single-byte commands with one reply line
// each, plus the pid file that keeps a second daemon off the microphone.
package bus

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Command is one request on the control socket.
type Command byte

const (
	CmdStatus  Command = 's' // pipeline counters and mute state
	CmdMute    Command = 'm' // toggle microphone mute
	CmdVersion Command = 'v' // protocol version
	CmdQuit    Command = 'q' // graceful shutdown
)

const ProtoVer = "0.1"

const (
	sockName = "control.sock"
	pidName  = "lingopipe.pid"
)

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lingopipe", name), nil
}

// SockPath is ~/.cache/lingopipe/control.sock.
func SockPath() (string, error) { return cachePath(sockName) }

// PidPath is ~/.cache/lingopipe/lingopipe.pid.
func PidPath() (string, error) { return cachePath(pidName) }

func Listen() (net.Listener, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(sp), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(sp) // stale socket from last run
	return net.Listen("unix", sp)
}

func Dial() (net.Conn, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	return net.Dial("unix", sp)
}

// SendCommand writes one command and reads the daemon's reply line.
func SendCommand(cmd Command) (string, error) {
	c, err := Dial()
	if err != nil {
		return "", err
	}
	defer c.Close()

	if _, err := c.Write([]byte{byte(cmd), '\n'}); err != nil {
		return "", err
	}

	return bufio.NewReader(c).ReadString('\n')
}

// ReadCommand reads one request line from a client connection.
func ReadCommand(c net.Conn) (Command, error) {
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return 0, err
	}
	if len(line) == 0 || line[0] == '\n' {
		return 0, fmt.Errorf("empty command")
	}
	return Command(line[0]), nil
}

// Reply writers. One line per reply; clients print it verbatim.

func WriteStatus(w io.Writer, backlog int, played, dropped uint64, muted bool) {
	fmt.Fprintf(w, "STATUS backlog=%d played=%d dropped=%d muted=%t\n", backlog, played, dropped, muted)
}

func WriteMuted(w io.Writer, muted bool) {
	fmt.Fprintf(w, "OK muted=%t\n", muted)
}

func WriteVersion(w io.Writer) {
	fmt.Fprintf(w, "STATUS proto=%s\n", ProtoVer)
}

func WriteQuitting(w io.Writer) {
	fmt.Fprint(w, "OK quitting\n")
}

func WriteError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "ERR "+format+"\n", args...)
}

// CheckExistingDaemon reports an error when the pid file names a live
// process. A missing, unreadable or stale pid file means no daemon.
func CheckExistingDaemon() error {
	pidPath, err := PidPath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(pidPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return nil // garbage pid file, assume stale
	}

	if !pidAlive(pid) {
		return nil
	}
	return fmt.Errorf("daemon already running with PID %d", pid)
}

// pidAlive probes the process with signal 0, which checks existence and
// permission without delivering anything.
func pidAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func CreatePidFile() error {
	pidPath, err := PidPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(pidPath), 0o700); err != nil {
		return err
	}

	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func RemovePidFile() error {
	pidPath, err := PidPath()
	if err != nil {
		return err
	}
	return os.Remove(pidPath)
}
