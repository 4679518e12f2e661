package device

import (
	"log/slog"
	"sync"

	"go.bug.st/serial"

	"github.com/physlab/atomrig/internal/metrics"
)

// Sender pushes commands toward the display device. Implementations must
// never block the caller on a missing or broken device.
type Sender interface {
	Send(Command)
}

// Link is the serial connection to the display controller. A Link with no
// open port is valid; Send degrades to a no-op, matching the rig's
// run-without-hardware behavior.
type Link struct {
	mu   sync.Mutex
	port serial.Port
	log  *slog.Logger
	col  *metrics.Collector
}

// Open connects to the display controller. Connection failure is not an
// error to the caller: the rig runs headless with a disconnected link.
func Open(portName string, baud int, log *slog.Logger, col *metrics.Collector) *Link {
	l := &Link{log: log, col: col}
	if portName == "" {
		log.Warn("display device not configured, commands will be dropped")
		return l
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		log.Warn("display device not connected, commands will be dropped",
			"port", portName, "error", err)
		return l
	}
	log.Info("display device connected", "port", portName, "baud", baud)
	l.port = port
	return l
}

// Disconnected returns a Link that drops every command. Commands are
// still counted, so /metrics reflects the engine's output in sim runs.
func Disconnected(log *slog.Logger, col *metrics.Collector) *Link {
	return &Link{log: log, col: col}
}

// Send writes one command line to the device. Absent or failing hardware
// is absorbed silently; the operator is never told.
func (l *Link) Send(cmd Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.col.IncCommand(cmd.Verb())
	if l.port == nil {
		return
	}
	if _, err := l.port.Write([]byte(string(cmd) + "\n")); err != nil {
		l.log.Debug("device write failed", "command", string(cmd), "error", err)
	}
}

func (l *Link) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port != nil {
		l.port.Close()
		l.port = nil
	}
}

// ListPorts enumerates serial ports on the host.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// Recorder is a Sender that keeps every command in memory. Tests and the
// hardware-free console use it in place of a serial link.
type Recorder struct {
	mu   sync.Mutex
	cmds []Command
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
}

// Commands returns a copy of everything sent so far.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = nil
}
