package sniffer

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"
)

// clientArgs are the fixed flags passed to the capture client: debug output
// on stdout, no game events, only the two auction operations (75 = offers,
// 76 = requests), and lenient photon decoding.
var clientArgs = []string{"-debug", "-events", "0", "-operations", "75,76", "-ignore-decode-errors"}

// ReaderConfig configures the capture process reader.
type ReaderConfig struct {
	// ExecutablePath points at the albiondata-client binary.
	ExecutablePath string
	// ReadBackoff is the sleep before retrying after a transient read
	// error on the stream.
	ReadBackoff time.Duration
	// StopTimeout bounds how long Stop waits for the process to terminate
	// before force-killing it.
	StopTimeout time.Duration
}

// ProcessReader owns the external capture process and exposes its stdout as
// a sequential, non-restartable channel of text lines per run. Start and
// Stop are idempotent and safe to call concurrently with readers of Lines.
type ProcessReader struct {
	cfg    ReaderConfig
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	lines   chan string
	halt    chan struct{} // closed by Stop to unblock the read loop
	exited  chan struct{} // closed once the process has been reaped
	done    chan struct{} // closed when the run goroutine returns
	running bool
}

// NewProcessReader creates a reader for the capture client at the configured
// path. Nothing is spawned until Start.
func NewProcessReader(cfg ReaderConfig, logger *slog.Logger) *ProcessReader {
	if cfg.ReadBackoff <= 0 {
		cfg.ReadBackoff = 100 * time.Millisecond
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 5 * time.Second
	}
	return &ProcessReader{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "process_reader")),
	}
}

// Start launches the capture process and begins producing lines. A second
// call while running is a no-op; a call after the process exited on its own
// starts a fresh run. A spawn failure leaves the reader stopped and is
// returned for the caller to report; it is never fatal to the host.
func (r *ProcessReader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		select {
		case <-r.exited:
			// The previous run ended on its own; start a fresh one.
			r.running = false
		default:
			return nil
		}
	}

	if _, err := os.Stat(r.cfg.ExecutablePath); err != nil {
		r.logger.Warn("capture client not found; place the albiondata-client binary at the configured path",
			slog.String("path", r.cfg.ExecutablePath),
		)
		return fmt.Errorf("sniffer: capture client not found at %s: %w", r.cfg.ExecutablePath, err)
	}

	cmd := exec.Command(r.cfg.ExecutablePath, clientArgs...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("sniffer: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("sniffer: start capture client: %w", err)
	}

	r.cmd = cmd
	r.stdout = stdout
	r.lines = make(chan string, 256)
	r.halt = make(chan struct{})
	r.exited = make(chan struct{})
	r.done = make(chan struct{})
	r.running = true

	go r.run(cmd, stdout, r.lines, r.halt, r.exited, r.done)

	r.logger.Info("capture client started",
		slog.String("path", r.cfg.ExecutablePath),
		slog.Int("pid", cmd.Process.Pid),
	)
	return nil
}

// Lines returns the channel of text lines for the current run. The channel
// is closed when the process exits or Stop is invoked. It returns nil when
// the reader has never been started.
func (r *ProcessReader) Lines() <-chan string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lines
}

// Running reports whether the capture process is currently alive.
func (r *ProcessReader) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return false
	}
	select {
	case <-r.exited:
		return false
	default:
		return true
	}
}

// Stop halts the read loop and terminates the capture process, escalating
// from SIGTERM to SIGKILL when it does not exit within StopTimeout. It is
// idempotent and never blocks beyond the configured bounds.
func (r *ProcessReader) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	halt, exited, done, cmd, stdout := r.halt, r.exited, r.done, r.cmd, r.stdout
	r.mu.Unlock()

	close(halt)
	// An explicit stop discards any buffered tail; closing the pipe here
	// unblocks a read even when inherited descriptors keep it open.
	_ = stdout.Close()
	if cmd.Process != nil {
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-exited:
	case <-time.After(r.cfg.StopTimeout):
		r.logger.Warn("capture client did not exit in time, killing it")
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		select {
		case <-exited:
		case <-time.After(r.cfg.StopTimeout):
			r.logger.Warn("capture client could not be reaped")
			return
		}
	}

	select {
	case <-done:
	case <-time.After(r.cfg.StopTimeout):
		r.logger.Warn("read loop did not drain in time")
	}

	r.logger.Info("capture client stopped")
}

// run owns the stdout pipe for one process run. The process is reaped only
// after the read loop has drained the pipe to EOF, so output buffered at
// exit time is never cut off mid-stream.
func (r *ProcessReader) run(cmd *exec.Cmd, stdout io.Reader, lines chan<- string, halt <-chan struct{}, exited, done chan<- struct{}) {
	defer close(done)

	r.readLoop(stdout, lines, halt)
	close(lines)

	_ = cmd.Wait()
	close(exited)
}

// readLoop consumes the process stdout line by line until EOF, which arrives
// once the process exits and the write end of the pipe closes. Transient
// non-EOF errors trigger a short backoff and retry; the loop also ends when
// halt closes. Lines that are not valid UTF-8 are skipped without
// terminating the loop.
func (r *ProcessReader) readLoop(stdout io.Reader, lines chan<- string, halt <-chan struct{}) {
	br := bufio.NewReader(stdout)
	for {
		select {
		case <-halt:
			return
		default:
		}

		line, err := br.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			if !utf8.ValidString(line) {
				r.logger.Debug("skipping undecodable line")
			} else {
				select {
				case lines <- line:
				case <-halt:
					return
				}
			}
		}

		if err != nil {
			if err == io.EOF {
				return
			}
			r.logger.Debug("read error on capture stream", slog.String("error", err.Error()))
			select {
			case <-halt:
				return
			case <-time.After(r.cfg.ReadBackoff):
			}
		}
	}
}
