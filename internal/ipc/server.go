package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gloam-wm/gloam/internal/config"
)

const readTimeout = 5 * time.Second

// Server owns the control endpoint for the lifetime of the daemon process.
// Binding it is what makes this process "the" instance.
type Server struct {
	path   string
	ln     net.Listener
	logger *log.Logger
}

// NewServer removes any stale endpoint file and binds the listener. A bind
// failure after cleanup is a startup-fatal condition for the caller.
func NewServer(socketPath string, logger *log.Logger) (*Server, error) {
	if strings.TrimSpace(socketPath) == "" {
		return nil, errors.New("ipc: socket path is empty")
	}

	// The probe already failed by the time we get here, so anything at the
	// path is a leftover from an uncontrolled exit.
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", socketPath, err)
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("binding control socket %s: %w", socketPath, err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("restricting control socket %s: %w", socketPath, err)
	}

	return &Server{path: socketPath, ln: ln, logger: logger}, nil
}

// Path returns the bound endpoint path.
func (s *Server) Path() string {
	return s.path
}

// Serve accepts connections one at a time for the life of the listener.
// Each connection carries exactly one line: the stop token invokes onStop,
// a parseable command line invokes onUpdate, and anything malformed is
// logged and dropped so the daemon outlives bad clients. Serve returns nil
// once the listener is closed.
func (s *Server) Serve(onUpdate func(config.Update), onStop func()) error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accepting control connection: %w", err)
		}
		s.handle(conn, onUpdate, onStop)
	}
}

func (s *Server) handle(conn net.Conn, onUpdate func(config.Update), onStop func()) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			s.logger.Debug("control connection died before a line arrived", "err", err)
		}
		return
	}

	// An empty line is a flag-less launch: a valid update that resets the
	// always-replaced fields (target output, opaque override) to defaults.
	line := strings.TrimSpace(scanner.Text())
	if line == StopToken {
		onStop()
		return
	}

	update, err := config.ParseLine(line)
	if err != nil {
		s.logger.Warn("dropping malformed control message", "line", line, "err", err)
		return
	}
	s.logger.Debug("control message accepted", "line", line)
	onUpdate(update)
}

// Close shuts the listener down and removes the endpoint file. Safe to call
// from any controlled exit path, including more than once.
func (s *Server) Close() error {
	err := s.ln.Close()
	if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
