// Package wayland implements the compositor session over the wire: a
// wlturbo display connection with just enough of wl_compositor,
// zwlr_layer_shell_v1, wp_viewporter, wl_shm and wl_output bound to put a
// dim layer on every output.
package wayland

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	wlturbo "github.com/bnema/wlturbo"
	"github.com/charmbracelet/log"

	"github.com/gloam-wm/gloam/internal/compositor"
)

// requiredGlobals must all be present or the daemon cannot start.
var requiredGlobals = []string{
	"wl_compositor",
	"zwlr_layer_shell_v1",
	"wp_viewporter",
	"wl_shm",
}

// Session is the production compositor.Session. Wire reads happen on an
// internal pump goroutine so the owner can select on Events alongside
// other channels; everything handler-visible is marshaled onto the owning
// goroutine through that channel, and the output table is lock-guarded
// because the pump's listeners update it while the owner reads it.
type Session struct {
	display *wlturbo.Display
	logger  *log.Logger
	handler compositor.Handler

	compositorID uint32
	layerShellID uint32
	viewporterID uint32
	shmID        uint32

	mu       sync.Mutex
	outputs  map[uint32]*output // by wl_output object ID
	byGlobal map[uint32]*output // by registry global name

	events   chan func()
	pumpOnce sync.Once
	pumping  bool
	err      error
}

// Dial connects to the default Wayland display, binds the required globals
// and enumerates the initial outputs. A missing required global is a
// startup-fatal error.
func Dial(logger *log.Logger) (*Session, error) {
	display, err := wlturbo.Connect("")
	if err != nil {
		return nil, fmt.Errorf("connecting to wayland display: %w", err)
	}

	s := &Session{
		display:  display,
		logger:   logger,
		outputs:  make(map[uint32]*output),
		byGlobal: make(map[uint32]*output),
		events:   make(chan func(), 64),
	}

	registry := display.Registry()
	registry.AddHandler("wl_output", func(r *wlturbo.Registry, name, version uint32) {
		s.bindOutput(r, name, version)
	})
	// Registry event 1 is global_remove; wlturbo only prunes its own table,
	// so listen alongside it for output unplugs.
	display.AddListener(registry.ID(), 1, s.handleGlobalRemove)

	// First roundtrip surfaces the globals (and binds any outputs).
	if err := display.Roundtrip(); err != nil {
		_ = display.Close()
		return nil, fmt.Errorf("enumerating globals: %w", err)
	}

	if err := s.bindRequired(registry); err != nil {
		_ = display.Close()
		return nil, err
	}

	// Second roundtrip drains the initial burst of per-output events so
	// geometry and names are known before the loop starts.
	if err := display.Roundtrip(); err != nil {
		_ = display.Close()
		return nil, fmt.Errorf("enumerating outputs: %w", err)
	}

	return s, nil
}

func (s *Session) bindRequired(registry *wlturbo.Registry) error {
	for _, iface := range requiredGlobals {
		global, ok := registry.FindGlobal(iface)
		if !ok {
			return fmt.Errorf("wayland: required global %s not offered by the compositor", iface)
		}

		version := global.Version
		if iface == "wl_compositor" && version > wlCompositorBindVersion {
			version = wlCompositorBindVersion
		}
		if iface != "wl_compositor" {
			version = 1
		}

		id, err := registry.BindID(global.Name, iface, version)
		if err != nil {
			return fmt.Errorf("binding %s: %w", iface, err)
		}

		switch iface {
		case "wl_compositor":
			s.compositorID = id
		case "zwlr_layer_shell_v1":
			s.layerShellID = id
		case "wp_viewporter":
			s.viewporterID = id
		case "wl_shm":
			s.shmID = id
		}
		s.logger.Debug("bound global", "interface", iface, "id", id, "version", version)
	}
	return nil
}

// SetHandler installs h and replays the outputs discovered during Dial.
func (s *Session) SetHandler(h compositor.Handler) {
	s.handler = h
	s.mu.Lock()
	ready := make([]*output, 0, len(s.outputs))
	for _, o := range s.outputs {
		if o.ready {
			ready = append(ready, o)
		}
	}
	s.mu.Unlock()
	for _, o := range ready {
		h.OutputAdded(o)
	}
}

// OutputInfo implements compositor.Session.
func (s *Session) OutputInfo(out compositor.Output) (compositor.OutputInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outputs[out.ID()]
	if !ok {
		return compositor.OutputInfo{}, false
	}
	return compositor.OutputInfo{Name: o.name, Width: int(o.width), Height: int(o.height)}, true
}

// Events implements compositor.Session. The first call starts the wire
// pump; from then on listener callbacks run on the pump goroutine and are
// forwarded here instead of being invoked inline.
func (s *Session) Events() <-chan func() {
	s.pumpOnce.Do(func() {
		s.pumping = true
		go s.pump()
	})
	return s.events
}

func (s *Session) pump() {
	for {
		if err := s.display.Dispatch(); err != nil {
			if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				err = nil
			}
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			close(s.events)
			return
		}
	}
}

// Err implements compositor.Session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// post hands fn to the goroutine draining Events. Before the pump starts
// (the Dial phase) everything already runs on the owning goroutine, so fn
// is invoked inline.
func (s *Session) post(fn func()) {
	if !s.pumping {
		fn()
		return
	}
	s.events <- fn
}

// Close implements compositor.Session.
func (s *Session) Close() error {
	return s.display.Close()
}

// send fires a request and logs rather than propagates failures. Requests
// are writes to a local socket: when they start failing the pump will
// surface the session teardown anyway.
func (s *Session) send(objectID uint32, opcode uint16, args ...interface{}) {
	if err := s.display.SendRequest(objectID, opcode, args...); err != nil {
		s.logger.Debug("wayland request failed", "object", objectID, "opcode", opcode, "err", err)
	}
}
