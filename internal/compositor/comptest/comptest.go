// Package comptest provides a scripted in-memory compositor session for
// exercising the view lifecycle without a display server. Tests enqueue
// output events and either drain them one at a time through Dispatch or
// let a running loop consume the Events channel, exactly the way the real
// session delivers wire traffic. The recorded state is lock-guarded so a
// test can inspect it while a loop goroutine is live.
package comptest

import (
	"fmt"
	"sync"

	"github.com/gloam-wm/gloam/internal/compositor"
)

// Output is a fake output handle.
type Output struct {
	id uint32
}

// ID implements compositor.Output.
func (o *Output) ID() uint32 { return o.id }

// Buffer records the pixel memory handed to a surface and whether it was
// released.
type Buffer struct {
	mu        sync.Mutex
	data      []byte
	destroyed bool
}

// Bytes implements compositor.Buffer. The returned memory is safe to read
// once the buffer has been observed through Surface.Attached.
func (b *Buffer) Bytes() []byte { return b.data }

// Destroy implements compositor.Buffer.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyed = true
}

// Destroyed reports whether the buffer was released.
func (b *Buffer) Destroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed
}

// Viewport records destination scaling calls.
type Viewport struct {
	DestWidth  int
	DestHeight int
}

// SetDestination implements compositor.Viewport.
func (v *Viewport) SetDestination(width, height int) {
	v.DestWidth, v.DestHeight = width, height
}

// Destroy implements compositor.Viewport.
func (v *Viewport) Destroy() {}

// Surface records attaches and commits.
type Surface struct {
	mu        sync.Mutex
	output    *Output
	attached  *Buffer
	commits   int
	destroyed bool
}

// Attach implements compositor.Surface.
func (s *Surface) Attach(buf compositor.Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = buf.(*Buffer)
}

// Commit implements compositor.Surface.
func (s *Surface) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
}

// Destroy implements compositor.Surface.
func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
}

// Attached returns the last buffer attached, nil before the first attach.
func (s *Surface) Attached() *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Commits returns how many commits the surface has seen.
func (s *Surface) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Destroyed reports whether the surface was destroyed.
func (s *Surface) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Session is the scripted session. Event producers (the test) may run on a
// different goroutine than the consumer, so the bookkeeping is locked.
type Session struct {
	mu       sync.Mutex
	handler  compositor.Handler
	events   chan func()
	outputs  map[uint32]compositor.OutputInfo
	handles  map[uint32]*Output
	surfaces []*Surface
	buffers  []*Buffer
	closed   bool
}

// New returns an empty session with room for a generous event backlog.
func New() *Session {
	return &Session{
		events:  make(chan func(), 64),
		outputs: make(map[uint32]compositor.OutputInfo),
		handles: make(map[uint32]*Output),
	}
}

// SetHandler implements compositor.Session.
func (s *Session) SetHandler(h compositor.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *Session) currentHandler() compositor.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler
}

// AddOutput registers an output and queues its added event.
func (s *Session) AddOutput(id uint32, name string, width, height int) {
	s.mu.Lock()
	out := &Output{id: id}
	s.handles[id] = out
	s.outputs[id] = compositor.OutputInfo{Name: name, Width: width, Height: height}
	s.mu.Unlock()
	s.events <- func() {
		if h := s.currentHandler(); h != nil {
			h.OutputAdded(out)
		}
	}
}

// UpdateOutput changes an output's metadata and queues its changed event.
func (s *Session) UpdateOutput(id uint32, name string, width, height int) {
	s.mu.Lock()
	out := s.handles[id]
	s.outputs[id] = compositor.OutputInfo{Name: name, Width: width, Height: height}
	s.mu.Unlock()
	s.events <- func() {
		if h := s.currentHandler(); h != nil {
			h.OutputChanged(out)
		}
	}
}

// RemoveOutput forgets an output and queues its removed event.
func (s *Session) RemoveOutput(id uint32) {
	s.mu.Lock()
	out := s.handles[id]
	delete(s.outputs, id)
	delete(s.handles, id)
	s.mu.Unlock()
	s.events <- func() {
		if h := s.currentHandler(); h != nil {
			h.OutputRemoved(out)
		}
	}
}

// OutputInfo implements compositor.Session.
func (s *Session) OutputInfo(out compositor.Output) (compositor.OutputInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.outputs[out.ID()]
	return info, ok
}

// CreateSurface implements compositor.Session. Like a real server, it
// immediately queues a configure event for the new surface at the output's
// current size.
func (s *Session) CreateSurface(out compositor.Output) (compositor.Surface, error) {
	s.mu.Lock()
	info, ok := s.outputs[out.ID()]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("comptest: unknown output %d", out.ID())
	}
	surf := &Surface{output: s.handles[out.ID()]}
	s.surfaces = append(s.surfaces, surf)
	s.mu.Unlock()

	s.events <- func() {
		if h := s.currentHandler(); h != nil {
			h.Configure(surf, info.Width, info.Height)
		}
	}
	return surf, nil
}

// Viewport implements compositor.Session.
func (s *Session) Viewport(surf compositor.Surface) (compositor.Viewport, error) {
	return &Viewport{}, nil
}

// CreateBuffer implements compositor.Session.
func (s *Session) CreateBuffer(width, height int) (compositor.Buffer, error) {
	buf := &Buffer{data: make([]byte, width*height*4)}
	s.mu.Lock()
	s.buffers = append(s.buffers, buf)
	s.mu.Unlock()
	return buf, nil
}

// Configure queues an explicit configure event, for resize scenarios.
func (s *Session) Configure(surf *Surface, width, height int) {
	s.events <- func() {
		if h := s.currentHandler(); h != nil {
			h.Configure(surf, width, height)
		}
	}
}

// CloseSurface queues a closed event for a surface.
func (s *Session) CloseSurface(surf *Surface) {
	s.events <- func() {
		if h := s.currentHandler(); h != nil {
			h.Closed(surf)
		}
	}
}

// Events implements compositor.Session.
func (s *Session) Events() <-chan func() {
	return s.events
}

// Err implements compositor.Session; the scripted session only ever ends
// cleanly.
func (s *Session) Err() error {
	return nil
}

// Dispatch delivers exactly one queued event on the calling goroutine,
// blocking until one is available or the session ends. It is a convenience
// for tests that drive the handler step by step.
func (s *Session) Dispatch() error {
	ev, ok := <-s.events
	if !ok {
		return compositor.ErrClosed
	}
	ev()
	return nil
}

// Pending reports how many queued events have not been delivered.
func (s *Session) Pending() int {
	return len(s.events)
}

// Shutdown ends the session from the server side: the backlog stays
// deliverable and the Events channel then closes.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// Close implements compositor.Session.
func (s *Session) Close() error {
	s.Shutdown()
	return nil
}

// Surfaces returns every surface ever created, in creation order.
func (s *Session) Surfaces() []*Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Surface{}, s.surfaces...)
}

// Buffers returns every buffer ever created, in creation order.
func (s *Session) Buffers() []*Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Buffer{}, s.buffers...)
}
