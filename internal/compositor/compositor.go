// Package compositor defines the contract between gloam and the display
// server. The daemon never talks Wayland directly: everything it needs is
// expressed through the Session interface, with the real wire protocol
// implemented in the wayland subpackage and a scripted session in comptest.
package compositor

import "errors"

// ErrClosed marks a session the server has torn down (compositor exit,
// connection loss). It is the render loop's normal exit condition, not a
// bug.
var ErrClosed = errors.New("compositor: session closed")

// Output is an opaque handle to a display output. Identity comparison goes
// through ID; two handles with equal IDs name the same output.
type Output interface {
	ID() uint32
}

// OutputInfo is the server-reported metadata for an output.
type OutputInfo struct {
	Name   string
	Width  int
	Height int
}

// Buffer is a block of pixel memory the server can scan out. Bytes is
// writable ARGB8888, little-endian, stride = width*4. Destroy releases both
// the server-side handle and the backing memory; the buffer must not be
// touched afterwards.
type Buffer interface {
	Bytes() []byte
	Destroy()
}

// Viewport scales a surface's buffer to a destination size.
type Viewport interface {
	SetDestination(width, height int)
	Destroy()
}

// Surface is a layer surface on one output.
type Surface interface {
	// Attach stages buf as the surface content for the next Commit.
	Attach(buf Buffer)
	Commit()
	Destroy()
}

// Handler receives session events. All methods are invoked from the event
// callbacks the session delivers, on the goroutine draining Events.
type Handler interface {
	OutputAdded(out Output)
	OutputChanged(out Output)
	OutputRemoved(out Output)

	// Configure delivers the authoritative size for a surface.
	Configure(s Surface, width, height int)

	// Closed reports that the server dismissed a surface.
	Closed(s Surface)
}

// Session is one connection to the display server. It is not safe for
// concurrent use; exactly one goroutine owns it.
type Session interface {
	// SetHandler installs h and replays any outputs the session already
	// knows about as OutputAdded calls.
	SetHandler(h Handler)

	OutputInfo(out Output) (OutputInfo, bool)
	CreateSurface(out Output) (Surface, error)
	Viewport(s Surface) (Viewport, error)
	CreateBuffer(width, height int) (Buffer, error)

	// Events delivers server traffic as callbacks to be run on the owning
	// goroutine, which is free to select on other channels between them.
	// The channel is closed once the session ends.
	Events() <-chan func()

	// Err reports why Events closed: nil for an orderly teardown
	// (equivalent to ErrClosed), anything else is a wire fault.
	Err() error

	Close() error
}
