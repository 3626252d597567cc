// Package ipc implements gloam's control channel: a unix socket at a
// well-known path that doubles as the single-instance lock. A connect
// attempt against the endpoint answers "is an instance already running";
// messages are single newline-terminated text lines, either the literal
// token "stop" or a shell-tokenized command line.
package ipc

import (
	"errors"
	"os"
	"path/filepath"
)

const socketName = "gloam.sock"

// StopToken is the literal control message that shuts the daemon down.
const StopToken = "stop"

// SocketPath derives the control endpoint, preferring the per-user runtime
// directory and falling back to the system temp dir for constrained
// environments without one.
func SocketPath() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, socketName), nil
	}
	dir := os.TempDir()
	if dir == "" {
		return "", errors.New("ipc: no runtime directory available for the control socket")
	}
	return filepath.Join(dir, socketName), nil
}
