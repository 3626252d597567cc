package ipc

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
)

const dialTimeout = time.Second

// ErrNoDaemon means the startup probe found nothing listening on the
// endpoint: either no instance exists or only a stale socket file is left
// behind. The caller becomes the daemon.
var ErrNoDaemon = errors.New("ipc: no daemon listening")

// Forward delivers one command line to a running instance. Delivery is
// best-effort and fire-and-forget: there is no acknowledgement and no
// retry. A dial failure maps to ErrNoDaemon; a write failure is reported
// but the instance on the other side may or may not have seen the line.
func Forward(socketPath string, args []string) error {
	return send(socketPath, JoinArgs(args))
}

// Stop asks a running instance to shut down.
func Stop(socketPath string) error {
	return send(socketPath, StopToken)
}

func send(socketPath, line string) error {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return ErrNoDaemon
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(dialTimeout))
	_, err = conn.Write([]byte(line + "\n"))
	return err
}

// JoinArgs re-encodes an argument vector as a single shell-tokenizable
// line. Arguments that survive tokenizing as-is pass through untouched;
// anything with whitespace or quoting gets quoted.
func JoinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'\\") {
			quoted[i] = strconv.Quote(a)
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}
