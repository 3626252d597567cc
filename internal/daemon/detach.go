package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// foregroundEnv keeps a freshly promoted daemon in the foreground instead
// of re-executing itself into the background. Development safety valve: a
// foreground daemon also keeps default signal disposition.
const foregroundEnv = "GLOAM_FOREGROUND"

// Foreground reports whether the daemon should stay attached to the
// invoking terminal.
func Foreground() bool {
	return os.Getenv(foregroundEnv) != ""
}

// Detach spawns the current binary as a session-leader child carrying args
// plus the internal --detached flag, then returns so the parent can exit
// and release the user's shell. The child re-runs the startup probe itself;
// the parent and child never share the listener.
func Detach(args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	return detachCommand(exe, args).Start()
}

// detachCommand builds the child invocation. Split out so the argument
// vector and process attributes are testable without exec'ing anything.
func detachCommand(exe string, args []string) *exec.Cmd {
	cmd := exec.Command(exe, append(append([]string{}, args...), "--detached")...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd
}
