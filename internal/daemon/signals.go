package daemon

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

// TrapSignals installs the daemon's signal policy. A detached daemon
// ignores interrupt and terminate so that closing the terminal that spawned
// it never kills the dimmer. A foreground daemon instead runs cleanup and
// exits 0 on the first signal, which is the path that keeps the endpoint
// file from going stale during development.
func TrapSignals(foreground bool, logger *log.Logger, cleanup func()) {
	if !foreground {
		signal.Ignore(os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		return
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-ch
		logger.Info("shutting down", "signal", sig)
		cleanup()
		os.Exit(0)
	}()
}
