package cli

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gloam-wm/gloam/internal/compositor/wayland"
	"github.com/gloam-wm/gloam/internal/config"
	"github.com/gloam-wm/gloam/internal/daemon"
	"github.com/gloam-wm/gloam/internal/ipc"
	"github.com/gloam-wm/gloam/internal/view"
)

// runDaemon is the promoted path: bind the control socket, connect the
// compositor session, start the listener and drive the render loop until
// stop or session teardown. Any error out of here exits the process with
// code 1.
func runDaemon(cmd *cobra.Command, socketPath string, logger *log.Logger) error {
	store := config.NewStore()
	if u, err := config.LoadFile(); err != nil {
		logger.Warn("ignoring config file", "err", err)
	} else {
		store.Apply(u)
	}
	store.Apply(currentUpdate(cmd))
	wake := daemon.NewWake()

	srv, err := ipc.NewServer(socketPath, logger)
	if err != nil {
		return err
	}

	sess, err := wayland.Dial(logger)
	if err != nil {
		_ = srv.Close()
		return err
	}

	// Listener thread: the only other goroutine, and it touches nothing
	// but the store and the wake signal.
	go func() {
		serveErr := srv.Serve(
			func(u config.Update) {
				store.Apply(u)
				wake.Signal()
			},
			func() {
				logger.Info("stop received, shutting down")
				_ = srv.Close()
				os.Exit(0)
			},
		)
		if serveErr != nil {
			logger.Error("control listener failed", "err", serveErr)
		}
	}()

	if path, err := config.FilePath(); err == nil {
		if watcher, err := config.Watch(path, logger, func(u config.Update) {
			store.Apply(u)
			wake.Signal()
		}); err != nil {
			logger.Debug("config watching unavailable", "err", err)
		} else {
			defer func() { _ = watcher.Close() }()
		}
	}

	daemon.TrapSignals(daemon.Foreground(), logger, func() {
		_ = srv.Close()
		wake.Close()
	})

	defer func() { _ = srv.Close() }()
	defer func() { _ = sess.Close() }()

	loop := view.NewLoop(sess, store, wake, logger)
	logger.Info("daemon running", "socket", socketPath)
	return loop.Run()
}
