// Package cli implements the Cobra command-line interface for gloam.
//
// Every invocation goes through the same startup probe: if a daemon is
// already listening on the control socket, the command line is forwarded to
// it and this process exits; otherwise this process promotes itself to the
// daemon.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gloam-wm/gloam/internal/config"
	"github.com/gloam-wm/gloam/internal/daemon"
	"github.com/gloam-wm/gloam/internal/ipc"
)

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flag values
var (
	flagAlpha       float64
	flagRadius      uint
	flagAllowOpaque bool
	flagOutput      string
	flagDetached    bool
)

var rootCmd = &cobra.Command{
	Use:   "gloam",
	Short: "Dim your outputs without restarting anything",
	Long: fmt.Sprintf(`Gloam overlays a translucent layer on your outputs to dim them.

The first invocation becomes a background daemon; every later invocation
forwards its flags to the running instance, which applies them live. Alpha
is clamped to %.1f unless --allow-opaque is given, so a stray argument can
never black out the session.`, config.MaxAlpha),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Flags().Float64VarP(&flagAlpha, "alpha", "a", config.DefaultAlpha,
		"dim opacity, 0.0 transparent to 1.0 opaque")
	rootCmd.Flags().UintVarP(&flagRadius, "radius", "r", 0,
		"rounded corner radius in pixels")
	rootCmd.Flags().BoolVar(&flagAllowOpaque, "allow-opaque", false,
		fmt.Sprintf("allow alpha above %.1f", config.MaxAlpha))
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "",
		"apply only to the named output (default: all outputs)")
	rootCmd.Flags().BoolVar(&flagDetached, "detached", false, "")
	_ = rootCmd.Flags().MarkHidden("detached")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	socketPath, err := ipc.SocketPath()
	if err != nil {
		return err
	}

	line := forwardArgs(cmd)
	switch err := ipc.Forward(socketPath, line); {
	case err == nil:
		logger.Debug("forwarded to running instance", "socket", socketPath)
		return nil
	case errors.Is(err, ipc.ErrNoDaemon):
		// Nothing listening; this process becomes the daemon.
	default:
		// Best-effort delivery: report, but the invocation still succeeds.
		fmt.Fprintf(os.Stderr, "gloam: forwarding to running instance: %v\n", err)
		return nil
	}

	if !flagDetached && !daemon.Foreground() {
		if err := daemon.Detach(line); err != nil {
			return fmt.Errorf("detaching daemon: %w", err)
		}
		return nil
	}

	return runDaemon(cmd, socketPath, logger)
}

// forwardArgs re-encodes the parsed flags as a canonical argument vector.
// Always re-encoding (rather than echoing os.Args) keeps the line the
// daemon parses and the line a detached child inherits identical and
// explicit.
func forwardArgs(cmd *cobra.Command) []string {
	var args []string
	if cmd.Flags().Changed("alpha") {
		args = append(args, "--alpha", strconv.FormatFloat(flagAlpha, 'f', -1, 64))
	}
	if cmd.Flags().Changed("radius") {
		args = append(args, "--radius", strconv.FormatUint(uint64(flagRadius), 10))
	}
	if flagAllowOpaque {
		args = append(args, "--allow-opaque")
	}
	if flagOutput != "" {
		args = append(args, "--output", flagOutput)
	}
	return args
}

// currentUpdate converts the parsed flags into a settings update.
func currentUpdate(cmd *cobra.Command) config.Update {
	var u config.Update
	if cmd.Flags().Changed("alpha") {
		a := flagAlpha
		u.Alpha = &a
	}
	if cmd.Flags().Changed("radius") {
		r := int(flagRadius)
		u.Radius = &r
	}
	u.AllowOpaque = flagAllowOpaque
	u.Output = flagOutput
	u.Detached = flagDetached
	return u
}

func newLogger() *log.Logger {
	level := log.InfoLevel
	if os.Getenv("GLOAM_DEBUG") != "" {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "gloam",
		ReportTimestamp: true,
	})
}
