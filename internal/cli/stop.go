package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gloam-wm/gloam/internal/ipc"
)

func init() {
	rootCmd.AddCommand(stopCmd)
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running gloam daemon",
	Long: `Stop sends the stop token to the running instance, which removes the
control socket and exits. Delivering stop always succeeds from the caller's
point of view: if no instance is running there is nothing to do.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		socketPath, err := ipc.SocketPath()
		if err != nil {
			return err
		}
		if err := ipc.Stop(socketPath); err != nil {
			if errors.Is(err, ipc.ErrNoDaemon) {
				fmt.Fprintln(os.Stderr, "gloam: no running instance to stop")
			} else {
				fmt.Fprintf(os.Stderr, "gloam: delivering stop: %v\n", err)
			}
		}
		return nil
	},
}
