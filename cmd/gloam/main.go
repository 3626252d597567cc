package main

import (
	"fmt"
	"os"

	"github.com/gloam-wm/gloam/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gloam:", err)
		os.Exit(1)
	}
}
