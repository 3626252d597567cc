package config

import (
	"fmt"
	"io"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/pflag"
)

// ParseArgs interprets a command-line argument vector as an Update. The
// flag set mirrors the CLI surface so a forwarded invocation parses
// identically on the daemon side. Alpha and Radius record presence so the
// store can merge them; everything else is positional truth.
func ParseArgs(args []string) (Update, error) {
	fs := pflag.NewFlagSet("gloam", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	alpha := fs.Float64P("alpha", "a", DefaultAlpha, "")
	radius := fs.UintP("radius", "r", 0, "")
	allowOpaque := fs.Bool("allow-opaque", false, "")
	output := fs.StringP("output", "o", "", "")
	detached := fs.Bool("detached", false, "")

	if err := fs.Parse(args); err != nil {
		return Update{}, fmt.Errorf("parsing control message: %w", err)
	}

	var u Update
	if fs.Changed("alpha") {
		u.Alpha = alpha
	}
	if fs.Changed("radius") {
		r := int(*radius)
		u.Radius = &r
	}
	u.AllowOpaque = *allowOpaque
	u.Output = *output
	u.Detached = *detached
	if fs.NArg() > 0 {
		u.Command = fs.Arg(0)
	}
	return u, nil
}

// ParseLine tokenizes one control-channel line shell-style and parses the
// result as an argument vector.
func ParseLine(line string) (Update, error) {
	args, err := shellwords.Parse(line)
	if err != nil {
		return Update{}, fmt.Errorf("tokenizing control message: %w", err)
	}
	return ParseArgs(args)
}
