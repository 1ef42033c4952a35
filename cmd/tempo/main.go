// Command tempo loads trigger scripts and runs their scheduled events.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/roach88/tempo/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "tempo: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
