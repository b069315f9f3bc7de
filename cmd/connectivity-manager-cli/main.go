package main

import (
	"fmt"
	"os"

	"github.com/luxoft/connectivity-managerd/internal/cli"
)

// Version is set at build time via -ldflags.
var Version = "unknown"

func main() {
	cli.RootCmd.Version = Version

	if err := cli.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
