// Package main provides the entry point for memkv-cli, the command-line
// client for memkv-server.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/memkv-go/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		if err.Error() != "" {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
