// Package main is the entry point for the superclaude CLI.
package main

import (
	"os"

	"github.com/superclaude/superclaude/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
