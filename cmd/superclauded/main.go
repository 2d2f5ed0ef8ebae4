// Package main is the entry point for the superclauded daemon.
package main

import (
	"os"

	"github.com/superclaude/superclaude/internal/daemon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
