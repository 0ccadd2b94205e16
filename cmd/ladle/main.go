// Command ladle is the entry point for the recipe assistant.
// It provides a CLI interface (via Cobra) and an optional local HTTP API
// over a personal recipe collection indexed in Qdrant.
package main

import (
	"fmt"
	"os"

	"github.com/ladleworks/ladle/cmd/ladle/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
