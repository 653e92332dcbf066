// Command knowhub is the entry point for the knowledge hub backend.
// It provides a CLI interface (via Cobra) and the HTTP API server for
// document ingestion and retrieval-augmented chat.
package main

import (
	"fmt"
	"os"

	"github.com/knowhub/knowhub-go/cmd/knowhub/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
