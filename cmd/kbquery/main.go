// Command kbquery chunks, validates, indexes and queries a local knowledge base.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/kbquery/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
