// Command antnodectl provisions and drives antnode services on this
// host: add, start, stop, upgrade and remove node/daemon services
// against the same registry and host supervisor antnoded reads.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/antnode-manager/cmd/antnodectl/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
