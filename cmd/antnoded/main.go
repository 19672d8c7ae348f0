// Command antnoded is the fleet manager daemon: it owns the durable
// node registry and serves a read-only status API over the antnode
// processes running on this host. Fleet mutations are issued through
// antnodectl, not this binary.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/antnode-manager/cmd/antnoded/commands"
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
