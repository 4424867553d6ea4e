// Command dentalctl is the DentalDesk client: account flows on the command
// line and a local portal server.
package main

import (
	"fmt"
	"os"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
