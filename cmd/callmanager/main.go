// Package main is the entry point of the callmanager CLI.
//
// Usage:
//
//	callmanager [flags] <command> [subcommand] [args]
//
// Commands:
//
//	connect    - Run a voice call with file-backed devices
//	serve      - Run the glue proxy (/ws-proxy, /realtime/calls, /metrics)
//	config     - Configuration management (contexts)
//	devices    - List microphones and speakers
//	sessions   - Inspect the session journal
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/rafq345/callmanager/cmd/callmanager/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
