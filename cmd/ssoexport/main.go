// Package main is the entry point for the ssoexport CLI tool. It resolves
// temporary AWS credentials for a named SSO profile and prints them as
// shell-exportable environment variable assignments.
package main

import (
	"log/slog"
	"os"

	"ssoexport/ssoexport"
)

var version = "dev" // Overwritten during build

func main() {
	// Version goes to the debug log, never stdout: stdout is reserved for
	// shell-evaluable export statements.
	slog.Debug("ssoexport CLI", "version", version)

	os.Exit(ssoexport.CLI(os.Args[1:]))
}
