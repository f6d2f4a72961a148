// cmd/nabin/main.go
package main

import (
	nabin "github.com/mwiater/nabin/internal/commands"
)

// Build metadata, set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = nabin.SetVersionInfo
	executeCmd     = nabin.Execute
)

// main starts the nabin CLI by delegating to the cobra root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
