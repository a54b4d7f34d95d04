package main

import (
	"log/slog"

	"github.com/habibuoy/pairchat/cli/cmd"
	"github.com/habibuoy/pairchat/internal/logging"
)

func main() {
	// The TUI owns the terminal, so only errors are logged by default.
	logging.Init(slog.LevelError)
	cmd.Execute()
}
