package main

import (
	"os"

	"github.com/wonny/spds/cmd/spds/commands"
)

// main is the entry point for the SPDS CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/spds [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
