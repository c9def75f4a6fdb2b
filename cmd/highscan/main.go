package main

import (
	"os"

	"github.com/wonny/highscan/cmd/highscan/commands"
)

// main is the entry point for the highscan CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/highscan [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
