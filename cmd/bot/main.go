package main

import (
	"os"

	"PremarketScanner/cmd/bot/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
