package main

import (
	"github.com/joho/godotenv"
	"github.com/pfrederiksen/hltv-stats/internal/cli"
)

func main() {
	// Optional; variables already in the environment win.
	_ = godotenv.Load()

	cli.Execute()
}
