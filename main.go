package main

import (
	"os"

	"github.com/FS94/psychopy/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
