package main

import (
	"os"

	"github.com/rustyeddy/toff/cmd/toff/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
