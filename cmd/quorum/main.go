package main

import (
	"os"

	"github.com/quorum-sh/quorum/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
