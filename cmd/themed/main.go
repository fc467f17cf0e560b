package main

import (
	"os"

	"github.com/themed-dev/themed/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
