package main

import (
	"os"

	"github.com/lguimbarda/min-rx/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
