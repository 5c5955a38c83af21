package main

import (
	"os"

	"github.com/gummama/quizhub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
