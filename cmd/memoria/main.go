package main

import (
	"os"

	"github.com/memoria-ai/memoria/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
