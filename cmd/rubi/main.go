package main

import (
	"os"

	"github.com/okanehara/rubi/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
