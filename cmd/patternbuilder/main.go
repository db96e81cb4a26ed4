package main

import (
	"os"

	"github.com/goliatone/go-patternbuilder/cmd/patternbuilder/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
