// Package main is the entry point for the litebridge CLI.
package main

import (
	"os"

	"github.com/mrz1836/litebridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
