// Package main is the entry point for the laserquote CLI.
package main

import (
	"os"

	"github.com/Simplici0/laserquote/cmd/quote/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
