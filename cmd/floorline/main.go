// Package main is the entry point for the floorline scheduling board.
package main

import (
	"fmt"
	"os"

	"github.com/mbakke/floorline/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
