// Package main provides the s2http command-line client.
package main

import (
	"os"

	"github.com/leapstack-labs/s2http/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
