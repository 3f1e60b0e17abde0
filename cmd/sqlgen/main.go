// Package main provides the sqlgen command.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
