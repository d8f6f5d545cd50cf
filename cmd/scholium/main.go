// Package main provides the entry point for the scholium CLI.
package main

import (
	"fmt"
	"os"

	"github.com/scholium/scholium/cmd/scholium/cmd"
	"github.com/scholium/scholium/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
		os.Exit(1)
	}
}
