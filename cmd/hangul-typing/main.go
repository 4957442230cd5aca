// Package main provides the entry point for the hangul-typing assistant server.
package main

import (
	"fmt"
	"os"

	"github.com/pastel-sketchbook/hangul-typing/cmd/hangul-typing/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
