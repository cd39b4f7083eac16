// Package main provides the entry point for the docsmith CLI.
package main

import (
	"os"

	"github.com/docsmith/docsmith/cmd/docsmith/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
