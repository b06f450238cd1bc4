// Package main provides the entry point for the searchmark CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/searchmark/cmd/searchmark/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
