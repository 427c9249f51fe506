// Package main provides the wavedeck command line tool. The API server
// lives in cmd/server.
package main

import (
	"fmt"
	"os"

	"github.com/wavedeck/wavedeck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
