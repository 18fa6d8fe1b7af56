// Package main provides the scholdb CLI application.
// scholdb maintains an identity-managed store of scientific paper
// metadata aggregated from heterogeneous sources.
package main

import (
	"os"
)

var (
	// Version is set by build flags
	Version = "dev"
)

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
