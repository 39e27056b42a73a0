// Package main is the single-binary entrypoint for loopstate.
package main

import "github.com/loopstate/core/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
