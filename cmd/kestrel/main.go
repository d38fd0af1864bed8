package main

import (
	"github.com/kestrelscan/kestrel/internal/cli"
)

// Build information, set via ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
