// Package main is the entry point for the makerctl CLI
package main

import (
	"os"

	"github.com/schartrand77/makerworks-go/makerctl/cmd"
	"github.com/schartrand77/makerworks-go/makerctl/internal/output"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		output.NewPrinter(false).Error("%s", err)
		os.Exit(1)
	}
}
