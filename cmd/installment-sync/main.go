// Package main is the entry point for installment-sync CLI.
package main

import (
	"os"

	"github.com/pigeonworks-llc/installment-sync/cmd/installment-sync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
