// Package main is the entry point for the retail-price-tracker server.
package main

import (
	"os"

	"github.com/donaldgifford/retail-price-tracker/cmd/retail-price-tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
