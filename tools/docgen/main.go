// Package main generates CLI reference documentation from the rpt and
// retail-price-tracker command trees.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	server "github.com/donaldgifford/retail-price-tracker/cmd/retail-price-tracker/cmd"
	rpt "github.com/donaldgifford/retail-price-tracker/cmd/rpt/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory for generated markdown")
	flag.Parse()

	roots := map[string]*cobra.Command{
		"rpt":    rpt.Root(),
		"server": server.Root(),
	}
	for name, root := range roots {
		dir := filepath.Join(*output, name)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Fatalf("creating output directory: %v", err)
		}

		root.DisableAutoGenTag = true
		if err := doc.GenMarkdownTree(root, dir); err != nil {
			log.Fatalf("generating %s docs: %v", name, err)
		}
	}

	fmt.Printf("CLI docs generated in %s/\n", *output)
}
