// valreport inspects validation outcome documents from the command line:
// a grouped severity digest and a flat text export per rule group.
package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"valfront/internal/version"
)

func main() {
	app := &cli.Command{
		Name:    "valreport",
		Usage:   "Inspect validation outcome reports",
		Version: version.String(),
		Commands: []*cli.Command{
			digestCommand(),
			exportCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("valreport: %v", err)
	}
}
