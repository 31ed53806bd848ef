package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"valfront/internal/report"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Print the flat tab-separated text for one rule group",
		ArgsUsage: "<outcomes.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Usage:    "Rule title of the group to export",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "dedup",
				Usage: "Drop repeated (instance, title, severity) records",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Fetch the document from a backend URL instead of a file",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Check category to fetch (with --backend)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			doc, err := loadDocument(ctx, cmd)
			if err != nil {
				return err
			}

			rep := report.Aggregate(doc.Results, doc.Counts, report.Options{
				IncludeAll: true,
				Dedup:      cmd.Bool("dedup"),
			})
			group, ok := rep.Group(cmd.String("title"))
			if !ok {
				return errors.New("no group with that title")
			}

			fmt.Print(report.ExportGroupText(group, doc.Instances))
			return nil
		},
	}
}
