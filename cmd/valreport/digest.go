package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"valfront/internal/client"
	"valfront/internal/report"
)

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Print a grouped severity digest of an outcomes document",
		ArgsUsage: "<outcomes.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include passed and not-applicable records",
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
			return runDigest(doc, cmd.Bool("all"), cmd.Bool("dedup"))
		},
	}
}

// loadDocument reads the outcomes document from the file argument, or
// fetches it when --backend is set (the argument is then the file id)
func loadDocument(ctx context.Context, cmd *cli.Command) (*report.Document, error) {
	if cmd.NArg() != 1 {
		return nil, errors.New("expected exactly one argument: outcomes file or file id")
	}
	arg := cmd.Args().First()

	if backend := cmd.String("backend"); backend != "" {
		c := client.New(backend, 30, 3, 200, 5000, nil)
		return c.Outcomes(ctx, arg, cmd.String("category"))
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("reading outcomes: %w", err)
	}
	var doc report.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing outcomes: %w", err)
	}
	return &doc, nil
}

func runDigest(doc *report.Document, includeAll, dedup bool) error {
	rep := report.Aggregate(doc.Results, doc.Counts, report.Options{
		IncludeAll: includeAll,
		Dedup:      dedup,
	})

	fmt.Println(headlineStyle.Render(fmt.Sprintf(
		"%d records in %d groups", len(doc.Results), rep.TotalGroups())))

	if rep.TotalGroups() == 0 {
		fmt.Println(okStyle.Render("no findings"))
		return nil
	}

	rows := make([][]string, 0, rep.TotalGroups())
	for _, g := range rep.Groups() {
		shown := strconv.Itoa(g.Delivered)
		if g.Partial {
			shown = warnStyle.Render(fmt.Sprintf("%d of %d", g.Delivered, g.Total))
		}
		rows = append(rows, []string{
			g.Title,
			severityCell(g.Severity),
			shown,
		})
	}
	fmt.Println(renderTable([]string{"Rule", "Severity", "Occurrences"}, rows))

	for _, g := range rep.Groups() {
		if g.Partial {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("%s: %s", g.Title, g.Note)))
		}
	}
	return nil
}
