package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/ld-enricher/internal/collect"
	"github.com/dtnitsch/ld-enricher/internal/common"
	"github.com/dtnitsch/ld-enricher/internal/db"
	"github.com/dtnitsch/ld-enricher/internal/enrich"
	"github.com/dtnitsch/ld-enricher/internal/inspect"
	"github.com/dtnitsch/ld-enricher/pkg/catalog"
	"github.com/dtnitsch/ld-enricher/pkg/help"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env", "error", err)
	}

	app := &cli.App{
		Name:  "ld-enricher",
		Usage: "Attach JSON-LD metadata to the records of a collection, one URL at a time",
		Flags: common.GlobalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "enrich",
				Usage:  "Fetch each record's url and store its ld+json fragment as metaData",
				Flags:  common.RunFlags(),
				Action: enrich.EnrichAction,
			},
			{
				Name:  "status",
				Usage: "Count enriched, failed and unprocessed records and suggest a resume index",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "collection file name inside the data directory"},
				},
				Action: enrich.StatusAction,
			},
			{
				Name:  "collect",
				Usage: "Download a paginated category catalog into a collection file",
				Flags: append(common.FetchFlags(),
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "collection file name to write"},
					&cli.StringFlag{Name: "category", Required: true, Usage: "category id"},
					&cli.StringFlag{Name: "city", Required: true, Usage: "city query parameter"},
					&cli.IntFlag{Name: "per-page", Value: 40, Usage: "records per page"},
					&cli.IntFlag{Name: "pages", Required: true, Usage: "number of pages to fetch"},
					&cli.StringFlag{Name: "base-url", Value: catalog.DefaultBaseURL, Usage: "category API base URL", EnvVars: []string{"ENRICHER_CATALOG_URL"}},
					&cli.IntFlag{Name: "page-delay-ms", Value: 0, Usage: "pause between pages in milliseconds"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing collection"},
				),
				Action: collect.CollectAction,
			},
			{
				Name:      "inspect",
				Usage:     "Show the ld+json fragment, article summary and language of one page",
				ArgsUsage: "<url>",
				Flags: append(common.FetchFlags(),
					&cli.StringFlag{Name: "html-file", Usage: "read the page from a local file instead of fetching it"},
				),
				Action: inspect.InspectAction,
			},
			{
				Name:  "runs",
				Usage: "List recent enrichment runs",
				Flags: append(common.HistoryFlags(),
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of runs to show"},
				),
				Action: db.RunsAction,
			},
			{
				Name:      "run",
				Usage:     "Show one run and its attempts (latest when no id is given)",
				ArgsUsage: "[run_id]",
				Flags: append(common.HistoryFlags(),
					&cli.BoolFlag{Name: "failed", Usage: "only show attempts that did not find metadata"},
				),
				Action: db.RunAction,
			},
			{
				Name:  "quickstart",
				Usage: "Print a cheat-sheet of common commands",
				Action: func(c *cli.Context) error {
					fmt.Print(help.QuickstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
