package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/ld-enricher/models"
	dbpkg "github.com/dtnitsch/ld-enricher/pkg/db"
)

// runIDOrLatest returns the run id from args, or the latest run if not provided.
func runIDOrLatest(c *cli.Context, database *dbpkg.DB) (string, error) {
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	runs, err := database.ListRuns(1)
	if err != nil {
		return "", fmt.Errorf("failed to get latest run: %w", err)
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs found. Run 'ld-enricher enrich --file <name>' first")
	}
	return runs[0].RunID, nil
}

func runRows(runs []models.Run, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		took := "-"
		if r.FinishedAt != nil {
			took = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			r.RunID,
			r.FileName,
			fmt.Sprintf("[%d,%d)", r.Start, r.End),
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			took,
			r.Status,
			humanize.Comma(int64(r.Summary.Enriched)),
			humanize.Comma(int64(r.Summary.Failed())),
			humanize.Comma(int64(r.Summary.Skipped)),
		})
	}
	return rows
}

func attemptRows(attempts []models.Attempt) [][]string {
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		took := strconv.FormatInt(a.DurationMs, 10) + "ms"
		if a.FromCache {
			took = "cached"
		}
		rows = append(rows, []string{
			strconv.Itoa(a.Index),
			a.Outcome,
			a.URL,
			a.Message,
			took,
		})
	}
	return rows
}

func describeRun(r models.Run, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", r.RunID)
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "File:      %s\n", r.FileName)
	fmt.Fprintf(&b, "Range:     [%d,%d)\n", r.Start, r.End)
	fmt.Fprintf(&b, "Started:   %s (%s)\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.RelTime(r.StartedAt, now, "ago", "from now"))
	if r.FinishedAt != nil {
		fmt.Fprintf(&b, "Finished:  %s\n", r.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "Status:    %s\n", r.Status)
	s := r.Summary
	fmt.Fprintf(&b, "Visited:   %d (next index %d)\n", s.Visited, s.NextIndex)
	fmt.Fprintf(&b, "Enriched:  %d, skipped: %d, cache hits: %d\n", s.Enriched, s.Skipped, s.CacheHits)
	fmt.Fprintf(&b, "Failed:    %d (no metadata %d, malformed %d, missing url %d, http %d, timeout %d, network %d)\n",
		s.Failed(), s.NoMetadata, s.Malformed, s.MissingURL, s.HTTPErrors, s.Timeouts, s.NetworkErrors)
	return b.String()
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
