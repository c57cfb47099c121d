package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/ld-enricher/internal/common"
	"github.com/dtnitsch/ld-enricher/models"
	dbpkg "github.com/dtnitsch/ld-enricher/pkg/db"
)

func openHistory(c *cli.Context) (*dbpkg.DB, error) {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return nil, common.Fail(common.ExitInput, "invalid configuration: %v", err)
	}
	path := cfg.HistoryPath()
	if path == "" {
		return nil, common.Fail(common.ExitInput, "run history is disabled")
	}
	database, err := dbpkg.Open(path)
	if err != nil {
		return nil, common.Fail(common.ExitInfra, "failed to open database: %v", err)
	}
	return database, nil
}

// RunsAction lists recent runs.
func RunsAction(c *cli.Context) error {
	database, err := openHistory(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Println(renderTable(
		[]string{"Run", "File", "Range", "Started", "Took", "Status", "Enriched", "Failed", "Skipped"},
		runRows(runs, time.Now()),
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight},
	))
	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'ld-enricher run <id>' to see details\n")
	return nil
}

// RunAction shows one run (the latest by default) and its attempts.
func RunAction(c *cli.Context) error {
	database, err := openHistory(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := runIDOrLatest(c, database)
	if err != nil {
		return err
	}
	run, err := database.GetRun(runID)
	if err != nil {
		if errors.Is(err, dbpkg.ErrRunNotFound) {
			return common.Fail(common.ExitInput, "%v", err)
		}
		return fmt.Errorf("failed to get run: %w", err)
	}
	attempts, err := database.GetAttempts(runID)
	if err != nil {
		return fmt.Errorf("failed to get attempts: %w", err)
	}

	fmt.Print(describeRun(*run, time.Now()))
	if c.Bool("failed") {
		attempts = failedOnly(attempts)
	}
	if len(attempts) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println(renderTable(
		[]string{"Index", "Outcome", "URL", "Message", "Took"},
		attemptRows(attempts),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	))
	return nil
}

func failedOnly(attempts []models.Attempt) []models.Attempt {
	var out []models.Attempt
	for _, a := range attempts {
		if a.Outcome != models.OutcomeEnriched {
			out = append(out, a)
		}
	}
	return out
}
