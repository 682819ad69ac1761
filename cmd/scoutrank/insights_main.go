package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pitchside/scoutrank/internal/insight"
	"github.com/pitchside/scoutrank/internal/persistence/postgres"
)

func runInsights(cmd *cobra.Command, args []string) error {
	teamID := args[0]
	configPath, _ := cmd.Flags().GetString("config")
	historyDepth, _ := cmd.Flags().GetInt("history")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	store := postgres.NewSnapshotStore(db, cfg.Database.QueryTimeout.Std())
	feed := postgres.NewMatchFeed(db, cfg.Database.QueryTimeout.Std())

	history, err := store.ListTeamHistory(ctx, teamID, historyDepth)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no snapshots found for team %s", teamID)
	}
	latest := history[0]

	cohortSnaps, err := store.GetCohortRun(ctx, latest.Cohort, latest.RunID)
	if err != nil {
		return err
	}

	matches, err := feed.ListMatches(ctx, latest.Cohort, latest.ComputedAt.AddDate(0, 0, -cfg.Ranking.WindowDays))
	if err != nil {
		return err
	}

	result, err := insight.NewDeriver(cfg).Derive(latest, history, cohortSnaps, matches)
	if err != nil {
		return fmt.Errorf("failed to derive insights: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
