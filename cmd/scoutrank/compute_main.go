package main

import (
	"context"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pitchside/scoutrank/internal/adjust"
	"github.com/pitchside/scoutrank/internal/config"
	"github.com/pitchside/scoutrank/internal/config/profile"
	"github.com/pitchside/scoutrank/internal/metrics"
	"github.com/pitchside/scoutrank/internal/persistence"
	"github.com/pitchside/scoutrank/internal/persistence/postgres"
	redispub "github.com/pitchside/scoutrank/internal/persistence/redis"
	"github.com/pitchside/scoutrank/internal/pipeline"
)

func runCompute(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	profilesPath, _ := cmd.Flags().GetString("profiles")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	weights, err := resolveWeights(cfg, profilesPath)
	if err != nil {
		return err
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	feed := postgres.NewMatchFeed(db, cfg.Database.QueryTimeout.Std())

	var store persistence.SnapshotStore = postgres.NewSnapshotStore(db, cfg.Database.QueryTimeout.Std())
	if dryRun {
		store = discardStore{}
		log.Info().Msg("dry run: snapshots will not be written")
	}

	var publisher persistence.LeaderboardPublisher
	if cfg.Redis.Enabled && !dryRun {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		publisher = redispub.NewPublisher(client)
	}

	var adjuster adjust.Adjuster
	if cfg.Adjustment.Enabled {
		adjuster = adjust.NewClient(cfg.Adjustment)
		log.Info().Str("url", cfg.Adjustment.URL).Msg("learned adjustment layer enabled")
	}

	runner := pipeline.NewRunner(cfg, weights, feed, store, publisher, adjuster, metrics.NewRegistry())

	report, err := runner.Run(context.Background())
	if err != nil {
		return fmt.Errorf("ranking run failed: %w", err)
	}

	fmt.Printf("Run %s: %d/%d cohorts succeeded, %d teams ranked (%d reported) in %s\n",
		report.RunID, report.Succeeded, report.Cohorts,
		report.TeamsRanked, report.TeamsReported, report.Elapsed.Round(1e7))

	if report.Failed > 0 {
		return fmt.Errorf("%d cohorts failed; see logs", report.Failed)
	}
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

// resolveWeights picks the blend weights: the named profile when one is
// configured, the inline config weights otherwise.
func resolveWeights(cfg config.Config, profilesPath string) (profile.Weights, error) {
	inline := profile.Weights{
		Offense: cfg.Blend.Offense,
		Defense: cfg.Blend.Defense,
		SOS:     cfg.Blend.SOS,
		Form:    cfg.Blend.Form,
	}
	if cfg.Blend.Profile == "" {
		return inline, nil
	}

	loader := profile.NewLoader()
	if profilesPath != "" {
		if err := loader.LoadFromFile(profilesPath); err != nil {
			return profile.Weights{}, err
		}
	} else if err := loader.LoadDefault(); err != nil {
		return profile.Weights{}, err
	}

	return loader.Get(cfg.Blend.Profile)
}
