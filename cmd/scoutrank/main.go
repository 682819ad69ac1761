package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "scoutrank"
	version = "v1.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Cohort-based team ranking and scouting insights",
		Version: version,
		Long: `scoutrank ranks competitive teams within age/gender/region cohorts from
historical match results and derives scouting insights from the rankings.

Runs are batch snapshots: every invocation of 'compute' recomputes each
cohort in full and supersedes the previous run.`,
	}

	computeCmd := &cobra.Command{
		Use:   "compute",
		Short: "Run the full ranking recomputation",
		Long:  "Loads every cohort from the match feed, computes ranking snapshots in parallel, and writes each cohort's results atomically",
		RunE:  runCompute,
	}
	computeCmd.Flags().String("config", "", "Path to YAML config (defaults apply when empty)")
	computeCmd.Flags().String("profiles", "", "Path to blend profile YAML (built-ins apply when empty)")
	computeCmd.Flags().Bool("dry-run", false, "Compute and report without writing snapshots")

	insightsCmd := &cobra.Command{
		Use:   "insights [team-id]",
		Short: "Derive scouting insights for a team",
		Long:  "Regenerates consistency, persona and season narrative from the team's latest snapshot and match window",
		Args:  cobra.ExactArgs(1),
		RunE:  runInsights,
	}
	insightsCmd.Flags().String("config", "", "Path to YAML config (defaults apply when empty)")
	insightsCmd.Flags().Int("history", 20, "Snapshot history depth for volatility scoring")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the ops monitoring HTTP server",
		Long:  "Serves /health and /metrics for watching batch runs; read-only",
		RunE:  runMonitor,
	}
	monitorCmd.Flags().String("config", "", "Path to YAML config (defaults apply when empty)")

	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(monitorCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
